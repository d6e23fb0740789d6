package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/pipeline"
)

type fakeJobRepo struct {
	job      *entity.Job
	statuses []entity.JobStatus
	output   json.RawMessage
	errText  string
	touches  atomic.Int64
}

func (r *fakeJobRepo) GetByID(context.Context, uuid.UUID) (*entity.Job, error) {
	if r.job == nil {
		return nil, errors.New("not found")
	}
	return r.job, nil
}

func (r *fakeJobRepo) UpdateStatus(_ context.Context, _ uuid.UUID, status entity.JobStatus) error {
	r.statuses = append(r.statuses, status)
	return nil
}

func (r *fakeJobRepo) SetResultDone(_ context.Context, _ uuid.UUID, output json.RawMessage) error {
	r.statuses = append(r.statuses, entity.JobDone)
	r.output = output
	return nil
}

func (r *fakeJobRepo) SetResultError(_ context.Context, _ uuid.UUID, errText string, output json.RawMessage) error {
	r.statuses = append(r.statuses, entity.JobError)
	r.errText = errText
	r.output = output
	return nil
}

func (r *fakeJobRepo) Touch(context.Context, uuid.UUID) error {
	r.touches.Add(1)
	return nil
}

type fakeBatch struct {
	gotIDs  []uuid.UUID
	gotOpts pipeline.Options
	out     entity.ProcessOutput
	err     error
	delay   time.Duration
}

func (b *fakeBatch) Run(_ context.Context, ids []uuid.UUID, opts pipeline.Options) (entity.ProcessOutput, error) {
	b.gotIDs, b.gotOpts = ids, opts
	time.Sleep(b.delay)
	return b.out, b.err
}

type fakeTrainer struct {
	out   entity.TrainOutput
	err   error
	calls int
}

func (t *fakeTrainer) Train(context.Context) (entity.TrainOutput, error) {
	t.calls++
	return t.out, t.err
}

func TestProcessor_ProcessVacancies(t *testing.T) {
	id := uuid.New()
	rec := uuid.New()
	input, _ := json.Marshal(entity.ProcessInput{IDs: []uuid.UUID{rec}, BatchSize: 10, Concurrency: 2})
	repo := &fakeJobRepo{job: &entity.Job{ID: id, Kind: entity.KindProcessVacancies, Status: entity.JobPending, Input: input}}
	batch := &fakeBatch{out: entity.ProcessOutput{Processed: 1, Done: 1}}

	p := NewProcessor(repo, batch, &fakeTrainer{}, 0, nil)
	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if len(batch.gotIDs) != 1 || batch.gotIDs[0] != rec {
		t.Errorf("expected ids to reach the batch run, got %v", batch.gotIDs)
	}
	if batch.gotOpts.BatchSize != 10 || batch.gotOpts.Concurrency != 2 {
		t.Errorf("unexpected options %+v", batch.gotOpts)
	}
	if want := []entity.JobStatus{entity.JobProcessing, entity.JobDone}; !equalStatuses(repo.statuses, want) {
		t.Errorf("expected statuses %v, got %v", want, repo.statuses)
	}
	var out entity.ProcessOutput
	if err := json.Unmarshal(repo.output, &out); err != nil || out.Done != 1 {
		t.Errorf("unexpected stored output %s (%v)", repo.output, err)
	}
}

func TestProcessor_FailedRunKeepsPartialOutput(t *testing.T) {
	id := uuid.New()
	repo := &fakeJobRepo{job: &entity.Job{ID: id, Kind: entity.KindProcessVacancies, Status: entity.JobPending}}
	batch := &fakeBatch{
		out: entity.ProcessOutput{Processed: 3, Done: 3},
		err: pipeline.ErrStoreUnavailable,
	}

	p := NewProcessor(repo, batch, &fakeTrainer{}, 0, nil)
	err := p.Process(context.Background(), id)
	if !errors.Is(err, pipeline.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if !strings.Contains(repo.errText, "store unavailable") {
		t.Errorf("unexpected error text %q", repo.errText)
	}
	var out entity.ProcessOutput
	if err := json.Unmarshal(repo.output, &out); err != nil || out.Done != 3 {
		t.Errorf("expected partial output to be stored, got %s", repo.output)
	}
}

func TestProcessor_TrainModel(t *testing.T) {
	id := uuid.New()
	repo := &fakeJobRepo{job: &entity.Job{ID: id, Kind: entity.KindTrainModel, Status: entity.JobPending}}
	tr := &fakeTrainer{out: entity.TrainOutput{Version: "20260101T000000Z", ExampleCount: 4}}

	p := NewProcessor(repo, &fakeBatch{}, tr, 0, nil)
	if err := p.Process(context.Background(), id); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("expected one training run, got %d", tr.calls)
	}
	if !strings.Contains(string(repo.output), "20260101T000000Z") {
		t.Errorf("expected version in output, got %s", repo.output)
	}
}

func TestProcessor_SkipsFinishedJob(t *testing.T) {
	repo := &fakeJobRepo{job: &entity.Job{Kind: entity.KindTrainModel, Status: entity.JobDone}}
	tr := &fakeTrainer{}

	p := NewProcessor(repo, &fakeBatch{}, tr, 0, nil)
	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if tr.calls != 0 || len(repo.statuses) != 0 {
		t.Errorf("expected a finished job to be left alone")
	}
}

func TestProcessor_UnknownKind(t *testing.T) {
	repo := &fakeJobRepo{job: &entity.Job{Kind: "convert_video", Status: entity.JobPending}}

	p := NewProcessor(repo, &fakeBatch{}, &fakeTrainer{}, 0, nil)
	if err := p.Process(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
	if !strings.Contains(repo.errText, "unknown job kind") {
		t.Errorf("unexpected error text %q", repo.errText)
	}
}

func equalStatuses(a, b []entity.JobStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestProcessor_LiveRunningJobIsNotRunTwice(t *testing.T) {
	repo := &fakeJobRepo{job: &entity.Job{
		Kind:      entity.KindProcessVacancies,
		Status:    entity.JobProcessing,
		UpdatedAt: time.Now().Add(-time.Minute),
	}}
	batch := &fakeBatch{}

	p := NewProcessor(repo, batch, &fakeTrainer{}, time.Hour, nil)
	err := p.Process(context.Background(), uuid.New())
	if !errors.Is(err, ErrJobRunning) {
		t.Fatalf("expected ErrJobRunning, got %v", err)
	}
	if len(repo.statuses) != 0 {
		t.Errorf("a live job must not be started again")
	}
}

func TestProcessor_AbandonedJobIsRunAgain(t *testing.T) {
	repo := &fakeJobRepo{job: &entity.Job{
		Kind:      entity.KindProcessVacancies,
		Status:    entity.JobProcessing,
		Input:     json.RawMessage(`{"batch_size":10}`),
		UpdatedAt: time.Now().Add(-3 * time.Hour),
	}}
	batch := &fakeBatch{out: entity.ProcessOutput{Processed: 1, Done: 1}}

	p := NewProcessor(repo, batch, &fakeTrainer{}, time.Hour, nil)
	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if batch.gotOpts.BatchSize != 10 {
		t.Errorf("the abandoned job should run, got opts %+v", batch.gotOpts)
	}
	if last := repo.statuses[len(repo.statuses)-1]; last != entity.JobDone {
		t.Errorf("final status = %s", last)
	}
}

func TestProcessor_HeartbeatWhileRunning(t *testing.T) {
	repo := &fakeJobRepo{job: &entity.Job{Kind: entity.KindProcessVacancies, Status: entity.JobPending}}
	batch := &fakeBatch{delay: 100 * time.Millisecond}

	p := NewProcessor(repo, batch, &fakeTrainer{}, 40*time.Millisecond, nil)
	if err := p.Process(context.Background(), uuid.New()); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if repo.touches.Load() == 0 {
		t.Fatal("expected the job row to be refreshed during a long run")
	}

	n := repo.touches.Load()
	time.Sleep(50 * time.Millisecond)
	if repo.touches.Load() != n {
		t.Fatal("heartbeat must stop when the job finishes")
	}
}
