package trainer

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/model"
)

type fakeExamples struct {
	examples []entity.ApprovedExample
	err      error
}

func (f fakeExamples) ApprovedExamples(context.Context, int) ([]entity.ApprovedExample, error) {
	return f.examples, f.err
}

type fakeStore struct {
	saved []*model.Artifact
	err   error
}

func (f *fakeStore) Save(a *model.Artifact) (model.SaveResult, error) {
	if f.err != nil {
		return model.SaveResult{}, f.err
	}
	f.saved = append(f.saved, a)
	return model.SaveResult{VersionPath: "v.json", LatestPath: "latest.json"}, nil
}

func example(title string, skills ...string) entity.ApprovedExample {
	return entity.ApprovedExample{
		VacancyID: uuid.New(),
		HTML:      "<html><body><h1>" + title + "</h1><p>A long enough description of the role and the team.</p></body></html>",
		Expected:  entity.VacancyCandidate{Title: title, Skills: skills},
	}
}

func fixedClock(tr *Trainer) {
	tr.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }
}

func TestTrain_NoApprovedExamples(t *testing.T) {
	store := &fakeStore{}
	tr := New(fakeExamples{}, store, 4, nil)

	_, err := tr.Train(context.Background())
	if !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("expected ErrTrainingFailed, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("nothing must be saved without examples")
	}
}

func TestTrain_AllExamplesUnreadable(t *testing.T) {
	store := &fakeStore{}
	ex := example("Dev", "go")
	ex.HTML = ""
	tr := New(fakeExamples{examples: []entity.ApprovedExample{ex}}, store, 4, nil)

	if _, err := tr.Train(context.Background()); !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("expected ErrTrainingFailed, got %v", err)
	}
	if len(store.saved) != 0 {
		t.Fatal("nothing must be saved")
	}
}

func TestTrain_SourceError(t *testing.T) {
	tr := New(fakeExamples{err: errors.New("db down")}, &fakeStore{}, 4, nil)
	if _, err := tr.Train(context.Background()); !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("expected ErrTrainingFailed, got %v", err)
	}
}

func TestTrain_SaveError(t *testing.T) {
	store := &fakeStore{err: model.ErrVersionExists}
	tr := New(fakeExamples{examples: []entity.ApprovedExample{example("Dev", "go")}}, store, 4, nil)

	_, err := tr.Train(context.Background())
	if !errors.Is(err, ErrTrainingFailed) || !errors.Is(err, model.ErrVersionExists) {
		t.Fatalf("expected wrapped ErrVersionExists, got %v", err)
	}
}

func TestTrain_BuildsArtifact(t *testing.T) {
	store := &fakeStore{}
	examples := []entity.ApprovedExample{
		example("Backend Engineer", "go", "postgresql"),
		example("Another Backend Engineer", "go"),
		example("Frontend Engineer", "javascript", "react", "css"),
	}
	tr := New(fakeExamples{examples: examples}, store, 2, nil)
	fixedClock(tr)

	out, err := tr.Train(context.Background())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if out.Version != "2024_05_01_10_30" || out.ExampleCount != 3 {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one saved artifact, got %d", len(store.saved))
	}
	a := store.saved[0]
	if len(a.Demos) != 2 {
		t.Fatalf("expected 2 demos, got %d", len(a.Demos))
	}
	if a.Demos[0].Output.Title != "Frontend Engineer" || a.Demos[1].Output.Title != "Backend Engineer" {
		t.Fatalf("demos should maximise skill coverage, got %q then %q",
			a.Demos[0].Output.Title, a.Demos[1].Output.Title)
	}
	if !strings.Contains(a.Demos[0].Input, "Page title: Frontend Engineer") {
		t.Errorf("demo input missing page title: %q", a.Demos[0].Input)
	}
	if !strings.Contains(a.Instructions, "go, css") {
		t.Errorf("glossary should list the most frequent skill first: %q", a.Instructions)
	}
}

func TestTrain_FailureKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	store := model.NewFileStore(dir)
	previous := &model.Artifact{Version: "2024_01_01_00_00", Instructions: "old"}
	if _, err := store.Save(previous); err != nil {
		t.Fatalf("seed artifact: %v", err)
	}
	before, err := os.ReadFile(store.LatestPath())
	if err != nil {
		t.Fatal(err)
	}

	tr := New(fakeExamples{}, store, 4, nil)
	if _, err := tr.Train(context.Background()); !errors.Is(err, ErrTrainingFailed) {
		t.Fatalf("expected ErrTrainingFailed, got %v", err)
	}

	after, err := os.ReadFile(store.LatestPath())
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Fatal("latest artifact changed after a failed run")
	}
}

func TestTrain_WritesVersionAndLatest(t *testing.T) {
	store := model.NewFileStore(t.TempDir())
	tr := New(fakeExamples{examples: []entity.ApprovedExample{example("Dev", "go")}}, store, 4, nil)
	fixedClock(tr)

	out, err := tr.Train(context.Background())
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if out.VersionPath != store.VersionPath("2024_05_01_10_30") {
		t.Errorf("version path = %q", out.VersionPath)
	}
	latest, err := store.Latest()
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest.Version != "2024_05_01_10_30" {
		t.Errorf("latest version = %q", latest.Version)
	}
}
