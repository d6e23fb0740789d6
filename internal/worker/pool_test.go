package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/service"
)

type memQueue struct {
	mu      sync.Mutex
	ids     []uuid.UUID
	acked   []uuid.UUID
	stale   int64
	reapArg time.Duration
}

func (q *memQueue) Enqueue(_ context.Context, id uuid.UUID, _ service.Priority) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

func (q *memQueue) Claim(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	q.mu.Lock()
	if len(q.ids) > 0 {
		id := q.ids[0]
		q.ids = q.ids[1:]
		q.mu.Unlock()
		return id, nil
	}
	q.mu.Unlock()

	select {
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	case <-time.After(timeout):
		return uuid.Nil, service.ErrQueueEmpty
	}
}

func (q *memQueue) Ack(_ context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.acked = append(q.acked, id)
	return nil
}

func (q *memQueue) RequeueStale(_ context.Context, olderThan time.Duration, _ int64) (int64, error) {
	q.reapArg = olderThan
	return q.stale, nil
}

func (q *memQueue) ackedCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.acked)
}

type countingProcessor struct {
	mu   sync.Mutex
	seen map[uuid.UUID]int
}

func (p *countingProcessor) Process(_ context.Context, id uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[id]++
	return nil
}

func TestPool_ProcessesAndAcks(t *testing.T) {
	q := &memQueue{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for i := 0; i < 5; i++ {
		_ = q.Enqueue(ctx, uuid.New(), service.PriorityNormal)
	}
	proc := &countingProcessor{seen: map[uuid.UUID]int{}}

	pool := NewPool(q, proc, PoolOptions{Workers: 3, ClaimDelay: 10 * time.Millisecond}, nil)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for q.ackedCount() < 5 {
		select {
		case <-deadline:
			t.Fatalf("expected 5 acks, got %d", q.ackedCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if len(proc.seen) != 5 {
		t.Errorf("expected 5 distinct jobs processed, got %d", len(proc.seen))
	}
	for id, n := range proc.seen {
		if n != 1 {
			t.Errorf("job %s processed %d times", id, n)
		}
	}
}

func TestPool_ReapOnce(t *testing.T) {
	q := &memQueue{stale: 2}
	pool := NewPool(q, &countingProcessor{}, PoolOptions{StaleAfter: time.Hour}, nil)

	n, err := pool.ReapOnce(context.Background())
	if err != nil {
		t.Fatalf("ReapOnce returned error: %v", err)
	}
	if n != 2 || q.reapArg != time.Hour {
		t.Errorf("unexpected reap result n=%d olderThan=%s", n, q.reapArg)
	}
}

type runningProcessor struct {
	calls atomic.Int64
}

func (p *runningProcessor) Process(context.Context, uuid.UUID) error {
	p.calls.Add(1)
	return ErrJobRunning
}

func TestPool_RunningJobIsNotAcked(t *testing.T) {
	q := &memQueue{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_ = q.Enqueue(ctx, uuid.New(), service.PriorityHigh)
	proc := &runningProcessor{}

	pool := NewPool(q, proc, PoolOptions{Workers: 1, ClaimDelay: 10 * time.Millisecond}, nil)
	done := make(chan struct{})
	go func() {
		pool.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for proc.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("job was never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if n := q.ackedCount(); n != 0 {
		t.Fatalf("a job still running elsewhere must keep its claim, got %d acks", n)
	}
}
