package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisQueue(rdb, "test"), mr
}

func listOf(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	if !mr.Exists(key) {
		return nil
	}
	items, err := mr.List(key)
	if err != nil {
		t.Fatalf("read list %s: %v", key, err)
	}
	return items
}

func isClaimed(t *testing.T, mr *miniredis.Miniredis, q *RedisQueue, id uuid.UUID) bool {
	t.Helper()
	if !mr.Exists(q.claimsKey) {
		return false
	}
	members, err := mr.ZMembers(q.claimsKey)
	if err != nil {
		t.Fatalf("read claims: %v", err)
	}
	for _, m := range members {
		if m == id.String() {
			return true
		}
	}
	return false
}

func TestNewRedisQueue_LaneKeys(t *testing.T) {
	q := NewRedisQueue(nil, "pipeline")

	if got := q.lanes[PriorityHigh].queueKey; got != "pipeline:jobs:queue:high" {
		t.Errorf("high queue key = %q", got)
	}
	if got := q.lanes[PriorityLow].processingKey; got != "pipeline:jobs:processing:low" {
		t.Errorf("low processing key = %q", got)
	}
	seen := map[string]bool{}
	for _, ln := range q.lanes {
		for _, k := range []string{ln.queueKey, ln.processingKey} {
			if seen[k] {
				t.Fatalf("duplicate key %q", k)
			}
			seen[k] = true
		}
	}
}

func TestClampPriority(t *testing.T) {
	cases := map[Priority]Priority{
		-3:             PriorityLow,
		PriorityLow:    PriorityLow,
		PriorityNormal: PriorityNormal,
		PriorityHigh:   PriorityHigh,
		7:              PriorityHigh,
	}
	for in, want := range cases {
		if got := clampPriority(in); got != want {
			t.Errorf("clampPriority(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestRedisQueue_ClaimOrderHighNormalLow(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	low, normal, high := uuid.New(), uuid.New(), uuid.New()
	for id, p := range map[uuid.UUID]Priority{low: PriorityLow, normal: PriorityNormal, high: PriorityHigh} {
		if err := q.Enqueue(ctx, id, p); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	for _, want := range []uuid.UUID{high, normal, low} {
		got, err := q.Claim(ctx, 10*time.Second)
		if err != nil {
			t.Fatalf("Claim: %v", err)
		}
		if got != want {
			t.Fatalf("claimed %s, want %s", got, want)
		}
	}
}

func TestRedisQueue_AckReleasesClaim(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()
	id := uuid.New()
	if err := q.Enqueue(ctx, id, PriorityHigh); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := q.Claim(ctx, 5*time.Second)
	if err != nil || got != id {
		t.Fatalf("Claim = %s, %v", got, err)
	}
	processing := q.lanes[PriorityHigh].processingKey
	if items := listOf(t, mr, processing); len(items) != 1 || items[0] != id.String() {
		t.Fatalf("processing list = %v", items)
	}
	if !isClaimed(t, mr, q, id) {
		t.Fatal("claim time was not recorded")
	}

	if err := q.Ack(ctx, id); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if items := listOf(t, mr, processing); len(items) != 0 {
		t.Fatalf("processing list after ack = %v", items)
	}
	if isClaimed(t, mr, q, id) {
		t.Fatal("claim still recorded after ack")
	}
	if mr.Exists(q.laneOfKey) && mr.HGet(q.laneOfKey, id.String()) != "" {
		t.Fatal("lane entry still present after ack")
	}
}

func TestRedisQueue_StaleClaimReturnsToItsLane(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()
	id := uuid.New()
	if err := q.Enqueue(ctx, id, PriorityLow); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Claim(ctx, 5*time.Second); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	// Age the claim past the threshold.
	old := float64(time.Now().Add(-3 * time.Hour).Unix())
	if _, err := mr.ZAdd(q.claimsKey, old, id.String()); err != nil {
		t.Fatalf("age claim: %v", err)
	}

	n, err := q.RequeueStale(ctx, 2*time.Hour, 10)
	if err != nil {
		t.Fatalf("RequeueStale: %v", err)
	}
	if n != 1 {
		t.Fatalf("requeued %d, want 1", n)
	}

	low := q.lanes[PriorityLow]
	if items := listOf(t, mr, low.queueKey); len(items) != 1 || items[0] != id.String() {
		t.Fatalf("low queue = %v", items)
	}
	if items := listOf(t, mr, low.processingKey); len(items) != 0 {
		t.Fatalf("low processing list = %v", items)
	}
	for _, p := range []Priority{PriorityNormal, PriorityHigh} {
		if items := listOf(t, mr, q.lanes[p].queueKey); len(items) != 0 {
			t.Fatalf("job leaked into lane %d: %v", p, items)
		}
	}
	if isClaimed(t, mr, q, id) {
		t.Fatal("requeued job still counted as claimed")
	}

	got, err := q.Claim(ctx, 5*time.Second)
	if err != nil || got != id {
		t.Fatalf("reclaim = %s, %v", got, err)
	}
}

func TestRedisQueue_FreshClaimIsNotRequeued(t *testing.T) {
	q, mr := newTestQueue(t)
	ctx := context.Background()
	id := uuid.New()
	if err := q.Enqueue(ctx, id, PriorityHigh); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Claim(ctx, 5*time.Second); err != nil {
		t.Fatalf("Claim: %v", err)
	}

	n, err := q.RequeueStale(ctx, 2*time.Hour, 10)
	if err != nil {
		t.Fatalf("RequeueStale: %v", err)
	}
	if n != 0 {
		t.Fatalf("requeued %d fresh claims", n)
	}
	high := q.lanes[PriorityHigh]
	if items := listOf(t, mr, high.queueKey); len(items) != 0 {
		t.Fatalf("queue = %v, want empty", items)
	}
	if items := listOf(t, mr, high.processingKey); len(items) != 1 {
		t.Fatalf("processing list = %v, want the claimed job", items)
	}
	if !isClaimed(t, mr, q, id) {
		t.Fatal("fresh claim must stay recorded")
	}
}
