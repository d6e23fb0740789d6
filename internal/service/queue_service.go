package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Priority selects the queue lane of a pipeline job.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
)

// ErrQueueEmpty is returned by Claim when no job arrived within the timeout.
var ErrQueueEmpty = errors.New("queue empty")

type Queue interface {
	Enqueue(ctx context.Context, jobID uuid.UUID, priority Priority) error
	Claim(ctx context.Context, timeout time.Duration) (uuid.UUID, error)
	Ack(ctx context.Context, jobID uuid.UUID) error
	RequeueStale(ctx context.Context, olderThan time.Duration, max int64) (int64, error)
}

type lane struct {
	queueKey      string
	processingKey string
}

// RedisQueue is a reliable priority queue on redis lists. A claim moves the
// id from a lane's queue to its processing list and records the claim time;
// Ack drops it. Claims that are never acked go back to their queue once
// they are older than the reaper's threshold, so delivery is at least once.
type RedisQueue struct {
	rdb       *redis.Client
	lanes     [3]lane
	laneOfKey string
	claimsKey string
	slot      time.Duration
}

func NewRedisQueue(rdb *redis.Client, prefix string) *RedisQueue {
	q := &RedisQueue{
		rdb:       rdb,
		laneOfKey: prefix + ":jobs:lane",
		claimsKey: prefix + ":jobs:claims",
		slot:      time.Second,
	}
	for p, name := range []string{"low", "normal", "high"} {
		q.lanes[p] = lane{
			queueKey:      prefix + ":jobs:queue:" + name,
			processingKey: prefix + ":jobs:processing:" + name,
		}
	}
	return q
}

func clampPriority(p Priority) Priority {
	if p < PriorityLow {
		return PriorityLow
	}
	if p > PriorityHigh {
		return PriorityHigh
	}
	return p
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobID uuid.UUID, priority Priority) error {
	ln := q.lanes[clampPriority(priority)]
	if err := q.rdb.LPush(ctx, ln.queueKey, jobID.String()).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Claim polls the lanes high to low in short blocking slots until a job
// arrives or timeout passes. timeout <= 0 waits until ctx is done.
func (q *RedisQueue) Claim(ctx context.Context, timeout time.Duration) (uuid.UUID, error) {
	forever := timeout <= 0
	deadline := time.Now().Add(timeout)

	for {
		for p := PriorityHigh; p >= PriorityLow; p-- {
			if err := ctx.Err(); err != nil {
				return uuid.Nil, err
			}
			wait := q.slot
			if !forever {
				remain := time.Until(deadline)
				if remain <= 0 {
					return uuid.Nil, ErrQueueEmpty
				}
				wait = min(wait, remain)
			}

			ln := q.lanes[p]
			raw, err := q.rdb.BLMove(ctx, ln.queueKey, ln.processingKey, "RIGHT", "LEFT", wait).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return uuid.Nil, fmt.Errorf("claim job: %w", err)
			}

			_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, q.laneOfKey, raw, strconv.Itoa(int(p)))
				pipe.ZAdd(ctx, q.claimsKey, redis.Z{Score: float64(time.Now().Unix()), Member: raw})
				return nil
			})
			if err != nil {
				return uuid.Nil, fmt.Errorf("record claim: %w", err)
			}

			id, perr := uuid.Parse(raw)
			if perr != nil {
				_ = q.ack(ctx, raw)
				return uuid.Nil, fmt.Errorf("bad job id %q in queue: %w", raw, perr)
			}
			return id, nil
		}
	}
}

func (q *RedisQueue) Ack(ctx context.Context, jobID uuid.UUID) error {
	return q.ack(ctx, jobID.String())
}

func (q *RedisQueue) ack(ctx context.Context, raw string) error {
	ln, ok, err := q.laneOf(ctx, raw)
	if err != nil {
		return err
	}
	_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if ok {
			pipe.LRem(ctx, ln.processingKey, 1, raw)
		} else {
			for _, l := range q.lanes {
				pipe.LRem(ctx, l.processingKey, 1, raw)
			}
		}
		pipe.HDel(ctx, q.laneOfKey, raw)
		pipe.ZRem(ctx, q.claimsKey, raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack job: %w", err)
	}
	return nil
}

func (q *RedisQueue) laneOf(ctx context.Context, raw string) (lane, bool, error) {
	v, err := q.rdb.HGet(ctx, q.laneOfKey, raw).Result()
	if errors.Is(err, redis.Nil) {
		return lane{}, false, nil
	}
	if err != nil {
		return lane{}, false, fmt.Errorf("lookup job lane: %w", err)
	}
	p, err := strconv.Atoi(v)
	if err != nil {
		return lane{}, false, nil
	}
	return q.lanes[clampPriority(Priority(p))], true, nil
}

// RequeueStale returns claims older than olderThan to the front of their
// lane. It moves at most max jobs per call.
func (q *RedisQueue) RequeueStale(ctx context.Context, olderThan time.Duration, max int64) (int64, error) {
	cutoff := time.Now().Add(-olderThan).Unix()
	stale, err := q.rdb.ZRangeByScore(ctx, q.claimsKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(cutoff, 10),
		Count: max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list stale claims: %w", err)
	}

	var moved int64
	for _, raw := range stale {
		ln, ok, err := q.laneOf(ctx, raw)
		if err != nil {
			return moved, err
		}
		if !ok {
			ln = q.lanes[PriorityNormal]
		}

		removed, err := q.rdb.LRem(ctx, ln.processingKey, 1, raw).Result()
		if err != nil {
			return moved, fmt.Errorf("release stale claim: %w", err)
		}
		_, err = q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if removed > 0 {
				pipe.RPush(ctx, ln.queueKey, raw)
			}
			pipe.HDel(ctx, q.laneOfKey, raw)
			pipe.ZRem(ctx, q.claimsKey, raw)
			return nil
		})
		if err != nil {
			return moved, fmt.Errorf("requeue stale claim: %w", err)
		}
		if removed > 0 {
			moved++
		}
	}
	return moved, nil
}
