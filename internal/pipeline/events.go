package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const EventVacancyPublished = "vacancy.published"

// Event is the payload sent on the events channel.
type Event struct {
	Type        string    `json:"type"`
	VacancyID   uuid.UUID `json:"vacancy_id"`
	RawRecordID uuid.UUID `json:"raw_record_id"`
	At          time.Time `json:"at"`
}

// RedisEvents publishes pipeline events over redis pub/sub.
type RedisEvents struct {
	rdb     *redis.Client
	channel string
}

func NewRedisEvents(rdb *redis.Client, prefix string) *RedisEvents {
	return &RedisEvents{rdb: rdb, channel: prefix + ":events"}
}

func (e *RedisEvents) Channel() string { return e.channel }

func (e *RedisEvents) VacancyPublished(ctx context.Context, vacancyID, rawID uuid.UUID) error {
	data, err := json.Marshal(Event{
		Type:        EventVacancyPublished,
		VacancyID:   vacancyID,
		RawRecordID: rawID,
		At:          time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := e.rdb.Publish(ctx, e.channel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe calls fn for every event until ctx is done.
func (e *RedisEvents) Subscribe(ctx context.Context, fn func(Event)) error {
	sub := e.rdb.Subscribe(ctx, e.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", e.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				continue
			}
			fn(ev)
		}
	}
}
