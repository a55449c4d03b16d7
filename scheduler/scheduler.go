// Package scheduler is the durable delayed-task collaborator. Offer
// expirations are enqueued as redis-backed asynq tasks, so an armed timer
// fires even across process restarts; delivery is at-least-once, which the
// engine's expiration handler is designed for.
package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeOfferExpire = "offer:expire"
	TypeOfferSweep  = "offer:sweep"
)

// QueueOffers carries time-critical offer expirations; it is weighted above
// the default queue in the worker.
const QueueOffers = "offers"

type OfferExpirePayload struct {
	EntryID string `json:"entry_id"`
	EventID string `json:"event_id"`
}

type AsynqScheduler struct {
	client *asynq.Client
}

func NewAsynqScheduler(redisOpt asynq.RedisClientOpt) *AsynqScheduler {
	return &AsynqScheduler{client: asynq.NewClient(redisOpt)}
}

// ScheduleOfferExpiry arms the expiration timer for an offer: a task that the
// worker processes ttl from now.
func (s *AsynqScheduler) ScheduleOfferExpiry(ctx context.Context, entryID, eventID string, ttl time.Duration) error {
	payload, err := json.Marshal(OfferExpirePayload{EntryID: entryID, EventID: eventID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeOfferExpire, payload)
	_, err = s.client.EnqueueContext(ctx, task,
		asynq.ProcessIn(ttl),
		asynq.Queue(QueueOffers),
		asynq.MaxRetry(5),
	)
	return err
}

func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}
