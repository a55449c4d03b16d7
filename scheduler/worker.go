package scheduler

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// WaitlistEngine is the part of the engine the worker drives.
type WaitlistEngine interface {
	ExpireOffer(ctx context.Context, entryID, eventID string) error
	ExpireStaleOffers(ctx context.Context) error
}

// NewServeMux routes worker tasks to the engine.
func NewServeMux(engine WaitlistEngine) *asynq.ServeMux {
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeOfferExpire, func(ctx context.Context, t *asynq.Task) error {
		var payload OfferExpirePayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return err
		}
		return engine.ExpireOffer(ctx, payload.EntryID, payload.EventID)
	})

	mux.HandleFunc(TypeOfferSweep, func(ctx context.Context, t *asynq.Task) error {
		return engine.ExpireStaleOffers(ctx)
	})

	return mux
}

// RunWorker starts the asynq server plus the minutely sweep schedule and
// blocks until the server stops.
func RunWorker(redisOpt asynq.RedisClientOpt, engine WaitlistEngine, concurrency int) error {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueOffers: 6,
				"default":   3,
				"low":       1,
			},
		},
	)

	sched := asynq.NewScheduler(redisOpt, nil)
	if _, err := sched.Register("*/1 * * * *", asynq.NewTask(TypeOfferSweep, nil)); err != nil {
		return err
	}
	go func() {
		if err := sched.Run(); err != nil {
			log.Fatal("Scheduler failed to start:", err)
		}
	}()

	return srv.Run(NewServeMux(engine))
}
