package services

import (
	"context"
	"time"
)

// Notifier delivers user-facing queue updates (offer issued, offer expired,
// purchase confirmed). Delivery is best effort: the engine never fails an
// operation because a notification could not be published.
type Notifier interface {
	NotifyUser(ctx context.Context, userID string, message map[string]any)
}

type noopNotifier struct{}

func (noopNotifier) NotifyUser(context.Context, string, map[string]any) {}

// NopNotifier is used when no notification transport is configured.
func NopNotifier() Notifier {
	return noopNotifier{}
}

// OfferScheduler arms the durable expiration timer for an offer. The timer
// must survive process restarts; at-least-once delivery is fine because
// offer expiry re-checks entry state before acting.
type OfferScheduler interface {
	ScheduleOfferExpiry(ctx context.Context, entryID, eventID string, ttl time.Duration) error
}
