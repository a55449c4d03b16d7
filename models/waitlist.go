package models

import (
	"time"
)

// Waiting list entry statuses. An entry is "active" while it is not expired;
// at most one active entry may exist per (event, user) pair.
const (
	EntryStatusWaiting   = "waiting"
	EntryStatusOffered   = "offered"
	EntryStatusExpired   = "expired"
	EntryStatusPurchased = "purchased"
)

type WaitingListEntry struct {
	ID             string     `json:"id"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	Status         string     `json:"status"` // waiting, offered, expired, purchased
	OfferExpiresAt *time.Time `json:"offer_expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Active reports whether the entry still occupies a queue slot or a sale.
func (e *WaitingListEntry) Active() bool {
	return e.Status != EntryStatusExpired
}

// HasLiveOffer reports whether the entry holds an offer whose deadline has not
// passed at the given instant. Status alone is not trusted: an offered entry
// whose deadline elapsed no longer reserves inventory even before its
// expiration callback runs.
func (e *WaitingListEntry) HasLiveOffer(now time.Time) bool {
	return e.Status == EntryStatusOffered &&
		e.OfferExpiresAt != nil &&
		e.OfferExpiresAt.After(now)
}

// QueuePosition is a waiting list entry together with its 1-based rank among
// the event's still-active entries, ordered by arrival.
type QueuePosition struct {
	Entry    WaitingListEntry `json:"entry"`
	Position int              `json:"position"`
}
