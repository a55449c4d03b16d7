package status

import "errors"

// Conflict errors: the caller raced with other activity on the same event and
// should re-query state. Never retried by the engine.
var (
	ErrAlreadyQueued         = errors.New("waitlist: already on the waiting list for this event")
	ErrNotOffered            = errors.New("waitlist: entry does not hold an active offer")
	ErrOwnershipMismatch     = errors.New("waitlist: entry belongs to a different user")
	ErrOfferNotActive        = errors.New("purchase: offer is no longer active")
	ErrOfferExpired          = errors.New("purchase: offer has expired")
	ErrTicketNotTransferable = errors.New("ticket: ticket is not in a transferable state")
)

// Precondition errors: business-rule violations surfaced verbatim.
var (
	ErrEventCancelled     = errors.New("event: event is cancelled")
	ErrCapacityBelowSold  = errors.New("event: capacity cannot drop below sold ticket count")
	ErrActiveTicketsExist = errors.New("event: active tickets exist")
	ErrSoldTicketsExist   = errors.New("event: sold tickets exist")
	ErrInvalidCapacity    = errors.New("event: capacity must be at least 1")
	ErrInvalidPrice       = errors.New("event: price cannot be negative")
)

// NotFound errors: stale references.
var (
	ErrEntryNotFound  = errors.New("waitlist: entry not found")
	ErrEventNotFound  = errors.New("event: event not found")
	ErrTicketNotFound = errors.New("ticket: ticket not found")
)
