package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticket-waitlist/models"
	"ticket-waitlist/monitoring"
	"ticket-waitlist/status"
	"ticket-waitlist/store"
)

// TicketService converts accepted offers into sold tickets and manages
// post-sale ticket state.
type TicketService struct {
	store    *store.Store
	waitlist *WaitlistService
	notifier Notifier
	clock    Clock
	locks    *EventLocks
	offerTTL time.Duration
}

func NewTicketService(st *store.Store, waitlist *WaitlistService, notifier Notifier, clock Clock, locks *EventLocks, offerTTL time.Duration) *TicketService {
	return &TicketService{
		store:    st,
		waitlist: waitlist,
		notifier: notifier,
		clock:    clock,
		locks:    locks,
		offerTTL: offerTTL,
	}
}

type PurchaseInput struct {
	EventID          string
	UserID           string
	EntryID          string
	PaymentReference string
	Amount           decimal.Decimal
}

// Purchase atomically converts the caller's offered entry into a sold ticket.
// The payment reference is an opaque confirmation token from a trusted
// caller; no gateway interaction happens here. The ticket creation and the
// entry's flip to purchased commit as one transaction, and no queue
// reprocessing follows: the spot was already accounted for while offered.
func (s *TicketService) Purchase(ctx context.Context, in PurchaseInput) (string, error) {
	unlock := s.locks.Lock(in.EventID)
	defer unlock()

	entry, err := s.store.GetEntry(ctx, in.EntryID)
	if err != nil {
		return "", err
	}
	if entry == nil || entry.EventID != in.EventID {
		return "", status.ErrEntryNotFound
	}
	if entry.Status != models.EntryStatusOffered {
		return "", status.ErrOfferNotActive
	}
	if entry.UserID != in.UserID {
		return "", status.ErrOwnershipMismatch
	}

	now := s.clock.Now()
	if !entry.HasLiveOffer(now) {
		// The timer should have expired this already; recheck anyway so a
		// purchase can never ride a dead offer.
		return "", status.ErrOfferExpired
	}

	event, err := s.store.GetEvent(ctx, in.EventID)
	if err != nil {
		return "", err
	}
	if event == nil {
		return "", status.ErrEventNotFound
	}
	if event.Cancelled {
		return "", status.ErrEventCancelled
	}

	ticket := &models.Ticket{
		ID:               uuid.New().String(),
		EventID:          in.EventID,
		UserID:           in.UserID,
		Status:           models.TicketStatusValid,
		PurchasedAt:      now,
		PaymentReference: in.PaymentReference,
		Amount:           in.Amount,
	}

	err = s.store.WithTx(func(tx *store.Store) error {
		if err := tx.CreateTicket(ctx, ticket); err != nil {
			return err
		}
		changed, err := tx.TransitionEntry(ctx, entry.ID, models.EntryStatusOffered, models.EntryStatusPurchased, nil)
		if err != nil {
			return err
		}
		if !changed {
			return status.ErrOfferNotActive
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	heldFor := s.offerTTL - entry.OfferExpiresAt.Sub(now)
	monitoring.TrackPurchase(in.EventID, heldFor)
	s.notifier.NotifyUser(ctx, in.UserID, map[string]any{
		"type":      "purchase_confirmed",
		"event_id":  in.EventID,
		"ticket_id": ticket.ID,
	})

	return ticket.ID, nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*models.Ticket, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, status.ErrTicketNotFound
	}
	return ticket, nil
}

// GetUserTicketForEvent returns the user's ticket for the event, or nil when
// the user holds none.
func (s *TicketService) GetUserTicketForEvent(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	return s.store.UserTicketForEvent(ctx, eventID, userID)
}

// UseTicket marks a valid ticket as used (check-in / scan). A used ticket
// still counts against capacity.
func (s *TicketService) UseTicket(ctx context.Context, ticketID string) error {
	return s.transition(ctx, ticketID, models.TicketStatusUsed, false)
}

// RefundTicket marks a valid ticket as refunded, freeing its inventory for
// the next waiting party.
func (s *TicketService) RefundTicket(ctx context.Context, ticketID string) error {
	return s.transition(ctx, ticketID, models.TicketStatusRefunded, true)
}

// CancelTicket marks a valid ticket as cancelled, freeing its inventory for
// the next waiting party.
func (s *TicketService) CancelTicket(ctx context.Context, ticketID string) error {
	return s.transition(ctx, ticketID, models.TicketStatusCancelled, true)
}

// Only valid tickets may move; used, refunded and cancelled are terminal.
func (s *TicketService) transition(ctx context.Context, ticketID, to string, freesSpot bool) error {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if ticket == nil {
		return status.ErrTicketNotFound
	}

	unlock := s.locks.Lock(ticket.EventID)
	defer unlock()

	changed, err := s.store.TransitionTicket(ctx, ticketID, models.TicketStatusValid, to)
	if err != nil {
		return err
	}
	if !changed {
		return status.ErrTicketNotTransferable
	}
	if freesSpot {
		return s.waitlist.processQueueLocked(ctx, ticket.EventID)
	}
	return nil
}
