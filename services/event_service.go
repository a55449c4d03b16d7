package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ticket-waitlist/models"
	"ticket-waitlist/status"
	"ticket-waitlist/store"
)

// EventService manages event records: creation, capacity edits, cancellation
// and deletion. Capacity edits and teardown must respect outstanding sales
// and cascade to the waitlist.
type EventService struct {
	store    *store.Store
	waitlist *WaitlistService
	notifier Notifier
	clock    Clock
	locks    *EventLocks
}

func NewEventService(st *store.Store, waitlist *WaitlistService, notifier Notifier, clock Clock, locks *EventLocks) *EventService {
	return &EventService{
		store:    st,
		waitlist: waitlist,
		notifier: notifier,
		clock:    clock,
		locks:    locks,
	}
}

type CreateEventInput struct {
	Name        string
	Description string
	Location    string
	EventDate   time.Time
	Price       decimal.Decimal
	Capacity    int
	UserID      string
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*models.Event, error) {
	if in.Capacity < 1 {
		return nil, status.ErrInvalidCapacity
	}
	if in.Price.IsNegative() {
		return nil, status.ErrInvalidPrice
	}

	event := &models.Event{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Location:    in.Location,
		EventDate:   in.EventDate,
		Price:       in.Price,
		Capacity:    in.Capacity,
		UserID:      in.UserID,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, status.ErrEventNotFound
	}
	return event, nil
}

// ListEvents returns all non-cancelled events.
func (s *EventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx)
}

// UpdateCapacity changes the event's capacity. Lowering it below the sold
// ticket count fails and leaves the capacity unchanged; raising it frees
// inventory, which is offered to the queue immediately.
func (s *EventService) UpdateCapacity(ctx context.Context, eventID string, newCapacity int) error {
	if newCapacity < 1 {
		return status.ErrInvalidCapacity
	}

	unlock := s.locks.Lock(eventID)
	defer unlock()

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return status.ErrEventNotFound
	}

	sold, err := s.store.CountSoldTickets(ctx, eventID)
	if err != nil {
		return err
	}
	if newCapacity < sold {
		return status.ErrCapacityBelowSold
	}

	if err := s.store.SetEventCapacity(ctx, eventID, newCapacity); err != nil {
		return err
	}
	if newCapacity > event.Capacity {
		return s.waitlist.processQueueLocked(ctx, eventID)
	}
	return nil
}

// CancelEvent marks the event cancelled and removes its waitlist. Tickets
// must be refunded or cancelled first; the flag is monotonic, so cancelling
// an already-cancelled event is a no-op.
func (s *EventService) CancelEvent(ctx context.Context, eventID string) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return status.ErrEventNotFound
	}
	if event.Cancelled {
		return nil
	}

	sold, err := s.store.CountSoldTickets(ctx, eventID)
	if err != nil {
		return err
	}
	if sold > 0 {
		return status.ErrActiveTicketsExist
	}

	queued, err := s.store.ActiveEntries(ctx, eventID)
	if err != nil {
		return err
	}

	err = s.store.WithTx(func(tx *store.Store) error {
		if err := tx.MarkEventCancelled(ctx, eventID); err != nil {
			return err
		}
		return tx.DeleteEntriesForEvent(ctx, eventID)
	})
	if err != nil {
		return err
	}

	for i := range queued {
		s.notifier.NotifyUser(ctx, queued[i].UserID, map[string]any{
			"type":     "event_cancelled",
			"event_id": eventID,
		})
	}
	return nil
}

// DeleteEvent removes the event with all its tickets and waitlist entries.
// Irreversible; refuses while valid tickets exist.
func (s *EventService) DeleteEvent(ctx context.Context, eventID string) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return status.ErrEventNotFound
	}

	valid, err := s.store.CountValidTickets(ctx, eventID)
	if err != nil {
		return err
	}
	if valid > 0 {
		return status.ErrSoldTicketsExist
	}

	return s.store.WithTx(func(tx *store.Store) error {
		if err := tx.DeleteTicketsForEvent(ctx, eventID); err != nil {
			return err
		}
		if err := tx.DeleteEntriesForEvent(ctx, eventID); err != nil {
			return err
		}
		return tx.DeleteEvent(ctx, eventID)
	})
}
