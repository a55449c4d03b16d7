package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ticket-waitlist/models"
	"ticket-waitlist/monitoring"
	"ticket-waitlist/status"
	"ticket-waitlist/store"
)

// WaitlistService owns the FIFO waitlist and the offer lifecycle: joining,
// queue position, availability accounting, promotion of waiting entries into
// time-boxed offers, and offer expiry/release.
type WaitlistService struct {
	store     *store.Store
	scheduler OfferScheduler
	notifier  Notifier
	clock     Clock
	locks     *EventLocks
	offerTTL  time.Duration
}

func NewWaitlistService(st *store.Store, scheduler OfferScheduler, notifier Notifier, clock Clock, locks *EventLocks, offerTTL time.Duration) *WaitlistService {
	return &WaitlistService{
		store:     st,
		scheduler: scheduler,
		notifier:  notifier,
		clock:     clock,
		locks:     locks,
		offerTTL:  offerTTL,
	}
}

type JoinResult struct {
	Entry   *models.WaitingListEntry `json:"entry"`
	Status  string                   `json:"status"`
	Message string                   `json:"message"`
}

// Join adds the user to the event's waitlist. When a spot is free the entry
// is created directly in the offered state with its expiration timer armed;
// otherwise it waits its turn.
func (s *WaitlistService) Join(ctx context.Context, eventID, userID string) (*JoinResult, error) {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	existing, err := s.store.ActiveEntryForUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, status.ErrAlreadyQueued
	}

	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, status.ErrEventNotFound
	}
	if event.Cancelled {
		return nil, status.ErrEventCancelled
	}

	avail, err := s.availability(ctx, event)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	entry := &models.WaitingListEntry{
		ID:        uuid.New().String(),
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: now,
	}

	if avail.Remaining > 0 {
		expiresAt := now.Add(s.offerTTL)
		entry.Status = models.EntryStatusOffered
		entry.OfferExpiresAt = &expiresAt
	} else {
		entry.Status = models.EntryStatusWaiting
	}

	if err := s.store.CreateEntry(ctx, entry); err != nil {
		return nil, err
	}

	result := &JoinResult{Entry: entry, Status: entry.Status}
	if entry.Status == models.EntryStatusOffered {
		s.armOfferTimer(ctx, entry)
		monitoring.TrackOfferIssued(eventID, "join")
		s.notifier.NotifyUser(ctx, userID, map[string]any{
			"type":             "offer_issued",
			"event_id":         eventID,
			"entry_id":         entry.ID,
			"offer_expires_at": entry.OfferExpiresAt,
		})
		result.Message = fmt.Sprintf("Ticket offered - you have %s to purchase", s.offerTTL)
	} else {
		result.Message = "Added to waiting list - you'll be notified when a ticket becomes available"
	}
	monitoring.TrackJoin(eventID, entry.Status)
	s.trackWaitingDepth(ctx, eventID)

	return result, nil
}

// QueuePosition returns the user's active entry and 1-based rank, or nil when
// the user has no active entry. Both waiting and offered entries ahead count
// toward the rank: each occupies an ordering slot even though only waiting
// entries are eligible for the next promotion.
func (s *WaitlistService) QueuePosition(ctx context.Context, eventID, userID string) (*models.QueuePosition, error) {
	entry, err := s.store.ActiveEntryForUser(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}

	ahead, err := s.store.CountEntriesAhead(ctx, eventID, entry.CreatedAt, entry.ID)
	if err != nil {
		return nil, err
	}
	return &models.QueuePosition{Entry: *entry, Position: ahead + 1}, nil
}

// Availability reports the event's live inventory: sold tickets, live offers
// and remaining spots. Computed fresh on every call.
func (s *WaitlistService) Availability(ctx context.Context, eventID string) (*models.Availability, error) {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, status.ErrEventNotFound
	}
	return s.availability(ctx, event)
}

func (s *WaitlistService) availability(ctx context.Context, event *models.Event) (*models.Availability, error) {
	sold, err := s.store.CountSoldTickets(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	liveOffers, err := s.store.CountLiveOffers(ctx, event.ID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	reserved := sold + liveOffers
	remaining := event.Capacity - reserved
	if remaining < 0 {
		remaining = 0
	}
	return &models.Availability{
		Capacity:   event.Capacity,
		Sold:       sold,
		LiveOffers: liveOffers,
		Remaining:  remaining,
		IsSoldOut:  reserved >= event.Capacity,
	}, nil
}

// ProcessQueue offers freed inventory to the next waiting entries, in arrival
// order. Safe to call at any time: it recomputes remaining capacity under the
// event lock, so concurrent invocations can never jointly over-promote.
func (s *WaitlistService) ProcessQueue(ctx context.Context, eventID string) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()
	return s.processQueueLocked(ctx, eventID)
}

// processQueueLocked is ProcessQueue for callers already holding the event
// lock.
func (s *WaitlistService) processQueueLocked(ctx context.Context, eventID string) error {
	event, err := s.store.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return status.ErrEventNotFound
	}
	if event.Cancelled {
		// No further offers are ever issued for a cancelled event.
		return nil
	}

	avail, err := s.availability(ctx, event)
	if err != nil {
		return err
	}
	if avail.Remaining <= 0 {
		return nil
	}

	waiting, err := s.store.WaitingEntries(ctx, eventID, avail.Remaining)
	if err != nil {
		return err
	}
	if len(waiting) == 0 {
		return nil
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.offerTTL)

	// Promote as one unit so a partial batch is never visible.
	var promoted []models.WaitingListEntry
	err = s.store.WithTx(func(tx *store.Store) error {
		promoted = promoted[:0]
		for i := range waiting {
			ok, err := tx.TransitionEntry(ctx, waiting[i].ID, models.EntryStatusWaiting, models.EntryStatusOffered, &expiresAt)
			if err != nil {
				return err
			}
			if ok {
				entry := waiting[i]
				entry.Status = models.EntryStatusOffered
				entry.OfferExpiresAt = &expiresAt
				promoted = append(promoted, entry)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for i := range promoted {
		s.armOfferTimer(ctx, &promoted[i])
		monitoring.TrackOfferIssued(eventID, "promotion")
		s.notifier.NotifyUser(ctx, promoted[i].UserID, map[string]any{
			"type":             "offer_issued",
			"event_id":         eventID,
			"entry_id":         promoted[i].ID,
			"offer_expires_at": promoted[i].OfferExpiresAt,
		})
	}
	s.trackWaitingDepth(ctx, eventID)

	return nil
}

// ExpireOffer is the scheduled expiration callback. It is idempotent and
// tolerates late or duplicate delivery: it acts only when the entry is still
// offered and its deadline has actually passed. An offered entry with a
// deadline still in the future was re-offered since this timer was armed and
// is left alone.
func (s *WaitlistService) ExpireOffer(ctx context.Context, entryID, eventID string) error {
	unlock := s.locks.Lock(eventID)
	defer unlock()

	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil || entry.Status != models.EntryStatusOffered {
		return nil
	}
	if entry.HasLiveOffer(s.clock.Now()) {
		return nil
	}

	changed, err := s.store.TransitionEntry(ctx, entryID, models.EntryStatusOffered, models.EntryStatusExpired, nil)
	if err != nil {
		return err
	}
	if changed {
		monitoring.TrackOfferExpired(eventID)
		s.notifier.NotifyUser(ctx, entry.UserID, map[string]any{
			"type":     "offer_expired",
			"event_id": eventID,
			"entry_id": entryID,
		})
	}

	return s.processQueueLocked(ctx, eventID)
}

// ExpireStaleOffers expires any offered entry, across all events, whose
// deadline has passed. It backstops delayed-task delivery: if a scheduled
// expiration was lost, the sweep catches the entry on its next run.
func (s *WaitlistService) ExpireStaleOffers(ctx context.Context) error {
	stale, err := s.store.StaleOffers(ctx, s.clock.Now(), 100)
	if err != nil {
		return err
	}
	for i := range stale {
		if err := s.ExpireOffer(ctx, stale[i].ID, stale[i].EventID); err != nil {
			slog.Error("sweep: expiring stale offer failed",
				"entry_id", stale[i].ID,
				"event_id", stale[i].EventID,
				"error", err,
			)
		}
	}
	return nil
}

// ReleaseOffer hands an offered spot back voluntarily. The entry re-enters
// the queue at its original arrival position (createdAt is preserved), and
// the freed spot is offered to the front of the queue - which may be the
// releasing entry itself if nobody is ahead of it.
func (s *WaitlistService) ReleaseOffer(ctx context.Context, entryID, userID string) error {
	entry, err := s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return status.ErrEntryNotFound
	}

	unlock := s.locks.Lock(entry.EventID)
	defer unlock()

	// Re-read now that the event is locked; the offer may have been
	// purchased or expired while we waited.
	entry, err = s.store.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return status.ErrEntryNotFound
	}
	if userID != "" && entry.UserID != userID {
		return status.ErrOwnershipMismatch
	}
	if entry.Status != models.EntryStatusOffered {
		return status.ErrNotOffered
	}

	changed, err := s.store.TransitionEntry(ctx, entryID, models.EntryStatusOffered, models.EntryStatusWaiting, nil)
	if err != nil {
		return err
	}
	if !changed {
		return status.ErrNotOffered
	}
	monitoring.TrackOfferReleased(entry.EventID)

	return s.processQueueLocked(ctx, entry.EventID)
}

func (s *WaitlistService) armOfferTimer(ctx context.Context, entry *models.WaitingListEntry) {
	if err := s.scheduler.ScheduleOfferExpiry(ctx, entry.ID, entry.EventID, s.offerTTL); err != nil {
		// The sweep task will expire the offer if the timer never fires.
		slog.Error("scheduling offer expiry failed",
			"entry_id", entry.ID,
			"event_id", entry.EventID,
			"error", err,
		)
	}
}

func (s *WaitlistService) trackWaitingDepth(ctx context.Context, eventID string) {
	depth, err := s.store.CountWaitingEntries(ctx, eventID)
	if err != nil {
		return
	}
	monitoring.SetWaitingDepth(eventID, depth)
}
