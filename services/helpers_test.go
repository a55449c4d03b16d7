package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"ticket-waitlist/models"
	"ticket-waitlist/store"
)

type scheduledExpiry struct {
	EntryID string
	EventID string
	TTL     time.Duration
}

// fakeScheduler records armed timers instead of enqueueing real tasks. Tests
// drive expiry explicitly through ExpireOffer.
type fakeScheduler struct {
	mu    sync.Mutex
	err   error
	calls []scheduledExpiry
}

func (f *fakeScheduler) ScheduleOfferExpiry(_ context.Context, entryID, eventID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, scheduledExpiry{EntryID: entryID, EventID: eventID, TTL: ttl})
	return nil
}

func (f *fakeScheduler) scheduled() []scheduledExpiry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]scheduledExpiry(nil), f.calls...)
}

type notification struct {
	UserID  string
	Message map[string]any
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) NotifyUser(_ context.Context, userID string, message map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{UserID: userID, Message: message})
}

func (n *recordingNotifier) ofType(msgType string) []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notification
	for _, m := range n.sent {
		if m.Message["type"] == msgType {
			out = append(out, m)
		}
	}
	return out
}

const testOfferTTL = 30 * time.Minute

type fixture struct {
	store    *store.Store
	clock    *FixedClock
	sched    *fakeScheduler
	notifier *recordingNotifier
	waitlist *WaitlistService
	tickets  *TicketService
	events   *EventService
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	clock := NewFixedClock(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	sched := &fakeScheduler{}
	notifier := &recordingNotifier{}
	locks := NewEventLocks()

	waitlist := NewWaitlistService(st, sched, notifier, clock, locks, testOfferTTL)
	return &fixture{
		store:    st,
		clock:    clock,
		sched:    sched,
		notifier: notifier,
		waitlist: waitlist,
		tickets:  NewTicketService(st, waitlist, notifier, clock, locks, testOfferTTL),
		events:   NewEventService(st, waitlist, notifier, clock, locks),
	}
}

func (f *fixture) createEvent(t *testing.T, capacity int) *models.Event {
	t.Helper()
	event, err := f.events.CreateEvent(context.Background(), CreateEventInput{
		Name:      "Test Concert",
		Location:  "Main Hall",
		EventDate: f.clock.Now().Add(30 * 24 * time.Hour),
		Price:     decimal.NewFromInt(50),
		Capacity:  capacity,
		UserID:    "organizer-1",
	})
	require.NoError(t, err)
	return event
}

// join advances the clock first so entries never tie on arrival time.
func (f *fixture) join(t *testing.T, eventID, userID string) *models.WaitingListEntry {
	t.Helper()
	f.clock.Advance(time.Second)
	result, err := f.waitlist.Join(context.Background(), eventID, userID)
	require.NoError(t, err)
	return result.Entry
}

func (f *fixture) purchase(t *testing.T, eventID, userID, entryID string) string {
	t.Helper()
	ticketID, err := f.tickets.Purchase(context.Background(), PurchaseInput{
		EventID:          eventID,
		UserID:           userID,
		EntryID:          entryID,
		PaymentReference: "pay_" + entryID,
		Amount:           decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	return ticketID
}

func (f *fixture) entry(t *testing.T, entryID string) *models.WaitingListEntry {
	t.Helper()
	entry, err := f.store.GetEntry(context.Background(), entryID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}
