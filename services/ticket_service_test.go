package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ticket-waitlist/models"
	"ticket-waitlist/status"
)

func TestTicketService_Purchase_Success(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)

	ticket, err := f.tickets.GetTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusValid, ticket.Status)
	assert.Equal(t, "user-a", ticket.UserID)
	assert.Equal(t, "pay_"+a.ID, ticket.PaymentReference)

	// The entry is consumed, not recycled.
	assert.Equal(t, models.EntryStatusPurchased, f.entry(t, a.ID).Status)

	confirmed := f.notifier.ofType("purchase_confirmed")
	require.Len(t, confirmed, 1)
	assert.Equal(t, "user-a", confirmed[0].UserID)
}

func TestTicketService_Purchase_PreconditionOrder(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	other := f.createEvent(t, 1)
	ctx := context.Background()

	buy := func(eventID, userID, entryID string) error {
		_, err := f.tickets.Purchase(ctx, PurchaseInput{
			EventID:          eventID,
			UserID:           userID,
			EntryID:          entryID,
			PaymentReference: "pay_x",
			Amount:           decimal.NewFromInt(50),
		})
		return err
	}

	// Unknown entry, and an entry that belongs to a different event, both
	// read as not found.
	assert.ErrorIs(t, buy(event.ID, "user-a", "missing"), status.ErrEntryNotFound)
	stray := f.join(t, other.ID, "user-a")
	assert.ErrorIs(t, buy(event.ID, "user-a", stray.ID), status.ErrEntryNotFound)

	a := f.join(t, event.ID, "user-a")
	b := f.join(t, event.ID, "user-b") // waiting

	// A waiting entry has no offer to accept, even for its owner.
	assert.ErrorIs(t, buy(event.ID, "user-b", b.ID), status.ErrOfferNotActive)

	// An offered entry rejects any other buyer before checking the deadline.
	f.clock.Advance(testOfferTTL + time.Minute)
	assert.ErrorIs(t, buy(event.ID, "user-b", a.ID), status.ErrOwnershipMismatch)

	// The owner of a lapsed offer is told it expired.
	assert.ErrorIs(t, buy(event.ID, "user-a", a.ID), status.ErrOfferExpired)
}

func TestTicketService_Purchase_EventCancelled(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")

	// Flip the event directly: the service-level cancel also clears the
	// waitlist, which would hide the check under test.
	require.NoError(t, f.store.MarkEventCancelled(ctx, event.ID))

	_, err := f.tickets.Purchase(ctx, PurchaseInput{
		EventID:          event.ID,
		UserID:           "user-a",
		EntryID:          a.ID,
		PaymentReference: "pay_x",
		Amount:           decimal.NewFromInt(50),
	})
	assert.ErrorIs(t, err, status.ErrEventCancelled)
}

func TestTicketService_Purchase_DoubleAcceptFails(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	f.purchase(t, event.ID, "user-a", a.ID)

	_, err := f.tickets.Purchase(ctx, PurchaseInput{
		EventID:          event.ID,
		UserID:           "user-a",
		EntryID:          a.ID,
		PaymentReference: "pay_again",
		Amount:           decimal.NewFromInt(50),
	})
	assert.ErrorIs(t, err, status.ErrOfferNotActive)
}

func TestTicketService_GetTicket_NotFound(t *testing.T) {
	f := setupFixture(t)

	_, err := f.tickets.GetTicket(context.Background(), "missing")
	assert.ErrorIs(t, err, status.ErrTicketNotFound)
}

func TestTicketService_GetUserTicketForEvent(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	ticket, err := f.tickets.GetUserTicketForEvent(ctx, event.ID, "user-a")
	require.NoError(t, err)
	assert.Nil(t, ticket)

	a := f.join(t, event.ID, "user-a")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)

	ticket, err = f.tickets.GetUserTicketForEvent(ctx, event.ID, "user-a")
	require.NoError(t, err)
	require.NotNil(t, ticket)
	assert.Equal(t, ticketID, ticket.ID)
}

func TestTicketService_UseTicket_KeepsSpotOccupied(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	f.join(t, event.ID, "user-b")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)

	require.NoError(t, f.tickets.UseTicket(ctx, ticketID))

	// Checking in does not free inventory: user-b keeps waiting.
	posB, err := f.waitlist.QueuePosition(ctx, event.ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusWaiting, posB.Entry.Status)

	avail, err := f.waitlist.Availability(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, avail.Sold)
	assert.True(t, avail.IsSoldOut)
}

func TestTicketService_RefundTicket_BackfillsQueue(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	f.join(t, event.ID, "user-b")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)

	require.NoError(t, f.tickets.RefundTicket(ctx, ticketID))

	ticket, err := f.tickets.GetTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusRefunded, ticket.Status)

	// The refunded spot goes to the front of the queue.
	posB, err := f.waitlist.QueuePosition(ctx, event.ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusOffered, posB.Entry.Status)
}

func TestTicketService_CancelTicket_BackfillsQueue(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	f.join(t, event.ID, "user-b")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)

	require.NoError(t, f.tickets.CancelTicket(ctx, ticketID))

	posB, err := f.waitlist.QueuePosition(ctx, event.ID, "user-b")
	require.NoError(t, err)
	assert.Equal(t, models.EntryStatusOffered, posB.Entry.Status)
}

func TestTicketService_Transition_TerminalStatesLocked(t *testing.T) {
	f := setupFixture(t)
	event := f.createEvent(t, 1)
	ctx := context.Background()

	a := f.join(t, event.ID, "user-a")
	ticketID := f.purchase(t, event.ID, "user-a", a.ID)
	require.NoError(t, f.tickets.UseTicket(ctx, ticketID))

	assert.ErrorIs(t, f.tickets.RefundTicket(ctx, ticketID), status.ErrTicketNotTransferable)
	assert.ErrorIs(t, f.tickets.CancelTicket(ctx, ticketID), status.ErrTicketNotTransferable)
	assert.ErrorIs(t, f.tickets.UseTicket(ctx, ticketID), status.ErrTicketNotTransferable)

	assert.ErrorIs(t, f.tickets.UseTicket(ctx, "missing"), status.ErrTicketNotFound)
}
