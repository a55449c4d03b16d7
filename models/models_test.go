package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitingListEntry_HasLiveOffer(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	entry := WaitingListEntry{Status: EntryStatusOffered, OfferExpiresAt: &future}
	assert.True(t, entry.HasLiveOffer(now))

	entry.OfferExpiresAt = &past
	assert.False(t, entry.HasLiveOffer(now))

	// A deadline exactly at now has already lapsed.
	entry.OfferExpiresAt = &now
	assert.False(t, entry.HasLiveOffer(now))

	entry.OfferExpiresAt = nil
	assert.False(t, entry.HasLiveOffer(now))

	waiting := WaitingListEntry{Status: EntryStatusWaiting, OfferExpiresAt: &future}
	assert.False(t, waiting.HasLiveOffer(now))
}

func TestWaitingListEntry_Active(t *testing.T) {
	for _, tc := range []struct {
		status string
		active bool
	}{
		{EntryStatusWaiting, true},
		{EntryStatusOffered, true},
		{EntryStatusPurchased, true},
		{EntryStatusExpired, false},
	} {
		entry := WaitingListEntry{Status: tc.status}
		assert.Equal(t, tc.active, entry.Active(), "status %s", tc.status)
	}
}

func TestTicket_Sold(t *testing.T) {
	for _, tc := range []struct {
		status string
		sold   bool
	}{
		{TicketStatusValid, true},
		{TicketStatusUsed, true},
		{TicketStatusRefunded, false},
		{TicketStatusCancelled, false},
	} {
		ticket := Ticket{Status: tc.status}
		assert.Equal(t, tc.sold, ticket.Sold(), "status %s", tc.status)
	}
}
