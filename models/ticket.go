package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TicketStatusValid     = "valid"
	TicketStatusUsed      = "used"
	TicketStatusRefunded  = "refunded"
	TicketStatusCancelled = "cancelled"
)

type Ticket struct {
	ID               string          `json:"id"`
	EventID          string          `json:"event_id"`
	UserID           string          `json:"user_id"`
	Status           string          `json:"status"` // valid, used, refunded, cancelled
	PurchasedAt      time.Time       `json:"purchased_at"`
	PaymentReference string          `json:"payment_reference"`
	Amount           decimal.Decimal `json:"amount"`
}

// Sold reports whether the ticket counts against event capacity.
func (t *Ticket) Sold() bool {
	return t.Status == TicketStatusValid || t.Status == TicketStatusUsed
}
