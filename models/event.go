package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	EventDate   time.Time       `json:"event_date"`
	Price       decimal.Decimal `json:"price"`
	Capacity    int             `json:"capacity"`
	Cancelled   bool            `json:"cancelled"`
	UserID      string          `json:"user_id"` // creator identity
	CreatedAt   time.Time       `json:"created_at"`
}

// Availability is the live inventory picture for an event. It is always
// recomputed from the ticket and waiting list sets, never cached.
type Availability struct {
	Capacity   int  `json:"capacity"`
	Sold       int  `json:"sold"`
	LiveOffers int  `json:"live_offers"`
	Remaining  int  `json:"remaining"`
	IsSoldOut  bool `json:"is_sold_out"`
}
