package store

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"

	"ticket-waitlist/models"
)

type ticketRecord struct {
	ID               string `db:"id"`
	EventID          string `db:"event_id"`
	UserID           string `db:"user_id"`
	Status           string `db:"status"`
	PurchasedAt      int64  `db:"purchased_at"`
	PaymentReference string `db:"payment_reference"`
	Amount           string `db:"amount"`
}

func (r *ticketRecord) toModel() (*models.Ticket, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return nil, err
	}
	return &models.Ticket{
		ID:               r.ID,
		EventID:          r.EventID,
		UserID:           r.UserID,
		Status:           r.Status,
		PurchasedAt:      fromMillis(r.PurchasedAt),
		PaymentReference: r.PaymentReference,
		Amount:           amount,
	}, nil
}

func (s *Store) CreateTicket(ctx context.Context, t *models.Ticket) error {
	_, err := s.b.Insert("tickets", dbx.Params{
		"id":                t.ID,
		"event_id":          t.EventID,
		"user_id":           t.UserID,
		"status":            t.Status,
		"purchased_at":      toMillis(t.PurchasedAt),
		"payment_reference": t.PaymentReference,
		"amount":            t.Amount.String(),
	}).WithContext(ctx).Execute()
	return err
}

// GetTicket returns nil without an error when no ticket exists with the id.
func (s *Store) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	var rec ticketRecord
	err := s.b.Select("*").
		From("tickets").
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&rec)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel()
}

// UserTicketForEvent returns the user's ticket for the event, or nil.
func (s *Store) UserTicketForEvent(ctx context.Context, eventID, userID string) (*models.Ticket, error) {
	var rec ticketRecord
	err := s.b.Select("*").
		From("tickets").
		Where(dbx.HashExp{"user_id": userID, "event_id": eventID}).
		OrderBy("purchased_at ASC").
		WithContext(ctx).
		One(&rec)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel()
}

// CountSoldTickets counts tickets that hold inventory: valid or used.
func (s *Store) CountSoldTickets(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.b.Select("COUNT(*)").
		From("tickets").
		Where(dbx.HashExp{"event_id": eventID}).
		AndWhere(dbx.In("status", models.TicketStatusValid, models.TicketStatusUsed)).
		WithContext(ctx).
		Row(&n)
	return n, err
}

func (s *Store) CountValidTickets(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.b.Select("COUNT(*)").
		From("tickets").
		Where(dbx.HashExp{"event_id": eventID, "status": models.TicketStatusValid}).
		WithContext(ctx).
		Row(&n)
	return n, err
}

// TransitionTicket compare-and-swaps a ticket status; false means the ticket
// was not in the expected source status.
func (s *Store) TransitionTicket(ctx context.Context, id, from, to string) (bool, error) {
	res, err := s.b.Update("tickets",
		dbx.Params{"status": to},
		dbx.HashExp{"id": id, "status": from},
	).WithContext(ctx).Execute()
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) DeleteTicketsForEvent(ctx context.Context, eventID string) error {
	_, err := s.b.Delete("tickets", dbx.HashExp{"event_id": eventID}).WithContext(ctx).Execute()
	return err
}
