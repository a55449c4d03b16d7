package store

import (
	"context"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"

	"ticket-waitlist/models"
)

type eventRecord struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Location    string `db:"location"`
	EventDate   int64  `db:"event_date"`
	Price       string `db:"price"`
	Capacity    int    `db:"capacity"`
	Cancelled   int    `db:"cancelled"`
	UserID      string `db:"user_id"`
	CreatedAt   int64  `db:"created_at"`
}

func (r *eventRecord) toModel() (*models.Event, error) {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return nil, err
	}
	return &models.Event{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Location:    r.Location,
		EventDate:   fromMillis(r.EventDate),
		Price:       price,
		Capacity:    r.Capacity,
		Cancelled:   r.Cancelled != 0,
		UserID:      r.UserID,
		CreatedAt:   fromMillis(r.CreatedAt),
	}, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	cancelled := 0
	if e.Cancelled {
		cancelled = 1
	}
	_, err := s.b.Insert("events", dbx.Params{
		"id":          e.ID,
		"name":        e.Name,
		"description": e.Description,
		"location":    e.Location,
		"event_date":  toMillis(e.EventDate),
		"price":       e.Price.String(),
		"capacity":    e.Capacity,
		"cancelled":   cancelled,
		"user_id":     e.UserID,
		"created_at":  toMillis(e.CreatedAt),
	}).WithContext(ctx).Execute()
	return err
}

// GetEvent returns nil without an error when no event exists with the id.
func (s *Store) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	var rec eventRecord
	err := s.b.Select("*").
		From("events").
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

// ListEvents returns all non-cancelled events ordered by event date.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	var recs []eventRecord
	err := s.b.Select("*").
		From("events").
		Where(dbx.HashExp{"cancelled": 0}).
		OrderBy("event_date ASC", "id ASC").
		WithContext(ctx).
		All(&recs)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(recs))
	for i := range recs {
		e, err := recs[i].toModel()
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	return events, nil
}

func (s *Store) SetEventCapacity(ctx context.Context, id string, capacity int) error {
	_, err := s.b.Update("events",
		dbx.Params{"capacity": capacity},
		dbx.HashExp{"id": id},
	).WithContext(ctx).Execute()
	return err
}

func (s *Store) MarkEventCancelled(ctx context.Context, id string) error {
	_, err := s.b.Update("events",
		dbx.Params{"cancelled": 1},
		dbx.HashExp{"id": id},
	).WithContext(ctx).Execute()
	return err
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	_, err := s.b.Delete("events", dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	return err
}
