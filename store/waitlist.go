package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pocketbase/dbx"

	"ticket-waitlist/models"
)

type entryRecord struct {
	ID             string        `db:"id"`
	EventID        string        `db:"event_id"`
	UserID         string        `db:"user_id"`
	Status         string        `db:"status"`
	OfferExpiresAt sql.NullInt64 `db:"offer_expires_at"`
	CreatedAt      int64         `db:"created_at"`
}

func (r *entryRecord) toModel() *models.WaitingListEntry {
	entry := &models.WaitingListEntry{
		ID:        r.ID,
		EventID:   r.EventID,
		UserID:    r.UserID,
		Status:    r.Status,
		CreatedAt: fromMillis(r.CreatedAt),
	}
	if r.OfferExpiresAt.Valid {
		t := fromMillis(r.OfferExpiresAt.Int64)
		entry.OfferExpiresAt = &t
	}
	return entry
}

func entriesToModels(recs []entryRecord) []models.WaitingListEntry {
	entries := make([]models.WaitingListEntry, 0, len(recs))
	for i := range recs {
		entries = append(entries, *recs[i].toModel())
	}
	return entries
}

func (s *Store) CreateEntry(ctx context.Context, e *models.WaitingListEntry) error {
	var expires any
	if e.OfferExpiresAt != nil {
		expires = toMillis(*e.OfferExpiresAt)
	}
	_, err := s.b.Insert("waiting_list", dbx.Params{
		"id":               e.ID,
		"event_id":         e.EventID,
		"user_id":          e.UserID,
		"status":           e.Status,
		"offer_expires_at": expires,
		"created_at":       toMillis(e.CreatedAt),
	}).WithContext(ctx).Execute()
	return err
}

// GetEntry returns nil without an error when no entry exists with the id.
func (s *Store) GetEntry(ctx context.Context, id string) (*models.WaitingListEntry, error) {
	var rec entryRecord
	err := s.b.Select("*").
		From("waiting_list").
		Where(dbx.HashExp{"id": id}).
		WithContext(ctx).
		One(&rec)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// ActiveEntryForUser returns the user's non-expired entry for the event, or
// nil when the user is not queued. A purchased entry still counts as active:
// buying a ticket consumes the user's one slot in the queue.
func (s *Store) ActiveEntryForUser(ctx context.Context, eventID, userID string) (*models.WaitingListEntry, error) {
	var rec entryRecord
	err := s.b.Select("*").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID, "user_id": userID}).
		AndWhere(dbx.NewExp("status != {:expired}", dbx.Params{"expired": models.EntryStatusExpired})).
		WithContext(ctx).
		One(&rec)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.toModel(), nil
}

// CountEntriesAhead counts waiting or offered entries for the event that
// arrived strictly before the given entry (ties broken by id).
func (s *Store) CountEntriesAhead(ctx context.Context, eventID string, createdAt time.Time, entryID string) (int, error) {
	var n int
	err := s.b.Select("COUNT(*)").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID}).
		AndWhere(dbx.In("status", models.EntryStatusWaiting, models.EntryStatusOffered)).
		AndWhere(dbx.NewExp(
			"(created_at < {:t} OR (created_at = {:t} AND id < {:id}))",
			dbx.Params{"t": toMillis(createdAt), "id": entryID},
		)).
		WithContext(ctx).
		Row(&n)
	return n, err
}

// WaitingEntries returns up to limit waiting entries in FIFO order.
func (s *Store) WaitingEntries(ctx context.Context, eventID string, limit int) ([]models.WaitingListEntry, error) {
	var recs []entryRecord
	err := s.b.Select("*").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID, "status": models.EntryStatusWaiting}).
		OrderBy("created_at ASC", "id ASC").
		Limit(int64(limit)).
		WithContext(ctx).
		All(&recs)
	if err != nil {
		return nil, err
	}
	return entriesToModels(recs), nil
}

func (s *Store) CountWaitingEntries(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.b.Select("COUNT(*)").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID, "status": models.EntryStatusWaiting}).
		WithContext(ctx).
		Row(&n)
	return n, err
}

// CountLiveOffers counts offered entries whose deadline is strictly in the
// future. Offered entries past their deadline are excluded even when their
// expiration callback has not run yet.
func (s *Store) CountLiveOffers(ctx context.Context, eventID string, now time.Time) (int, error) {
	var n int
	err := s.b.Select("COUNT(*)").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID, "status": models.EntryStatusOffered}).
		AndWhere(dbx.NewExp("offer_expires_at > {:now}", dbx.Params{"now": toMillis(now)})).
		WithContext(ctx).
		Row(&n)
	return n, err
}

// ActiveEntries returns the event's waiting and offered entries in FIFO order.
func (s *Store) ActiveEntries(ctx context.Context, eventID string) ([]models.WaitingListEntry, error) {
	var recs []entryRecord
	err := s.b.Select("*").
		From("waiting_list").
		Where(dbx.HashExp{"event_id": eventID}).
		AndWhere(dbx.In("status", models.EntryStatusWaiting, models.EntryStatusOffered)).
		OrderBy("created_at ASC", "id ASC").
		WithContext(ctx).
		All(&recs)
	if err != nil {
		return nil, err
	}
	return entriesToModels(recs), nil
}

// StaleOffers returns offered entries, across all events, whose deadline has
// passed. Used by the sweep task to backfill lost expiration timers.
func (s *Store) StaleOffers(ctx context.Context, now time.Time, limit int) ([]models.WaitingListEntry, error) {
	var recs []entryRecord
	err := s.b.Select("*").
		From("waiting_list").
		Where(dbx.HashExp{"status": models.EntryStatusOffered}).
		AndWhere(dbx.NewExp("offer_expires_at <= {:now}", dbx.Params{"now": toMillis(now)})).
		OrderBy("offer_expires_at ASC").
		Limit(int64(limit)).
		WithContext(ctx).
		All(&recs)
	if err != nil {
		return nil, err
	}
	return entriesToModels(recs), nil
}

// TransitionEntry moves an entry from one status to another, setting or
// clearing the offer deadline. It reports whether a row actually changed, so
// callers can compare-and-swap: a false return means the entry was not in the
// expected source status.
func (s *Store) TransitionEntry(ctx context.Context, id, from, to string, offerExpiresAt *time.Time) (bool, error) {
	var expires any
	if offerExpiresAt != nil {
		expires = toMillis(*offerExpiresAt)
	}
	res, err := s.b.Update("waiting_list",
		dbx.Params{"status": to, "offer_expires_at": expires},
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

func (s *Store) DeleteEntriesForEvent(ctx context.Context, eventID string) error {
	_, err := s.b.Delete("waiting_list", dbx.HashExp{"event_id": eventID}).WithContext(ctx).Execute()
	return err
}
