package store

import (
	"database/sql"
	"errors"
	"time"
)

// Alert is a fired rubbing alert.
type Alert struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
	ConsecutiveFrames int       `json:"consecutive_frames"`
	Eye               string    `json:"eye,omitempty"`
	Hand              string    `json:"hand,omitempty"`
}

// AlertRepository provides CRUD operations for alerts.
type AlertRepository struct {
	db *sql.DB
}

// Alerts returns the alert repository for this store.
func (s *Store) Alerts() *AlertRepository {
	return &AlertRepository{db: s.db}
}

const alertColumns = `id, COALESCE(session_id, ''), occurred_at, consecutive_frames, eye, hand`

// Create inserts a new alert.
func (r *AlertRepository) Create(a *Alert) error {
	var sessionID any
	if a.SessionID != "" {
		sessionID = a.SessionID
	}

	_, err := r.db.Exec(
		`INSERT INTO alerts (id, session_id, occurred_at, consecutive_frames, eye, hand)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, sessionID, a.OccurredAt.UTC(), a.ConsecutiveFrames, a.Eye, a.Hand,
	)
	return err
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(id string) (*Alert, error) {
	a := &Alert{}
	err := r.db.QueryRow(`SELECT `+alertColumns+` FROM alerts WHERE id = ?`, id).
		Scan(&a.ID, &a.SessionID, &a.OccurredAt, &a.ConsecutiveFrames, &a.Eye, &a.Hand)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List returns the most recent alerts first. A non-positive limit returns all.
func (r *AlertRepository) List(limit int) ([]*Alert, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+alertColumns+` FROM alerts ORDER BY occurred_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []*Alert
	for rows.Next() {
		a := &Alert{}
		if err := rows.Scan(&a.ID, &a.SessionID, &a.OccurredAt, &a.ConsecutiveFrames, &a.Eye, &a.Hand); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return alerts, nil
}

// CountSince returns how many alerts occurred at or after t.
func (r *AlertRepository) CountSince(t time.Time) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE occurred_at >= ?`, t.UTC()).Scan(&n)
	return n, err
}

// Delete removes an alert by its ID.
func (r *AlertRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM alerts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return affectedOne(result)
}
