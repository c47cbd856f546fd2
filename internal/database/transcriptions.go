package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TranscriptionRow is the input for inserting a transcription. The
// pipeline only ever inserts; rows are never updated or deleted here.
type TranscriptionRow struct {
	UserID      string
	Title       string // derived from the creation date when empty
	Content     string
	Summary     *string
	ActionItems []string
	Source      string // "whisper", "fallback"
	Model       string
	DurationSec float64
}

// TranscriptionAPI is the transcription representation for API responses.
type TranscriptionAPI struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Summary     *string   `json:"summary,omitempty"`
	ActionItems []string  `json:"action_items,omitempty"`
	Source      string    `json:"source,omitempty"`
	Model       string    `json:"model,omitempty"`
	DurationSec float64   `json:"duration_sec,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TitleForDate derives the default record title from the creation date.
func TitleForDate(t time.Time) string {
	return "Meeting " + t.Format("Jan 2, 2006 3:04 PM")
}

// InsertTranscription inserts a new transcription record and returns its id.
func (db *DB) InsertTranscription(ctx context.Context, row *TranscriptionRow) (uuid.UUID, error) {
	if row.UserID == "" {
		return uuid.Nil, fmt.Errorf("insert transcription: missing user id")
	}
	if row.Content == "" {
		return uuid.Nil, fmt.Errorf("insert transcription: empty content")
	}

	id := uuid.New()
	now := time.Now().UTC()

	title := row.Title
	if title == "" {
		title = TitleForDate(now)
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO transcriptions (
			id, user_id, title, content, summary, action_items,
			source, model, duration_sec, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
	`,
		id, row.UserID, title, row.Content, row.Summary, row.ActionItems,
		row.Source, row.Model, row.DurationSec, now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert transcription: %w", err)
	}
	return id, nil
}

// GetTranscription returns one transcription owned by the given user.
func (db *DB) GetTranscription(ctx context.Context, id uuid.UUID, userID string) (*TranscriptionAPI, error) {
	var t TranscriptionAPI
	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, title, content, summary, action_items,
			source, model, duration_sec, created_at, updated_at
		FROM transcriptions
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&t.ID, &t.UserID, &t.Title, &t.Content, &t.Summary, &t.ActionItems,
		&t.Source, &t.Model, &t.DurationSec, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTranscriptionsByUser returns a user's transcriptions, newest first.
func (db *DB) ListTranscriptionsByUser(ctx context.Context, userID string, limit, offset int) ([]TranscriptionAPI, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, title, content, summary, action_items,
			source, model, duration_sec, created_at, updated_at
		FROM transcriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TranscriptionAPI
	for rows.Next() {
		var t TranscriptionAPI
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.Title, &t.Content, &t.Summary, &t.ActionItems,
			&t.Source, &t.Model, &t.DurationSec, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	if result == nil {
		result = []TranscriptionAPI{}
	}
	return result, rows.Err()
}

// CountTranscriptionsByUser returns how many records a user owns.
func (db *DB) CountTranscriptionsByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := db.Pool.QueryRow(ctx,
		`SELECT count(*) FROM transcriptions WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}
