package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/training-dashboard/internal/types"
)

// summaryDocument is the stored body of the summary row. The write timestamp
// lives in its own column so the database can assign it.
type summaryDocument struct {
	Participants types.ParticipantStats `json:"participants"`
	Courses      types.CourseStats      `json:"courses"`
}

// ReplaceSummary overwrites the summary row in a single upsert. The whole
// document is replaced, never merged, and last_updated is set by the server.
func (db *DB) ReplaceSummary(ctx context.Context, summary *types.DashboardSummary) (time.Time, error) {
	jsonBytes, err := json.Marshal(summaryDocument{
		Participants: summary.Participants,
		Courses:      summary.Courses,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to marshal summary: %w", err)
	}

	var lastUpdated time.Time
	err = db.pool.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s (id, doc, last_updated)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, last_updated = NOW()
		 RETURNING last_updated`, ident(db.tables.Dashboard)),
		types.SummaryDocumentID, jsonBytes,
	).Scan(&lastUpdated)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to replace summary: %w", err)
	}
	return lastUpdated, nil
}

// GetSummary retrieves the stored summary, or nil if none has been written yet.
func (db *DB) GetSummary(ctx context.Context) (*types.DashboardSummary, error) {
	var raw []byte
	var lastUpdated time.Time
	err := db.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT doc, last_updated FROM %s WHERE id = $1`, ident(db.tables.Dashboard)),
		types.SummaryDocumentID,
	).Scan(&raw, &lastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}

	var summary types.DashboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary: %w", err)
	}
	summary.LastUpdated = lastUpdated
	return &summary, nil
}
