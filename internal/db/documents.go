package db

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/training-dashboard/internal/types"
)

// -----------------------------------------------------------------------------
// Source collections (read-only)
// -----------------------------------------------------------------------------

// ListCourses returns every course document.
func (db *DB) ListCourses(ctx context.Context) ([]types.Course, error) {
	var courses []types.Course
	err := db.scanDocuments(ctx, db.tables.Courses, func(id string, doc map[string]any) {
		courses = append(courses, types.CourseFromDocument(id, doc))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

// ListParticipants returns every participant document.
func (db *DB) ListParticipants(ctx context.Context) ([]types.Participant, error) {
	var participants []types.Participant
	err := db.scanDocuments(ctx, db.tables.Participants, func(id string, doc map[string]any) {
		participants = append(participants, types.ParticipantFromDocument(id, doc))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (db *DB) scanDocuments(ctx context.Context, table string, fn func(id string, doc map[string]any)) error {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`SELECT id, doc FROM %s`, ident(table)))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return fmt.Errorf("failed to decode %s/%s: %w", table, id, err)
		}
		fn(id, doc)
	}
	return rows.Err()
}

// decodeDocument unmarshals a jsonb document, keeping numbers as json.Number
// so scores are coerced exactly once, during aggregation.
func decodeDocument(raw []byte) (map[string]any, error) {
	doc := map[string]any{}
	if len(raw) == 0 {
		return doc, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
