// Package types provides the document shapes shared by the aggregation job and its stores.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"encoding/json"
	"strconv"
)

// Collection names used by the data-collection application.
const (
	CollectionCourses      = "courses"
	CollectionParticipants = "participants"
	CollectionDashboard    = "dashboard"
)

// Course represents one run of a training program (IMNCI, ETAT, EENC, ICCM, ...).
// Only the fields the dashboard needs are decoded.
type Course struct {
	ID         string `json:"id"`
	CourseType string `json:"course_type,omitempty"`
}

// Participant represents one trainee enrolled in a course.
// Scores are kept loosely typed: stored documents may hold numbers,
// numeric-looking strings, null, or nothing at all.
type Participant struct {
	ID            string `json:"id"`
	CourseID      string `json:"courseId,omitempty"`
	PreTestScore  any    `json:"pre_test_score,omitempty"`
	PostTestScore any    `json:"post_test_score,omitempty"`
	JobTitle      string `json:"job_title,omitempty"`
}

// CourseFromDocument builds a Course from a raw stored document.
// Fields of an unexpected type are treated as absent.
func CourseFromDocument(id string, doc map[string]any) Course {
	return Course{
		ID:         id,
		CourseType: LooseString(doc["course_type"]),
	}
}

// ParticipantFromDocument builds a Participant from a raw stored document.
// Score fields are passed through untouched; coercion happens during aggregation.
func ParticipantFromDocument(id string, doc map[string]any) Participant {
	return Participant{
		ID:            id,
		CourseID:      LooseString(doc["courseId"]),
		PreTestScore:  doc["pre_test_score"],
		PostTestScore: doc["post_test_score"],
		JobTitle:      LooseString(doc["job_title"]),
	}
}

// LooseString returns string values as-is and renders integer-like
// identifiers; anything else is treated as empty.
func LooseString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return ""
	default:
		return ""
	}
}
