// Package schemas provides JSON Schema validation for the documents the job writes.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/training-dashboard/internal/types"
)

// SummarySchema is the JSON Schema of the dashboard summary document.
//
//go:embed dashboard_summary.schema.json
var SummarySchema string

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Path    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Path, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateJSONString validates JSON string content against schema string content
func ValidateJSONString(schemaContent, jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{
			Path:    "(string schema)",
			Message: "schema validation failed during load",
			Cause:   err,
		}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// ValidateSummary checks a computed summary against SummarySchema, then checks
// that every chart has one data point per label, which the schema cannot express.
func ValidateSummary(summary *types.DashboardSummary) error {
	if summary == nil {
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: "summary is nil"}}}
	}

	jsonBytes, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	if err := ValidateJSONString(SummarySchema, string(jsonBytes)); err != nil {
		return err
	}

	var fieldErrs []FieldError
	fieldErrs = append(fieldErrs, checkParallel("participants.byCourseType", summary.Participants.ByCourseType)...)
	fieldErrs = append(fieldErrs, checkParallel("participants.byJobTitle", summary.Participants.ByJobTitle)...)
	if len(fieldErrs) > 0 {
		return &ValidationError{Errors: fieldErrs}
	}
	return nil
}

func checkParallel(field string, chart types.ChartData) []FieldError {
	var errs []FieldError
	for i, ds := range chart.Datasets {
		if len(ds.Data) != len(chart.Labels) {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("%s.datasets.%d.data", field, i),
				Message: fmt.Sprintf("has %d values for %d labels", len(ds.Data), len(chart.Labels)),
			})
		}
	}
	return errs
}
