package reports

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the classification of a test parameter value against its
// reference range.
type Status string

const (
	StatusNormal Status = "normal"
	StatusHigh   Status = "high"
	StatusLow    Status = "low"
)

// ReferenceRange bounds a parameter value. Limits are pointers because
// many lab parameters carry a textual range only ("Negative", "1:80").
type ReferenceRange struct {
	LowerLimit *float64 `db:"lower_limit" json:"lower_limit"`
	UpperLimit *float64 `db:"upper_limit" json:"upper_limit"`
	RangeText  string   `db:"range_text" json:"range_text,omitempty"`
}

// TestParameter is one normalized measurement within a report.
type TestParameter struct {
	ParameterName        string         `json:"parameter_name"`
	ParameterTag         string         `json:"parameter_tag"`
	Value                string         `json:"value"`
	Unit                 string         `json:"unit,omitempty"`
	ReferenceRange       ReferenceRange `json:"reference_range"`
	Status               Status         `json:"status"`
	NonNumeric           bool           `json:"non_numeric,omitempty"`
	FullForm             string         `json:"full_form,omitempty"`
	Method               string         `json:"method,omitempty"`
	Notes                string         `json:"notes,omitempty"`
	ClinicalSignificance string         `json:"clinical_significance,omitempty"`
}

// Report is one stored report entity: a single test category from a
// single uploaded document, owned by one user.
type Report struct {
	ID             uuid.UUID              `db:"id" json:"_id"`
	AuthUserID     string                 `db:"auth_userid" json:"auth_userid"`
	PatientID      uuid.UUID              `db:"patient_id" json:"db_userid,omitempty"`
	Title          string                 `db:"title" json:"title,omitempty"`
	Notes          string                 `db:"notes" json:"notes,omitempty"`
	TestCategory   string                 `db:"test_category" json:"test_category"`
	ReportName     string                 `db:"report_name" json:"report_name,omitempty"`
	ReportDate     string                 `db:"report_date" json:"report_date,omitempty"`
	Tests          []TestParameter        `db:"tests" json:"tests"`
	Metadata       map[string]interface{} `db:"report_metadata" json:"report_metadata,omitempty"`
	PatientDetails map[string]interface{} `db:"patient_details" json:"patient_details,omitempty"`
	HighCount      int                    `db:"high_count" json:"high_count"`
	NormalCount    int                    `db:"normal_count" json:"normal_count"`
	LowCount       int                    `db:"low_count" json:"low_count"`
	SkippedCount   int                    `db:"skipped_count" json:"skipped_count"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}

// ReportSummary is the list-view projection of a Report.
type ReportSummary struct {
	ID           uuid.UUID `json:"_id"`
	Title        string    `json:"title,omitempty"`
	TestCategory string    `json:"test_category"`
	ReportName   string    `json:"report_name,omitempty"`
	ReportDate   string    `json:"report_date,omitempty"`
	HighCount    int       `json:"high_count"`
	NormalCount  int       `json:"normal_count"`
	LowCount     int       `json:"low_count"`
	SkippedCount int       `json:"skipped_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Patient is the stored patient_details record created on first ingest.
type Patient struct {
	ID         uuid.UUID              `db:"id" json:"_id"`
	AuthUserID string                 `db:"auth_userid" json:"auth_userid"`
	Details    map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}

// ParameterValue is one point in a parameter's history series.
type ParameterValue struct {
	Value      string `json:"value"`
	ReportDate string `json:"report_date"`
}

// ParameterValuesMap maps a parameter tag to its chronological series.
type ParameterValuesMap map[string][]ParameterValue

// reportDateLayouts lists the date formats the extraction service is
// known to emit, tried in order.
var reportDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"02/01/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// parseReportDate returns the parsed date and whether parsing succeeded.
func parseReportDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range reportDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
