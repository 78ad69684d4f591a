package reports

import "errors"

var (
	// ErrMissingOwner is returned when an ingestion request carries no
	// auth_userid. It is fatal: nothing from the extraction is stored.
	ErrMissingOwner = errors.New("auth_userid is required")

	// ErrNotFound is returned by repositories when a single-row lookup
	// matches nothing.
	ErrNotFound = errors.New("report not found")

	// ErrForbidden is returned when a caller requests a report they do
	// not own. Unknown ids produce the same error so the response does
	// not reveal whether the id exists.
	ErrForbidden = errors.New("access denied")
)

// NormalizationFailure records one raw parameter that could not be
// normalized. Failures are collected per report, never fatal.
type NormalizationFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (f NormalizationFailure) Error() string {
	return f.Reason
}
