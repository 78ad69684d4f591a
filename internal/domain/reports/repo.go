package reports

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository persists and reads report entities.
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByUser(ctx context.Context, authUserID string, limit, offset int) ([]*Report, int, error)
	// AllByUser returns every report for a user ordered by creation
	// time, for history aggregation.
	AllByUser(ctx context.Context, authUserID string) ([]*Report, error)
}

// PatientRepository persists the patient details record captured from
// an uploaded document.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
}

// TxRunner runs fn inside a single database transaction. Repository
// calls made with the ctx fn receives share that transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
