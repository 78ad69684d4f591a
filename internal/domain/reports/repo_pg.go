package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlens/healthlens/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Report Repository ===========

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reportCols = `id, auth_userid, patient_id, title, notes,
	test_category, report_name, report_date, tests,
	report_metadata, patient_details,
	high_count, normal_count, low_count, skipped_count, created_at`

func (r *reportRepoPG) scanReport(row pgx.Row) (*Report, error) {
	var rep Report
	var tests, metadata, patient []byte
	err := row.Scan(&rep.ID, &rep.AuthUserID, &rep.PatientID, &rep.Title, &rep.Notes,
		&rep.TestCategory, &rep.ReportName, &rep.ReportDate, &tests,
		&metadata, &patient,
		&rep.HighCount, &rep.NormalCount, &rep.LowCount, &rep.SkippedCount, &rep.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tests, &rep.Tests); err != nil {
		return nil, fmt.Errorf("decode tests for report %s: %w", rep.ID, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rep.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for report %s: %w", rep.ID, err)
		}
	}
	if len(patient) > 0 {
		if err := json.Unmarshal(patient, &rep.PatientDetails); err != nil {
			return nil, fmt.Errorf("decode patient details for report %s: %w", rep.ID, err)
		}
	}
	return &rep, nil
}

func (r *reportRepoPG) Create(ctx context.Context, rep *Report) error {
	rep.ID = uuid.New()
	if rep.Tests == nil {
		rep.Tests = []TestParameter{}
	}
	tests, err := json.Marshal(rep.Tests)
	if err != nil {
		return fmt.Errorf("encode tests: %w", err)
	}
	metadata, err := json.Marshal(rep.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	patient, err := json.Marshal(rep.PatientDetails)
	if err != nil {
		return fmt.Errorf("encode patient details: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO report (id, auth_userid, patient_id, title, notes,
			test_category, report_name, report_date, tests,
			report_metadata, patient_details,
			high_count, normal_count, low_count, skipped_count)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		rep.ID, rep.AuthUserID, rep.PatientID, rep.Title, rep.Notes,
		rep.TestCategory, rep.ReportName, rep.ReportDate, tests,
		metadata, patient,
		rep.HighCount, rep.NormalCount, rep.LowCount, rep.SkippedCount)
	return err
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := r.scanReport(r.conn(ctx).QueryRow(ctx, `SELECT `+reportCols+` FROM report WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return rep, err
}

func (r *reportRepoPG) ListByUser(ctx context.Context, authUserID string, limit, offset int) ([]*Report, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report WHERE auth_userid = $1`, authUserID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM report WHERE auth_userid = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, authUserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, nil
}

func (r *reportRepoPG) AllByUser(ctx context.Context, authUserID string) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reportCols+` FROM report WHERE auth_userid = $1 ORDER BY created_at ASC`, authUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Report
	for rows.Next() {
		rep, err := r.scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, nil
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	details, err := json.Marshal(p.Details)
	if err != nil {
		return fmt.Errorf("encode patient details: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patient (id, auth_userid, details)
		VALUES ($1, $2, $3)`,
		p.ID, p.AuthUserID, details)
	return err
}
