package reports

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/healthlens/healthlens/internal/platform/extraction"
)

type Service struct {
	reports  ReportRepository
	patients PatientRepository
	tx       TxRunner
}

func NewService(reports ReportRepository, patients PatientRepository, tx TxRunner) *Service {
	return &Service{reports: reports, patients: patients, tx: tx}
}

// IngestRequest carries everything needed to store one extraction
// result: the owner, the upload metadata, and the raw extractor output.
type IngestRequest struct {
	AuthUserID string
	Title      string
	Notes      string
	Extraction *extraction.Result
}

// IngestResult reports what was stored and how normalization went.
type IngestResult struct {
	ReportIDs            []uuid.UUID `json:"report_ids"`
	DBUserID             uuid.UUID   `json:"db_userid"`
	ParametersNormalized int         `json:"parameters_normalized"`
	ParametersSkipped    int         `json:"parameters_skipped"`
}

// IngestExtraction stores the patient record and one report per test
// category, all inside a single transaction. Normalization failures are
// tolerated per-parameter; a missing owner aborts the whole ingestion.
func (s *Service) IngestExtraction(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	if strings.TrimSpace(req.AuthUserID) == "" {
		return nil, ErrMissingOwner
	}

	result := &IngestResult{ReportIDs: []uuid.UUID{}}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		patient := &Patient{
			AuthUserID: req.AuthUserID,
			Details:    req.Extraction.PatientDetails,
		}
		if err := s.patients.Create(ctx, patient); err != nil {
			return err
		}
		result.DBUserID = patient.ID

		// Category order in a JSON object is not stable, so sort for
		// deterministic report ids and creation order.
		names := make([]string, 0, len(req.Extraction.TestCategories))
		for name := range req.Extraction.TestCategories {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			cat := req.Extraction.TestCategories[name]
			rep := s.assembleReport(req, name, cat, patient.ID)
			if err := s.reports.Create(ctx, rep); err != nil {
				return err
			}
			result.ReportIDs = append(result.ReportIDs, rep.ID)
			result.ParametersNormalized += len(rep.Tests)
			result.ParametersSkipped += rep.SkippedCount
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// assembleReport normalizes one category's parameters and tallies their
// classifications into a Report ready for storage.
func (s *Service) assembleReport(req IngestRequest, category string, cat extraction.Category, patientID uuid.UUID) *Report {
	raw := make([]RawParameter, 0, len(cat.Tests))
	for _, t := range cat.Tests {
		raw = append(raw, RawParameter(t))
	}
	params, failures := NormalizeParameters(raw)

	rep := &Report{
		AuthUserID:     req.AuthUserID,
		PatientID:      patientID,
		Title:          req.Title,
		Notes:          req.Notes,
		TestCategory:   category,
		ReportName:     cat.ReportName,
		Tests:          params,
		Metadata:       req.Extraction.ReportMetadata,
		PatientDetails: req.Extraction.PatientDetails,
		SkippedCount:   len(failures),
	}
	if rep.ReportName == "" {
		rep.ReportName = metaString(req.Extraction.ReportMetadata, "report_name")
	}
	rep.ReportDate = metaString(req.Extraction.ReportMetadata, "report_date")

	for _, p := range params {
		switch p.Status {
		case StatusHigh:
			rep.HighCount++
		case StatusLow:
			rep.LowCount++
		default:
			rep.NormalCount++
		}
	}
	return rep
}

func metaString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// ListReports returns the caller's report summaries, newest first. An
// owner with no reports gets an empty page, not an error.
func (s *Service) ListReports(ctx context.Context, authUserID string, limit, offset int) ([]ReportSummary, int, error) {
	if strings.TrimSpace(authUserID) == "" {
		return nil, 0, ErrMissingOwner
	}
	items, total, err := s.reports.ListByUser(ctx, authUserID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	summaries := make([]ReportSummary, 0, len(items))
	for _, rep := range items {
		summaries = append(summaries, ReportSummary{
			ID:           rep.ID,
			Title:        rep.Title,
			TestCategory: rep.TestCategory,
			ReportName:   rep.ReportName,
			ReportDate:   rep.ReportDate,
			HighCount:    rep.HighCount,
			NormalCount:  rep.NormalCount,
			LowCount:     rep.LowCount,
			SkippedCount: rep.SkippedCount,
			CreatedAt:    rep.CreatedAt,
		})
	}
	return summaries, total, nil
}

// AggregateHistory builds the per-parameter trend series across all of
// a user's reports. Reports whose report_date cannot be parsed do not
// contribute points. Series are ordered by date; points from the same
// date keep report creation order.
func (s *Service) AggregateHistory(ctx context.Context, authUserID string) (ParameterValuesMap, error) {
	if strings.TrimSpace(authUserID) == "" {
		return nil, ErrMissingOwner
	}
	items, err := s.reports.AllByUser(ctx, authUserID)
	if err != nil {
		return nil, err
	}

	type point struct {
		value string
		date  string
		when  int64
	}
	series := make(map[string][]point)
	for _, rep := range items {
		when, ok := parseReportDate(rep.ReportDate)
		if !ok {
			continue
		}
		for _, p := range rep.Tests {
			series[p.ParameterTag] = append(series[p.ParameterTag], point{
				value: p.Value,
				date:  rep.ReportDate,
				when:  when.Unix(),
			})
		}
	}

	out := make(ParameterValuesMap, len(series))
	for tag, pts := range series {
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].when < pts[j].when })
		values := make([]ParameterValue, 0, len(pts))
		for _, pt := range pts {
			values = append(values, ParameterValue{Value: pt.value, ReportDate: pt.date})
		}
		out[tag] = values
	}
	return out, nil
}

// GetReportDetail returns one report plus the owner's full parameter
// history, fetched concurrently. Reports owned by someone else and
// unknown ids both come back as ErrForbidden so the response does not
// reveal which ids exist.
func (s *Service) GetReportDetail(ctx context.Context, reportID uuid.UUID, authUserID string) (*Report, ParameterValuesMap, error) {
	if strings.TrimSpace(authUserID) == "" {
		return nil, nil, ErrMissingOwner
	}

	var (
		rep     *Report
		history ParameterValuesMap
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.reports.GetByID(gctx, reportID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrForbidden
			}
			return err
		}
		if r.AuthUserID != authUserID {
			return ErrForbidden
		}
		rep = r
		return nil
	})
	g.Go(func() error {
		h, err := s.AggregateHistory(gctx, authUserID)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return rep, history, nil
}
