package reports

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthlens/healthlens/internal/platform/extraction"
	"github.com/healthlens/healthlens/pkg/pagination"
)

// ExtractClient is the slice of the extraction client the handler uses.
type ExtractClient interface {
	Extract(ctx context.Context, filename string, file io.Reader) (*extraction.Result, error)
}

type Handler struct {
	svc       *Service
	extractor ExtractClient
}

func NewHandler(svc *Service, extractor ExtractClient) *Handler {
	return &Handler{svc: svc, extractor: extractor}
}

// RegisterRoutes keeps the upload and read endpoints at the API root,
// matching the paths the web client already calls.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/extract", h.Extract)
	e.GET("/reports/:auth_userid", h.ListReports)
	e.GET("/report-detail/:id", h.GetReportDetail)
}

// Extract accepts a multipart upload, runs it through the extraction
// service and stores the resulting reports.
func (h *Handler) Extract(c echo.Context) error {
	authUserID := c.FormValue("auth_userid")
	if authUserID == "" {
		// The original web client posted the field as userId.
		authUserID = c.FormValue("userId")
	}
	if authUserID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, ErrMissingOwner.Error())
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable upload")
	}
	defer src.Close()

	ctx := c.Request().Context()
	result, err := h.extractor.Extract(ctx, fh.Filename, src)
	if err != nil {
		if errors.Is(err, extraction.ErrUnavailable) {
			return echo.NewHTTPError(http.StatusBadGateway, "extraction service unavailable")
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	ingested, err := h.svc.IngestExtraction(ctx, IngestRequest{
		AuthUserID: authUserID,
		Title:      c.FormValue("title"),
		Notes:      c.FormValue("notes"),
		Extraction: result,
	})
	if err != nil {
		if errors.Is(err, ErrMissingOwner) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"message":               "Report processed successfully",
		"report_ids":            ingested.ReportIDs,
		"db_userid":             ingested.DBUserID,
		"parameters_normalized": ingested.ParametersNormalized,
		"parameters_skipped":    ingested.ParametersSkipped,
	})
}

// ListReports returns the caller's report summaries, paginated.
func (h *Handler) ListReports(c echo.Context) error {
	authUserID := c.Param("auth_userid")
	pg := pagination.FromContext(c)

	items, total, err := h.svc.ListReports(c.Request().Context(), authUserID, pg.Limit, pg.Offset)
	if err != nil {
		if errors.Is(err, ErrMissingOwner) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// GetReportDetail returns one report plus the owner's parameter history.
// Unknown ids and reports owned by someone else both yield 403.
func (h *Handler) GetReportDetail(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	authUserID := c.QueryParam("auth_userid")

	rep, history, err := h.svc.GetReportDetail(c.Request().Context(), id, authUserID)
	if err != nil {
		switch {
		case errors.Is(err, ErrMissingOwner):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrForbidden):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":          "Report fetched successfully",
		"data":             rep,
		"parameter_values": history,
	})
}
