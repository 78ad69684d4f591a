// Package extraction talks to the document extraction service that
// turns uploaded lab reports into structured JSON.
package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable indicates the extraction service could not be reached
// or failed server-side. Callers may retry the upload later.
var ErrUnavailable = errors.New("extraction service unavailable")

// Category is one test category in an extraction result. Tests stay
// loosely typed; the domain layer normalizes them.
type Category struct {
	ReportName string                   `json:"report_name"`
	Tests      []map[string]interface{} `json:"tests"`
}

// Result is the decoded extraction payload for one document.
type Result struct {
	PatientDetails map[string]interface{} `json:"patient_details"`
	ReportMetadata map[string]interface{} `json:"report_metadata"`
	TestCategories map[string]Category    `json:"test_categories"`
}

// Client calls the extraction service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Extract uploads one document and returns the structured extraction.
// Transport failures and 5xx responses map to ErrUnavailable; 4xx
// responses are terminal.
func (c *Client) Extract(ctx context.Context, filename string, file io.Reader) (*Result, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart request: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("extraction rejected (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}
	return &result, nil
}
