package dune

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/models"
)

// Predefined errors for better error handling.
var (
	ErrHTTPResponse    = errors.New("error in HTTP response")
	ErrInvalidResponse = errors.New("invalid query results response")
	ErrMissingRows     = errors.New("missing result rows in query results response")
)

const (
	DefaultBaseURL = "https://api.dune.com"
	apiKeyHeader   = "X-Dune-API-Key"
	resultsPath    = "/api/v1/query/{queryID}/results"
)

// RowFetcher defines the interface for fetching query result rows.
type RowFetcher interface {
	FetchRows(ctx context.Context) ([]models.APIRow, error)
}

// Client fetches the latest results of one saved query.
type Client struct {
	http    *resty.Client
	queryID int
	logger  *zap.Logger
}

// NewClient creates a Client. The API key is sent as a header, never in the URL.
func NewClient(baseURL string, queryID int, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader(apiKeyHeader, apiKey)

	return &Client{
		http:    httpClient,
		queryID: queryID,
		logger:  logger,
	}
}

// resultsResponse is the subset of the results payload the dashboard reads.
type resultsResponse struct {
	State  string          `json:"state"`
	Error  string          `json:"error"`
	Result *resultsPayload `json:"result"`
}

type resultsPayload struct {
	Rows *[]models.APIRow `json:"rows"`
}

// FetchRows issues one GET for the query results and returns result.rows.
func (c *Client) FetchRows(ctx context.Context) ([]models.APIRow, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("queryID", strconv.Itoa(c.queryID)).
		Get(resultsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching query %d results: %v", ErrHTTPResponse, c.queryID, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: received status code %d: %s", ErrHTTPResponse, resp.StatusCode(), errorMessage(resp.Body()))
	}

	rows, state, err := parseRows(resp.Body())
	if err != nil {
		return nil, err
	}

	c.logger.Info("fetched query results",
		zap.Int("query_id", c.queryID),
		zap.String("state", state),
		zap.Int("rows", len(rows)),
		zap.Duration("elapsed", resp.Time()),
	)
	return rows, nil
}

// parseRows decodes the body keeping numbers as json.Number.
func parseRows(body []byte) ([]models.APIRow, string, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, "", fmt.Errorf("%w: response body is empty", ErrInvalidResponse)
	}

	var payload resultsResponse
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		return nil, "", fmt.Errorf("%w: error decoding response body: %v", ErrInvalidResponse, err)
	}

	if payload.Result == nil {
		return nil, payload.State, fmt.Errorf("%w: result field not found", ErrMissingRows)
	}
	if payload.Result.Rows == nil {
		return nil, payload.State, fmt.Errorf("%w: rows field not found", ErrMissingRows)
	}

	return *payload.Result.Rows, payload.State, nil
}

func errorMessage(body []byte) string {
	var payload resultsResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
