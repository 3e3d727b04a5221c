package dune

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseRows(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse string
		expectedErr  error
		expectedRows int
	}{
		{
			name: "Valid response",
			mockResponse: `{"state":"QUERY_STATE_COMPLETED","result":{"rows":[
				{"Date":"2024-01-01 00:00:00.000 UTC","Txns Count":100,"Chain":"X"},
				{"Date":"2024-01-02 00:00:00.000 UTC","Txns Count":120,"Chain":"X"}
			]}}`,
			expectedRows: 2,
		},
		{
			name:         "Empty rows",
			mockResponse: `{"result":{"rows":[]}}`,
			expectedRows: 0,
		},
		{
			name:         "Empty response body",
			mockResponse: "",
			expectedErr:  ErrInvalidResponse,
		},
		{
			name:         "Malformed JSON",
			mockResponse: `{"result": {"rows": [`,
			expectedErr:  ErrInvalidResponse,
		},
		{
			name:         "Missing result",
			mockResponse: `{"state":"QUERY_STATE_PENDING"}`,
			expectedErr:  ErrMissingRows,
		},
		{
			name:         "Missing rows",
			mockResponse: `{"result":{"metadata":{}}}`,
			expectedErr:  ErrMissingRows,
		},
		{
			name:         "Rows not objects",
			mockResponse: `{"result":{"rows":[1,2]}}`,
			expectedErr:  ErrInvalidResponse,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rows, _, err := parseRows([]byte(tc.mockResponse))
			if tc.expectedErr != nil {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, tc.expectedErr), "expected error type does not match: %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tc.expectedRows)
		})
	}
}

func TestParseRowsKeepsNumbers(t *testing.T) {
	rows, _, err := parseRows([]byte(`{"result":{"rows":[{"Date":"2024-01-01","Txns Count":12345678901,"Chain":"X"}]}}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, json.Number("12345678901"), rows[0]["Txns Count"])
}

func TestFetchRows(t *testing.T) {
	tests := []struct {
		name         string
		mockResponse string
		statusCode   int
		expectedErr  error
		expectedRows int
	}{
		{
			name:         "Valid response",
			mockResponse: `{"result":{"rows":[{"Date":"2024-01-01","Txns Count":100,"Chain":"X"}]}}`,
			statusCode:   http.StatusOK,
			expectedRows: 1,
		},
		{
			name:         "401 error",
			mockResponse: `{"error":"invalid API Key"}`,
			statusCode:   http.StatusUnauthorized,
			expectedErr:  ErrHTTPResponse,
		},
		{
			name:         "500 error",
			mockResponse: ``,
			statusCode:   http.StatusInternalServerError,
			expectedErr:  ErrHTTPResponse,
		},
		{
			name:         "Invalid JSON",
			mockResponse: `{invalid json}`,
			statusCode:   http.StatusOK,
			expectedErr:  ErrInvalidResponse,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/query/5804139/results", r.URL.Path)
				assert.Equal(t, "secret", r.Header.Get("X-Dune-API-Key"))
				assert.Empty(t, r.URL.Query().Get("api_key"))
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.mockResponse))
			}))
			defer mockServer.Close()

			client := NewClient(mockServer.URL, 5804139, "secret", 5*time.Second, zap.NewNop())
			rows, err := client.FetchRows(context.Background())

			if tc.expectedErr != nil {
				assert.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, rows)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tc.expectedRows)
		})
	}
}

func TestFetchRowsTimeout(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer mockServer.Close()

	client := NewClient(mockServer.URL, 1, "secret", 50*time.Millisecond, zap.NewNop())
	_, err := client.FetchRows(context.Background())
	assert.ErrorIs(t, err, ErrHTTPResponse)
}
