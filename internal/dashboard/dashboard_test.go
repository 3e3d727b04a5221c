package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/aggregator"
	"github.com/estensen/chain-dashboard/internal/database"
	"github.com/estensen/chain-dashboard/internal/harmonizer"
	"github.com/estensen/chain-dashboard/internal/models"
	"github.com/estensen/chain-dashboard/internal/parser"
)

type stubAPI struct {
	rows []models.APIRow
	err  error
}

func (s stubAPI) FetchRows(context.Context) ([]models.APIRow, error) {
	return s.rows, s.err
}

type stubWarehouse struct {
	rows     []models.WarehouseRow
	err      error
	closed   bool
	deadline bool
}

func (s *stubWarehouse) FetchDailyTxns(ctx context.Context) ([]models.WarehouseRow, error) {
	_, s.deadline = ctx.Deadline()
	return s.rows, s.err
}

func (s *stubWarehouse) Close() error {
	s.closed = true
	return nil
}

type stubOpener struct {
	wh  *stubWarehouse
	err error
}

func (s stubOpener) Open(context.Context) (database.Warehouse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.wh, nil
}

func newService(api stubAPI, opener stubOpener) *Service {
	return NewService(api, opener,
		harmonizer.NewHarmonizer(parser.DefaultFields()),
		aggregator.NewAggregator(),
		time.Minute,
		zap.NewNop(),
	)
}

func TestBuild(t *testing.T) {
	api := stubAPI{rows: []models.APIRow{
		{"Date": "2024-01-01", "Txns Count": json.Number("100"), "Chain": "X"},
	}}
	wh := &stubWarehouse{rows: []models.WarehouseRow{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), TxnsCount: 50, Chain: "Axelar"},
	}}

	summary, err := newService(api, stubOpener{wh: wh}).Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.Dataset, 2)
	assert.Equal(t, 1, summary.APIRows)
	assert.Equal(t, 1, summary.WarehouseRows)
	assert.Equal(t, models.Ranking{{Chain: "X", TxnsCount: 100}, {Chain: "Axelar", TxnsCount: 50}}, summary.Totals)
	assert.Equal(t, models.Ranking{{Chain: "X", TxnsCount: 100}, {Chain: "Axelar", TxnsCount: 50}}, summary.Averages)
	assert.Equal(t, []string{"Axelar", "X"}, summary.Series.Chains)
	assert.True(t, wh.closed)
	assert.True(t, wh.deadline, "warehouse query must run with a deadline")
}

func TestBuildEmptyWarehouse(t *testing.T) {
	api := stubAPI{rows: []models.APIRow{
		{"Date": "2024-01-01", "Txns Count": json.Number("100"), "Chain": "X"},
	}}
	wh := &stubWarehouse{}

	summary, err := newService(api, stubOpener{wh: wh}).Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, summary.Dataset, 1)
	assert.Equal(t, 0, summary.WarehouseRows)
}

func TestBuildFailures(t *testing.T) {
	validRows := []models.APIRow{{"Date": "2024-01-01", "Txns Count": json.Number("1"), "Chain": "X"}}

	tests := []struct {
		name          string
		api           stubAPI
		opener        stubOpener
		expectedClass Class
		expectedErr   error
		expectClosed  bool
	}{
		{
			name:          "API failure",
			api:           stubAPI{err: errors.New("boom")},
			opener:        stubOpener{wh: &stubWarehouse{}},
			expectedClass: ClassAPI,
		},
		{
			name:          "Warehouse connection failure",
			api:           stubAPI{rows: validRows},
			opener:        stubOpener{err: errors.New("auth failed")},
			expectedClass: ClassWarehouse,
		},
		{
			name:          "Warehouse query failure",
			api:           stubAPI{rows: validRows},
			opener:        stubOpener{wh: &stubWarehouse{err: errors.New("timeout")}},
			expectedClass: ClassWarehouse,
			expectClosed:  true,
		},
		{
			name:          "Both sources empty",
			api:           stubAPI{rows: []models.APIRow{}},
			opener:        stubOpener{wh: &stubWarehouse{}},
			expectedClass: ClassData,
			expectedErr:   harmonizer.ErrEmptySource,
			expectClosed:  true,
		},
		{
			name:          "Bad count",
			api:           stubAPI{rows: []models.APIRow{{"Date": "2024-01-01", "Txns Count": "many", "Chain": "X"}}},
			opener:        stubOpener{wh: &stubWarehouse{}},
			expectedClass: ClassData,
			expectedErr:   parser.ErrInvalidCount,
			expectClosed:  true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			summary, err := newService(tc.api, tc.opener).Build(context.Background())
			require.Error(t, err)
			assert.Nil(t, summary)
			assert.Equal(t, tc.expectedClass, ClassOf(err))

			var stageErr *StageError
			require.True(t, errors.As(err, &stageErr))
			assert.NotEmpty(t, stageErr.RunID)

			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
			}
			if tc.opener.wh != nil {
				assert.Equal(t, tc.expectClosed, tc.opener.wh.closed)
			}
		})
	}
}
