package database

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/config"
	"github.com/estensen/chain-dashboard/internal/models"
	"github.com/estensen/chain-dashboard/internal/secrets"
)

func testQuery() DailyTxnsQuery {
	return DailyTxnsQuery{
		Table:        "AXELAR.CORE.FACT_TRANSACTIONS",
		Chain:        "Axelar",
		LookbackDays: 30,
	}
}

func TestFetchDailyTxns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	query, args := testQuery().Snowflake()
	wh := NewSQLWarehouse(db, query, args, zap.NewNop())

	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM AXELAR.CORE.FACT_TRANSACTIONS")).
		WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"Date", "Txns Count", "Chain"}).
			AddRow(day1, int64(50), "Axelar").
			AddRow(day2, int64(70), "Axelar"))
	mock.ExpectClose()

	rows, err := wh.FetchDailyTxns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.WarehouseRow{
		{Date: day1, TxnsCount: 50, Chain: "Axelar"},
		{Date: day2, TxnsCount: 70, Chain: "Axelar"},
	}, rows)

	require.NoError(t, wh.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchDailyTxnsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query, args := testQuery().Snowflake()
	wh := NewSQLWarehouse(db, query, args, zap.NewNop())

	mock.ExpectQuery("SELECT").WithArgs(30).
		WillReturnRows(sqlmock.NewRows([]string{"Date", "Txns Count", "Chain"}))

	rows, err := wh.FetchDailyTxns(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchDailyTxnsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query, args := testQuery().Snowflake()
	wh := NewSQLWarehouse(db, query, args, zap.NewNop())

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("warehouse suspended"))

	_, err = wh.FetchDailyTxns(context.Background())
	assert.ErrorContains(t, err, "warehouse suspended")
}

func TestDailyTxnsQuery(t *testing.T) {
	q := testQuery()

	sf, sfArgs := q.Snowflake()
	assert.Contains(t, sf, `date_trunc('day', block_timestamp) AS "Date"`)
	assert.Contains(t, sf, `'Axelar' AS "Chain"`)
	assert.Contains(t, sf, "FROM AXELAR.CORE.FACT_TRANSACTIONS")
	assert.Equal(t, []any{30}, sfArgs)

	ch, chArgs := q.ClickHouse()
	assert.Contains(t, ch, "toStartOfDay(block_timestamp, 'UTC') AS date")
	assert.Contains(t, ch, "'Axelar' AS chain")
	assert.Contains(t, ch, ">= toDate(now(), 'UTC') - ?")
	assert.NotContains(t, ch, "today()")
	assert.Equal(t, []any{30}, chArgs)

	assert.Equal(t, `'O''Brien'`, quoteLiteral("O'Brien"))
}

type fakeWarehouse struct {
	closed bool
}

func (f *fakeWarehouse) FetchDailyTxns(context.Context) ([]models.WarehouseRow, error) {
	return nil, nil
}

func (f *fakeWarehouse) Close() error {
	f.closed = true
	return nil
}

type fakeOpener struct {
	wh  *fakeWarehouse
	err error
}

func (f fakeOpener) Open(context.Context) (Warehouse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.wh, nil
}

func TestWithWarehouseAlwaysCloses(t *testing.T) {
	tests := []struct {
		name      string
		fnErr     error
		expectErr bool
	}{
		{name: "Success"},
		{name: "Fetch failure", fnErr: errors.New("query failed"), expectErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wh := &fakeWarehouse{}
			err := WithWarehouse(context.Background(), fakeOpener{wh: wh}, func(Warehouse) error {
				return tc.fnErr
			})
			if tc.expectErr {
				assert.ErrorIs(t, err, tc.fnErr)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, wh.closed)
		})
	}
}

func TestWithWarehouseOpenFailure(t *testing.T) {
	openErr := errors.New("auth failed")
	called := false

	err := WithWarehouse(context.Background(), fakeOpener{err: openErr}, func(Warehouse) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, openErr)
	assert.False(t, called)
}

func TestNewSession(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	keyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))

	snowflake := config.WarehouseConfig{Driver: config.DriverSnowflake}
	clickhouse := config.WarehouseConfig{Driver: config.DriverClickHouse}

	s, err := NewSession(snowflake, secrets.Warehouse{Account: "a", User: "u", PrivateKey: keyPEM}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, key.Equal(s.PrivateKey))

	_, err = NewSession(snowflake, secrets.Warehouse{Account: "a", User: "u"}, zap.NewNop())
	assert.ErrorIs(t, err, secrets.ErrMissingSecret)

	_, err = NewSession(snowflake, secrets.Warehouse{Account: "a", User: "u", PrivateKey: "bogus"}, zap.NewNop())
	assert.ErrorIs(t, err, secrets.ErrInvalidPrivateKey)

	s, err = NewSession(clickhouse, secrets.Warehouse{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, s.PrivateKey)

	_, err = NewSession(config.WarehouseConfig{Driver: "oracle"}, secrets.Warehouse{}, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
