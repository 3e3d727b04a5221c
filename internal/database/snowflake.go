package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/models"
)

// SQLWarehouse runs the daily transaction query over database/sql.
type SQLWarehouse struct {
	DB     *sql.DB
	Query  string
	Args   []any
	logger *zap.Logger
}

// NewSQLWarehouse wraps an open *sql.DB.
func NewSQLWarehouse(db *sql.DB, query string, args []any, logger *zap.Logger) *SQLWarehouse {
	return &SQLWarehouse{
		DB:     db,
		Query:  query,
		Args:   args,
		logger: logger,
	}
}

// openSnowflake connects with key-pair (JWT) authentication.
func openSnowflake(ctx context.Context, s *Session, q DailyTxnsQuery) (Warehouse, error) {
	utc := "UTC"
	cfg := gosnowflake.Config{
		Account:       s.Creds.Account,
		User:          s.Creds.User,
		Authenticator: gosnowflake.AuthTypeJwt,
		PrivateKey:    s.PrivateKey,
		Warehouse:     s.Creds.Warehouse,
		Database:      s.Creds.Database,
		Schema:        s.Creds.Schema,
		Role:          s.Creds.Role,
		LoginTimeout:  s.Config.DialTimeout,
		Params: map[string]*string{
			"TIMEZONE": &utc,
		},
	}

	db := sql.OpenDB(gosnowflake.NewConnector(gosnowflake.SnowflakeDriver{}, cfg))
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, s.Config.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to Snowflake account %s: %w", s.Creds.Account, err)
	}
	s.Logger.Debug("connected to Snowflake", zap.String("account", s.Creds.Account), zap.String("warehouse", s.Creds.Warehouse))

	query, args := q.Snowflake()
	return NewSQLWarehouse(db, query, args, s.Logger), nil
}

// FetchDailyTxns runs the query and scans every row.
func (w *SQLWarehouse) FetchDailyTxns(ctx context.Context) ([]models.WarehouseRow, error) {
	start := time.Now()

	rows, err := w.DB.QueryContext(ctx, w.Query, w.Args...)
	if err != nil {
		return nil, fmt.Errorf("error executing daily transactions query: %w", err)
	}
	defer rows.Close()

	var result []models.WarehouseRow
	for rows.Next() {
		var row models.WarehouseRow
		if err := rows.Scan(&row.Date, &row.TxnsCount, &row.Chain); err != nil {
			return nil, fmt.Errorf("error scanning daily transactions row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily transactions rows: %w", err)
	}

	w.logger.Info("fetched warehouse rows", zap.Int("rows", len(result)), zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (w *SQLWarehouse) Close() error {
	return w.DB.Close()
}
