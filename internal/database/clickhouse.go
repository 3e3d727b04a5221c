package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/models"
)

const defaultClickHouseAddr = "127.0.0.1:9000"

// ClickHouseWarehouse runs the daily transaction query on ClickHouse.
type ClickHouseWarehouse struct {
	Conn   clickhouse.Conn
	Query  string
	Args   []any
	logger *zap.Logger
}

// openClickHouse initializes a ClickHouse connection and checks it with a ping.
func openClickHouse(ctx context.Context, s *Session, q DailyTxnsQuery) (Warehouse, error) {
	addr := s.Creds.Addr
	if addr == "" {
		addr = defaultClickHouseAddr
	}
	database := s.Creds.Database
	if database == "" {
		database = "default"
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: s.Creds.User,
			Password: s.Creds.Password,
		},
		DialTimeout: s.Config.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ClickHouse ping failed: %w", err)
	}
	s.Logger.Debug("connected to ClickHouse", zap.String("addr", addr), zap.String("database", database))

	query, args := q.ClickHouse()
	return &ClickHouseWarehouse{
		Conn:   conn,
		Query:  query,
		Args:   args,
		logger: s.Logger,
	}, nil
}

func (w *ClickHouseWarehouse) FetchDailyTxns(ctx context.Context) ([]models.WarehouseRow, error) {
	start := time.Now()

	var rows []models.WarehouseRow
	if err := w.Conn.Select(ctx, &rows, w.Query, w.Args...); err != nil {
		return nil, fmt.Errorf("error executing daily transactions query: %w", err)
	}

	w.logger.Info("fetched warehouse rows", zap.Int("rows", len(rows)), zap.Duration("elapsed", time.Since(start)))
	return rows, nil
}

func (w *ClickHouseWarehouse) Close() error {
	return w.Conn.Close()
}
