package database

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/config"
	"github.com/estensen/chain-dashboard/internal/models"
	"github.com/estensen/chain-dashboard/internal/secrets"
)

// Warehouse runs the daily transaction query against a data warehouse.
type Warehouse interface {
	FetchDailyTxns(ctx context.Context) ([]models.WarehouseRow, error)
	Close() error
}

// Opener opens a new warehouse connection.
type Opener interface {
	Open(ctx context.Context) (Warehouse, error)
}

// Session holds everything needed to open a warehouse connection. It is built
// once at startup; each dashboard run opens and closes its own connection.
type Session struct {
	Config     config.WarehouseConfig
	Creds      secrets.Warehouse
	PrivateKey *rsa.PrivateKey
	Logger     *zap.Logger
}

// NewSession validates the credentials for the configured driver and decodes
// the private key when key-pair authentication is used.
func NewSession(cfg config.WarehouseConfig, creds secrets.Warehouse, logger *zap.Logger) (*Session, error) {
	s := &Session{
		Config: cfg,
		Creds:  creds,
		Logger: logger,
	}

	switch cfg.Driver {
	case config.DriverSnowflake:
		if err := creds.RequireKeyPair(); err != nil {
			return nil, err
		}
		key, err := secrets.DecodePrivateKey(creds.PrivateKey)
		if err != nil {
			return nil, err
		}
		s.PrivateKey = key
	case config.DriverClickHouse:
	default:
		return nil, fmt.Errorf("%w: unknown warehouse driver %q", config.ErrInvalidConfig, cfg.Driver)
	}

	return s, nil
}

// Open connects to the configured warehouse.
func (s *Session) Open(ctx context.Context) (Warehouse, error) {
	q := DailyTxnsQuery{
		Table:        s.Config.Table,
		Chain:        s.Config.Chain,
		LookbackDays: s.Config.LookbackDays,
	}

	switch s.Config.Driver {
	case config.DriverSnowflake:
		return openSnowflake(ctx, s, q)
	case config.DriverClickHouse:
		return openClickHouse(ctx, s, q)
	default:
		return nil, fmt.Errorf("%w: unknown warehouse driver %q", config.ErrInvalidConfig, s.Config.Driver)
	}
}

// WithWarehouse opens a connection, passes it to fn and always closes it.
func WithWarehouse(ctx context.Context, opener Opener, fn func(Warehouse) error) (err error) {
	wh, err := opener.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wh.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("closing warehouse connection: %w", cerr))
		}
	}()

	return fn(wh)
}
