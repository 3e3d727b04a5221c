package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/estensen/chain-dashboard/internal/aggregator"
	"github.com/estensen/chain-dashboard/internal/api"
	"github.com/estensen/chain-dashboard/internal/config"
	"github.com/estensen/chain-dashboard/internal/dashboard"
	"github.com/estensen/chain-dashboard/internal/database"
	"github.com/estensen/chain-dashboard/internal/dune"
	"github.com/estensen/chain-dashboard/internal/harmonizer"
	"github.com/estensen/chain-dashboard/internal/logging"
	"github.com/estensen/chain-dashboard/internal/render"
	"github.com/estensen/chain-dashboard/internal/secrets"
	"github.com/estensen/chain-dashboard/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "build the summary once, print it as a table and exit")
	addr := flag.String("addr", "", "listen address, overrides HTTP_ADDR")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *once, logger); err != nil {
		logger.Error("dashboard exited", zap.String("class", string(dashboard.ClassOf(err))), zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, once bool, logger *zap.Logger) error {
	src, err := secretsSource(ctx, cfg.Secrets, logger)
	if err != nil {
		return &dashboard.StageError{Class: dashboard.ClassConfig, Err: err}
	}

	creds, err := secrets.Load(ctx, src)
	if err != nil {
		return &dashboard.StageError{Class: dashboard.ClassConfig, Err: err}
	}
	logger.Info("secrets loaded", zap.Stringer("source", src))

	session, err := database.NewSession(cfg.Warehouse, creds.Warehouse, logger)
	if err != nil {
		return &dashboard.StageError{Class: dashboard.ClassConfig, Err: err}
	}

	display, err := config.LoadDisplayOptions(cfg.DisplayFile)
	if err != nil {
		return &dashboard.StageError{Class: dashboard.ClassConfig, Err: err}
	}

	client := dune.NewClient(cfg.API.BaseURL, cfg.API.QueryID, creds.APIKey, cfg.API.Timeout, logger)
	service := dashboard.NewService(
		client,
		session,
		harmonizer.NewHarmonizer(cfg.API.Fields),
		aggregator.NewAggregator(),
		cfg.Warehouse.QueryTimeout,
		logger,
	)

	if once {
		summary, err := service.Build(ctx)
		if err != nil {
			return err
		}
		render.Table(os.Stdout, summary)
		return nil
	}

	server := api.NewServer(service, render.NewRenderer(display), logger)
	return api.StartServer(ctx, cfg.HTTP.Addr, cfg.HTTP.WriteTimeout, server)
}

// secretsSource reads from the bucket when one is configured, otherwise from
// the local secrets file.
func secretsSource(ctx context.Context, cfg config.SecretsConfig, logger *zap.Logger) (secrets.Source, error) {
	if cfg.Bucket == "" {
		return secrets.FileSource{Path: cfg.File}, nil
	}

	store, err := storage.NewMinIOStorage(ctx, storage.Options{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		UseSSL:    cfg.UseSSL,
	}, logger)
	if err != nil {
		return nil, err
	}
	return secrets.ObjectSource{Storage: store, Bucket: cfg.Bucket, Object: cfg.Object}, nil
}
