package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiplagat/pesaledger/internal/db"
	"github.com/kiplagat/pesaledger/internal/handlers"
	"github.com/kiplagat/pesaledger/internal/handlers/middleware"
	"github.com/kiplagat/pesaledger/internal/logger"
	"github.com/kiplagat/pesaledger/internal/repository/postgres"
	"github.com/kiplagat/pesaledger/internal/service/fee"
	"github.com/kiplagat/pesaledger/internal/service/transfer"
	"github.com/kiplagat/pesaledger/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	// The entry point owns the pool lifecycle, not the ledger code
	pool *pgxpool.Pool
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if c.PlatformHandle == "" {
		return nil, errors.New("platform wallet handle is required, set PLATFORM_WALLET or --platform-wallet")
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	walletService := wallet.NewService(storage.Wallet())
	if err := walletService.EnsurePlatformWallet(ctx, c.PlatformHandle); err != nil {
		pool.Close()
		return nil, err
	}

	transferService, err := transfer.NewService(
		transfer.Config{PlatformHandle: c.PlatformHandle},
		storage,
		fee.FromBasisPoints(c.FeeBasisPoints),
		logger,
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error while creating transfer service. Err: %w", err)
	}

	// Initialize handlers
	walletHandler := handlers.NewWallet(walletService, logger)
	transferHandler := handlers.NewTransfer(transferService, logger)

	mux := handlers.NewRouter(
		walletHandler,
		transferHandler,
		middleware.LoggerMiddleware(logger),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		pool:       pool,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	s.pool.Close()

	return err
}
