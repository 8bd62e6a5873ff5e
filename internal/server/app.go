// Package server initializes and runs the card server: it opens the
// database, applies migrations, wires the services, and starts the
// websocket endpoint with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kymbms/name-card-manage/internal/logging"
	"github.com/kymbms/name-card-manage/internal/server/config"
	"github.com/kymbms/name-card-manage/internal/server/repositories/repomanager"
	"github.com/kymbms/name-card-manage/internal/server/services"
	"github.com/kymbms/name-card-manage/internal/server/ws"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *ws.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	userService := services.NewUserService(db, rm, cfg)
	cardService := services.NewCardService(db, rm)

	hub := ws.NewHub(logger)
	handler := ws.NewHandler(userService, cardService, hub, logger)
	server := ws.NewServer(cfg.EndpointAddr, handler, logger)

	return &App{config: cfg, logger: logger, db: db, server: server}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
