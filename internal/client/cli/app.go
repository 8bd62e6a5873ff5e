package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"

	"github.com/kymbms/name-card-manage/internal/client/config"
	"github.com/kymbms/name-card-manage/internal/client/localstore"
	"github.com/kymbms/name-card-manage/internal/client/migration"
	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/client/remote"
	"github.com/kymbms/name-card-manage/internal/client/sync"
	"github.com/kymbms/name-card-manage/internal/logging"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	local   *localstore.Store
	remote  remote.Store
	engine  *sync.Engine
	migrate *migration.Service
	reader  *bufio.Reader
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	sl := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	logger := logging.NewSlogLogger(sl)

	local, err := localstore.Open(ctx, c.DatabaseDSN, logger)
	if err != nil {
		return nil, fmt.Errorf("error opening local store: %w", err)
	}
	// scrub namespaces from pre-namespacing schema versions once per start
	if err := local.PurgeLegacy(ctx); err != nil {
		logger.Warn(ctx, "legacy namespace scrub failed", "error", err)
	}

	store := remote.NewWSStore(c.ServerEndpointAddr, logger)
	store.SetTimeout(c.RemoteTimeout)
	if err := store.Connect(ctx); err != nil {
		// offline start is fine; card commands keep working on the cache
		logger.Warn(ctx, "server unreachable, starting offline", "error", err)
	}

	migrate := migration.NewService(local, store, logger)
	engine := sync.NewEngine(local, store, migrate, logger, c.LoadingTimeout)
	engine.SetIdentity(ctx, models.Guest)

	return &App{
		config:  c,
		logger:  logger,
		local:   local,
		remote:  store,
		engine:  engine,
		migrate: migrate,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return !a.engine.Identity().IsGuest()
}

func (a *App) getStatus() string {
	if id := a.engine.Identity(); !id.IsGuest() {
		return fmt.Sprintf("(%s)", string(id))
	}
	return "(guest)"
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.engine.Close()
		_ = a.remote.Close(ctx)
		_ = a.local.Close()
	}()

	printlnFn("Welcome to the card manager CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}
