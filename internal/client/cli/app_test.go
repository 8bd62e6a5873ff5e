package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kymbms/name-card-manage/internal/client/config"
	"github.com/kymbms/name-card-manage/internal/client/localstore"
	"github.com/kymbms/name-card-manage/internal/client/models"
	"github.com/kymbms/name-card-manage/internal/logging"
)

func TestNewAppScrubsLegacyNamespaces(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "cards.db")
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// leave data behind under a namespace from before per-identity storage
	seeded, err := localstore.Open(ctx, dsn, logger)
	require.NoError(t, err)
	require.NoError(t, seeded.WriteContacts(ctx, models.Identity("default"), []models.Contact{{ID: 1, Name: "Old"}}))
	require.NoError(t, seeded.Close())

	cfg := &config.Config{
		ServerEndpointAddr: "ws://127.0.0.1:1/sync", // nothing listens; offline start
		DatabaseDSN:        dsn,
		RemoteTimeout:      time.Second,
		LoadingTimeout:     time.Second,
	}
	app, err := NewApp(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.engine.Close()
		_ = app.remote.Close(ctx)
		_ = app.local.Close()
	})

	assert.Empty(t, app.local.ReadContacts(ctx, models.Identity("default"), false))
}
