package scheduler

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"intellect/internal/config"
	"intellect/internal/db"
	"intellect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) db.Service {
	service, err := db.NewService(config.DatabaseConfig{Type: "sqlite", DSN: "file::memory:"})
	if err != nil {
		t.Fatalf("Failed to create test db service: %v", err)
	}
	return service
}

func TestPurgeUsage(t *testing.T) {
	store := setupTestStore(t)
	now := time.Now()

	require.NoError(t, store.CreateUsageRecord(&model.UsageRecord{
		Identity: "0xold", ActionType: model.ActionEnforcementSearch, Timestamp: now.Add(-100 * time.Hour),
	}))
	require.NoError(t, store.CreateUsageRecord(&model.UsageRecord{
		Identity: "0xnew", ActionType: model.ActionEnforcementSearch, Timestamp: now,
	}))

	s := New(store, 72*time.Hour, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	s.purgeUsage()

	records, err := store.ListUsageRecords("", "", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "0xnew", records[0].Identity)
}

func TestStartStop(t *testing.T) {
	store := setupTestStore(t)
	s := New(store, 72*time.Hour, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	require.NoError(t, s.Start())
	s.Stop()
}
