package db

import (
	"testing"
	"time"

	"intellect/internal/config"
	"intellect/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB creates a new in-memory SQLite database and returns a Service and the raw *gorm.DB.
func setupTestDB(t *testing.T) (Service, *gorm.DB) {
	service, err := NewService(config.DatabaseConfig{
		Type: "sqlite",
		DSN:  "file::memory:",
	})
	if err != nil {
		t.Fatalf("Failed to create test db service: %v", err)
	}
	return service, service.GetDB()
}

func TestNewService(t *testing.T) {
	// Test with sqlite
	service, err := NewService(config.DatabaseConfig{Type: "sqlite", DSN: "file::memory:"})
	assert.NoError(t, err)
	assert.NotNil(t, service)

	// Test with unsupported type
	_, err = NewService(config.DatabaseConfig{Type: "unsupported"})
	assert.Error(t, err)
}

func TestListAdvocatesByCountry(t *testing.T) {
	service, db := setupTestDB(t)
	db.Create(&model.Advocate{SlNo: 1, Name: "Jane Doe", Country: "India"})
	db.Create(&model.Advocate{SlNo: 2, Name: "John Smith", Country: "United States"})
	db.Create(&model.Advocate{SlNo: 3, Name: "Asha Rao", Country: "India"})

	advocates, err := service.ListAdvocatesByCountry("india")
	assert.NoError(t, err)
	assert.Len(t, advocates, 2)
	assert.Equal(t, "Jane Doe", advocates[0].Name)
	assert.Equal(t, "Asha Rao", advocates[1].Name)

	// Partial match
	advocates, err = service.ListAdvocatesByCountry("united")
	assert.NoError(t, err)
	assert.Len(t, advocates, 1)

	// Empty filter returns everyone
	advocates, err = service.ListAdvocatesByCountry("")
	assert.NoError(t, err)
	assert.Len(t, advocates, 3)

	// No matches
	advocates, err = service.ListAdvocatesByCountry("germany")
	assert.NoError(t, err)
	assert.Empty(t, advocates)
}

func TestFindAdvocateByNameAndCountry(t *testing.T) {
	service, db := setupTestDB(t)
	db.Create(&model.Advocate{SlNo: 1, Name: "Jane Doe", Country: "India"})
	db.Create(&model.Advocate{SlNo: 2, Name: "Jane Doe", Country: "United States"})

	t.Run("case-insensitive name lookup", func(t *testing.T) {
		advocate, err := service.FindAdvocateByNameAndCountry("jane doe", "India")
		require.NoError(t, err)
		require.NotNil(t, advocate)
		assert.Equal(t, "India", advocate.Country)
	})

	t.Run("jurisdiction binds the lookup", func(t *testing.T) {
		advocate, err := service.FindAdvocateByNameAndCountry("Jane Doe", "united states")
		require.NoError(t, err)
		require.NotNil(t, advocate)
		assert.Equal(t, "United States", advocate.Country)
	})

	t.Run("unknown advocate returns nil without error", func(t *testing.T) {
		advocate, err := service.FindAdvocateByNameAndCountry("Nobody", "India")
		require.NoError(t, err)
		assert.Nil(t, advocate)
	})
}

func TestAdvocateCRUD(t *testing.T) {
	service, _ := setupTestDB(t)

	advocate := &model.Advocate{SlNo: 7, Name: "Asha Rao", Country: "India", Rating: 8.5}
	require.NoError(t, service.CreateAdvocate(advocate))
	require.NotZero(t, advocate.ID)

	loaded, err := service.GetAdvocate(advocate.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", loaded.Name)

	loaded.Rating = 9.0
	require.NoError(t, service.UpdateAdvocate(loaded))

	updated, err := service.GetAdvocate(advocate.ID)
	require.NoError(t, err)
	assert.Equal(t, 9.0, updated.Rating)

	require.NoError(t, service.DeleteAdvocate(advocate.ID))
	_, err = service.GetAdvocate(advocate.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsageLedger(t *testing.T) {
	service, _ := setupTestDB(t)
	now := time.Now()

	for _, offset := range []time.Duration{-30 * time.Hour, -3 * time.Hour, -1 * time.Hour} {
		require.NoError(t, service.CreateUsageRecord(&model.UsageRecord{
			Identity:   "0xabc",
			ActionType: model.ActionEnforcementSearch,
			Timestamp:  now.Add(offset),
		}))
	}
	// A different identity and a different action must not count.
	require.NoError(t, service.CreateUsageRecord(&model.UsageRecord{
		Identity:   "0xdef",
		ActionType: model.ActionEnforcementSearch,
		Timestamp:  now,
	}))
	require.NoError(t, service.CreateUsageRecord(&model.UsageRecord{
		Identity:   "0xabc",
		ActionType: model.ActionImageGeneration,
		Timestamp:  now,
	}))

	since := now.Add(-24 * time.Hour)

	count, err := service.CountUsageSince("0xabc", model.ActionEnforcementSearch, since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	oldest, err := service.OldestUsageSince("0xabc", model.ActionEnforcementSearch, since)
	require.NoError(t, err)
	require.NotNil(t, oldest)
	assert.WithinDuration(t, now.Add(-3*time.Hour), oldest.Timestamp, time.Second)

	// No in-window usage yields nil, not an error.
	oldest, err = service.OldestUsageSince("0xnobody", model.ActionEnforcementSearch, since)
	require.NoError(t, err)
	assert.Nil(t, oldest)
}

func TestPurgeUsageBefore(t *testing.T) {
	service, _ := setupTestDB(t)
	now := time.Now()

	require.NoError(t, service.CreateUsageRecord(&model.UsageRecord{
		Identity: "0xabc", ActionType: model.ActionEnforcementSearch, Timestamp: now.Add(-96 * time.Hour),
	}))
	require.NoError(t, service.CreateUsageRecord(&model.UsageRecord{
		Identity: "0xabc", ActionType: model.ActionEnforcementSearch, Timestamp: now,
	}))

	removed, err := service.PurgeUsageBefore(now.Add(-72 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	records, err := service.ListUsageRecords("0xabc", "", 10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConsumeUsageCounter(t *testing.T) {
	service, db := setupTestDB(t)
	cooldown := time.Hour

	t.Run("first consume creates the counter", func(t *testing.T) {
		counter, err := service.ConsumeUsageCounter("0xabc", model.ActionImageGeneration, 3, cooldown)
		require.NoError(t, err)
		assert.Equal(t, 1, counter.Count)
		assert.Nil(t, counter.BlockedUntil)
	})

	t.Run("reaching the limit sets the cooldown proactively", func(t *testing.T) {
		_, err := service.ConsumeUsageCounter("0xabc", model.ActionImageGeneration, 3, cooldown)
		require.NoError(t, err)
		counter, err := service.ConsumeUsageCounter("0xabc", model.ActionImageGeneration, 3, cooldown)
		require.NoError(t, err)
		assert.Equal(t, 3, counter.Count)
		require.NotNil(t, counter.BlockedUntil)
		assert.WithinDuration(t, time.Now().Add(cooldown), *counter.BlockedUntil, 5*time.Second)
	})

	t.Run("elapsed cooldown resets the epoch", func(t *testing.T) {
		past := time.Now().Add(-time.Minute)
		require.NoError(t, db.Model(&model.UsageCounter{}).
			Where("identity = ? AND action_type = ?", "0xabc", model.ActionImageGeneration).
			Update("blocked_until", past).Error)

		counter, err := service.ConsumeUsageCounter("0xabc", model.ActionImageGeneration, 3, cooldown)
		require.NoError(t, err)
		assert.Equal(t, 1, counter.Count)
		assert.Nil(t, counter.BlockedUntil)
	})
}

func TestGetUsageCounter(t *testing.T) {
	service, _ := setupTestDB(t)

	counter, err := service.GetUsageCounter("0xmissing", model.ActionImageGeneration)
	require.NoError(t, err)
	assert.Nil(t, counter)

	_, err = service.ConsumeUsageCounter("0xabc", model.ActionImageGeneration, 2, time.Hour)
	require.NoError(t, err)

	counter, err = service.GetUsageCounter("0xabc", model.ActionImageGeneration)
	require.NoError(t, err)
	require.NotNil(t, counter)
	assert.Equal(t, 1, counter.Count)
}
