package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"intellect/internal/config"
	"intellect/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Service defines the interface for database operations. This allows for
// mocking in tests and decouples handlers and quota policies from the
// concrete gorm implementation.
type Service interface {
	GetDB() *gorm.DB

	// Advocates
	ListAdvocatesByCountry(country string) ([]model.Advocate, error)
	FindAdvocateByNameAndCountry(name, country string) (*model.Advocate, error)
	ListAdvocates(page, limit int) ([]model.Advocate, int64, error)
	CreateAdvocate(advocate *model.Advocate) error
	GetAdvocate(id uint) (*model.Advocate, error)
	UpdateAdvocate(advocate *model.Advocate) error
	DeleteAdvocate(id uint) error

	// Usage ledger
	CreateUsageRecord(record *model.UsageRecord) error
	CountUsageSince(identity, actionType string, since time.Time) (int64, error)
	OldestUsageSince(identity, actionType string, since time.Time) (*model.UsageRecord, error)
	ListUsageRecords(identity, actionType string, limit int) ([]model.UsageRecord, error)
	PurgeUsageBefore(cutoff time.Time) (int64, error)

	// Usage counters
	GetUsageCounter(identity, actionType string) (*model.UsageCounter, error)
	ConsumeUsageCounter(identity, actionType string, limit int, cooldown time.Duration) (*model.UsageCounter, error)
}

type service struct {
	db *gorm.DB
}

// NewService initializes the database connection based on the provided
// configuration and returns a Service.
func NewService(cfg config.DatabaseConfig) (Service, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto-migrate the schema
	err = db.AutoMigrate(&model.Advocate{}, &model.UsageRecord{}, &model.UsageCounter{})
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	return &service{db: db}, nil
}

// GetDB returns the underlying gorm.DB instance.
func (s *service) GetDB() *gorm.DB {
	return s.db
}

// ListAdvocatesByCountry retrieves advocates whose country contains the given
// value, case-insensitively. An empty country returns all advocates.
func (s *service) ListAdvocatesByCountry(country string) ([]model.Advocate, error) {
	var advocates []model.Advocate
	query := s.db.Model(&model.Advocate{})
	if country != "" {
		query = query.Where("LOWER(country) LIKE ?", "%"+strings.ToLower(country)+"%")
	}
	if err := query.Order("sl_no asc").Find(&advocates).Error; err != nil {
		return nil, fmt.Errorf("failed to list advocates: %w", err)
	}
	return advocates, nil
}

// FindAdvocateByNameAndCountry looks up an advocate whose name contains the
// given value and whose country matches the requested jurisdiction, both
// case-insensitively. It returns nil without an error when no advocate
// matches, so a same-named advocate from another country is never returned.
func (s *service) FindAdvocateByNameAndCountry(name, country string) (*model.Advocate, error) {
	var advocate model.Advocate
	query := s.db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	if country != "" {
		query = query.Where("LOWER(country) LIKE ?", "%"+strings.ToLower(country)+"%")
	}
	err := query.First(&advocate).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find advocate: %w", err)
	}
	return &advocate, nil
}

// ListAdvocates retrieves a page of advocates and the total count.
func (s *service) ListAdvocates(page, limit int) ([]model.Advocate, int64, error) {
	var advocates []model.Advocate
	var total int64

	if err := s.db.Model(&model.Advocate{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count advocates: %w", err)
	}

	offset := (page - 1) * limit
	if err := s.db.Order("sl_no asc").Offset(offset).Limit(limit).Find(&advocates).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list advocates: %w", err)
	}
	return advocates, total, nil
}

func (s *service) CreateAdvocate(advocate *model.Advocate) error {
	if err := s.db.Create(advocate).Error; err != nil {
		return fmt.Errorf("failed to create advocate: %w", err)
	}
	return nil
}

func (s *service) GetAdvocate(id uint) (*model.Advocate, error) {
	var advocate model.Advocate
	if err := s.db.First(&advocate, id).Error; err != nil {
		return nil, err
	}
	return &advocate, nil
}

func (s *service) UpdateAdvocate(advocate *model.Advocate) error {
	if err := s.db.Save(advocate).Error; err != nil {
		return fmt.Errorf("failed to update advocate: %w", err)
	}
	return nil
}

func (s *service) DeleteAdvocate(id uint) error {
	if err := s.db.Delete(&model.Advocate{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete advocate: %w", err)
	}
	return nil
}

// CreateUsageRecord inserts one immutable ledger row. Records are never
// updated afterwards.
func (s *service) CreateUsageRecord(record *model.UsageRecord) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("failed to create usage record: %w", err)
	}
	return nil
}

// CountUsageSince counts ledger rows for an identity and action with a
// timestamp at or after the given instant.
func (s *service) CountUsageSince(identity, actionType string, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&model.UsageRecord{}).
		Where("identity = ? AND action_type = ? AND timestamp >= ?", identity, actionType, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count usage records: %w", err)
	}
	return count, nil
}

// OldestUsageSince returns the oldest in-window ledger row for an identity
// and action, or nil when there is none.
func (s *service) OldestUsageSince(identity, actionType string, since time.Time) (*model.UsageRecord, error) {
	var record model.UsageRecord
	err := s.db.
		Where("identity = ? AND action_type = ? AND timestamp >= ?", identity, actionType, since).
		Order("timestamp asc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load oldest usage record: %w", err)
	}
	return &record, nil
}

// ListUsageRecords retrieves recent ledger rows, newest first, optionally
// filtered by identity and action.
func (s *service) ListUsageRecords(identity, actionType string, limit int) ([]model.UsageRecord, error) {
	var records []model.UsageRecord
	query := s.db.Model(&model.UsageRecord{})
	if identity != "" {
		query = query.Where("identity = ?", identity)
	}
	if actionType != "" {
		query = query.Where("action_type = ?", actionType)
	}
	if err := query.Order("timestamp desc").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list usage records: %w", err)
	}
	return records, nil
}

// PurgeUsageBefore hard-deletes ledger rows older than the cutoff and returns
// the number of rows removed.
func (s *service) PurgeUsageBefore(cutoff time.Time) (int64, error) {
	result := s.db.Unscoped().
		Where("timestamp < ?", cutoff).
		Delete(&model.UsageRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge usage records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetUsageCounter returns the counter for an identity and action, or nil
// when the identity has never consumed the action.
func (s *service) GetUsageCounter(identity, actionType string) (*model.UsageCounter, error) {
	var counter model.UsageCounter
	err := s.db.Where("identity = ? AND action_type = ?", identity, actionType).First(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load usage counter: %w", err)
	}
	return &counter, nil
}

// ConsumeUsageCounter atomically applies one consumed action to the counter
// for an identity: an elapsed cooldown resets the epoch, the count is
// incremented, and reaching the limit sets BlockedUntil proactively. The
// whole step runs in a single transaction so concurrent duplicates cannot
// exceed the limit.
func (s *service) ConsumeUsageCounter(identity, actionType string, limit int, cooldown time.Duration) (*model.UsageCounter, error) {
	var counter model.UsageCounter
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("identity = ? AND action_type = ?", identity, actionType).First(&counter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = model.UsageCounter{Identity: identity, ActionType: actionType}
		} else if err != nil {
			return err
		}

		now := time.Now()
		if counter.BlockedUntil != nil && !counter.BlockedUntil.After(now) {
			counter.Count = 0
			counter.BlockedUntil = nil
		}

		counter.Count++
		if counter.Count >= limit {
			blockedUntil := now.Add(cooldown)
			counter.BlockedUntil = &blockedUntil
		}

		return tx.Save(&counter).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to consume usage counter: %w", err)
	}
	return &counter, nil
}
