package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action types for the usage ledger.
const (
	ActionEnforcementSearch = "enforcement_search"
	ActionImageGeneration   = "image_generation"
)

// UsageRecord is one consumed action by one identity. Records are immutable
// once created; the rolling-window policy counts them and the retention
// scheduler eventually purges them.
type UsageRecord struct {
	gorm.Model
	Identity   string         `gorm:"type:varchar(255);not null;index:idx_usage_identity_action"`
	ActionType string         `gorm:"type:varchar(50);not null;index:idx_usage_identity_action"`
	Timestamp  time.Time      `gorm:"not null;index"`
	Metadata   datatypes.JSON `gorm:"type:json"`
}

// UsageCounter is the per-identity aggregate used by the fixed-counter
// policy. Count only moves up within an epoch; a set BlockedUntil in the
// future denies all actions for the identity regardless of Count.
type UsageCounter struct {
	gorm.Model
	Identity     string     `gorm:"type:varchar(255);not null;uniqueIndex:idx_counter_identity_action"`
	ActionType   string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_counter_identity_action"`
	Count        int        `gorm:"default:0;not null"`
	BlockedUntil *time.Time `gorm:"index"`
}
