package quota

import (
	"encoding/json"
	"fmt"
	"time"

	"intellect/internal/db"
	"intellect/internal/model"

	"gorm.io/datatypes"
)

// RollingWindowPolicy counts ledger rows for an identity within the trailing
// window. Consume appends one immutable UsageRecord; rows stop counting once
// they age out of the window.
//
// The check and the write are separate reads and writes, so two concurrent
// requests from the same identity can both pass the check before either
// record lands. The fixed-counter policy provides the stronger guarantee.
type RollingWindowPolicy struct {
	store  db.Service
	action string
	limit  int
	window time.Duration
}

// NewRollingWindowPolicy creates a rolling-window policy over the usage ledger.
func NewRollingWindowPolicy(store db.Service, settings Settings) *RollingWindowPolicy {
	return &RollingWindowPolicy{
		store:  store,
		action: settings.Action,
		limit:  settings.Limit,
		window: settings.Window,
	}
}

// Check counts in-window usage. On denial, RetryAt is the instant the oldest
// in-window record expires.
func (p *RollingWindowPolicy) Check(identity string) (Decision, error) {
	since := time.Now().Add(-p.window)

	count, err := p.store.CountUsageSince(identity, p.action, since)
	if err != nil {
		return Decision{}, err
	}

	if count >= int64(p.limit) {
		decision := Decision{Admitted: false, Remaining: 0}
		oldest, err := p.store.OldestUsageSince(identity, p.action, since)
		if err != nil {
			return Decision{}, err
		}
		if oldest != nil {
			retryAt := oldest.Timestamp.Add(p.window)
			decision.RetryAt = &retryAt
		}
		return decision, nil
	}

	return Decision{
		Admitted:  true,
		Remaining: clampRemaining(p.limit - int(count) - 1),
	}, nil
}

// Consume appends one ledger row for the identity.
func (p *RollingWindowPolicy) Consume(identity string, metadata map[string]interface{}) error {
	record := &model.UsageRecord{
		Identity:   identity,
		ActionType: p.action,
		Timestamp:  time.Now(),
	}
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode usage metadata: %w", err)
		}
		record.Metadata = datatypes.JSON(data)
	}
	return p.store.CreateUsageRecord(record)
}
