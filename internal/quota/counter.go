package quota

import (
	"time"

	"intellect/internal/db"
)

// FixedCounterPolicy keeps one mutable counter per identity with a cooldown.
// An active BlockedUntil denies regardless of count; once it elapses the next
// consume resets the epoch. The consume step is a single transaction in the
// store, so concurrent duplicates cannot push the counter past the limit.
type FixedCounterPolicy struct {
	store    db.Service
	action   string
	limit    int
	cooldown time.Duration
}

// NewFixedCounterPolicy creates a fixed-counter policy over the usage counters.
func NewFixedCounterPolicy(store db.Service, settings Settings) *FixedCounterPolicy {
	return &FixedCounterPolicy{
		store:    store,
		action:   settings.Action,
		limit:    settings.Limit,
		cooldown: settings.Cooldown,
	}
}

// Check reads the counter without modifying it. An elapsed cooldown admits
// with the full allowance; the actual reset happens inside Consume's
// transaction so denial stays free of side effects.
func (p *FixedCounterPolicy) Check(identity string) (Decision, error) {
	counter, err := p.store.GetUsageCounter(identity, p.action)
	if err != nil {
		return Decision{}, err
	}
	if counter == nil {
		return Decision{Admitted: true, Remaining: clampRemaining(p.limit - 1)}, nil
	}

	now := time.Now()
	if counter.BlockedUntil != nil {
		if counter.BlockedUntil.After(now) {
			retryAt := *counter.BlockedUntil
			return Decision{Admitted: false, Remaining: 0, RetryAt: &retryAt}, nil
		}
		// Cooldown elapsed: the identity is fresh again.
		return Decision{Admitted: true, Remaining: clampRemaining(p.limit - 1)}, nil
	}

	if counter.Count >= p.limit {
		// Reaching the limit normally sets BlockedUntil in the same
		// transaction; a missing one means the row predates that rule.
		return Decision{Admitted: false, Remaining: 0}, nil
	}

	return Decision{
		Admitted:  true,
		Remaining: clampRemaining(p.limit - counter.Count - 1),
	}, nil
}

// Consume applies one action to the counter atomically. Metadata is not
// persisted by this variant; the counter is the only state it keeps.
func (p *FixedCounterPolicy) Consume(identity string, _ map[string]interface{}) error {
	_, err := p.store.ConsumeUsageCounter(identity, p.action, p.limit, p.cooldown)
	return err
}
