// Package quota implements admission control for gated actions. A bounded
// number of actions per identity (wallet address or email) is enforced by a
// configurable policy: a rolling window over the usage ledger, or a fixed
// counter with a cooldown.
package quota

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"intellect/internal/config"
	"intellect/internal/logger"
)

// ErrIdentityRequired is returned when a gate that does not allow anonymous
// use is checked without an identity.
var ErrIdentityRequired = errors.New("identity is required")

// Decision is the result of an admission check. Remaining is the number of
// credits left after the current request and is never negative. RetryAt is
// set only on denial and carries the earliest instant a new credit becomes
// available.
type Decision struct {
	Admitted  bool       `json:"admitted"`
	Remaining int        `json:"remaining"`
	RetryAt   *time.Time `json:"retryAt,omitempty"`
}

// Policy decides whether an identity may perform an action and records
// consumed actions. Check is read-only; Consume performs exactly one write.
type Policy interface {
	Check(identity string) (Decision, error)
	Consume(identity string, metadata map[string]interface{}) error
}

// Settings configures a gate for one action type.
type Settings struct {
	Action         string
	Limit          int
	Window         time.Duration
	Cooldown       time.Duration
	AllowAnonymous bool
}

// SettingsFromConfig parses the duration strings of a GateConfig. The config
// loader has already validated them, so errors here indicate a programming
// mistake upstream.
func SettingsFromConfig(action string, cfg config.GateConfig) (Settings, error) {
	window, err := time.ParseDuration(cfg.Window)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid window for %s: %w", action, err)
	}
	cooldown, err := time.ParseDuration(cfg.Cooldown)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid cooldown for %s: %w", action, err)
	}
	return Settings{
		Action:         action,
		Limit:          cfg.Limit,
		Window:         window,
		Cooldown:       cooldown,
		AllowAnonymous: cfg.Anonymous(),
	}, nil
}

// Gate applies a policy to one action type and owns the anonymous-identity
// rule for its call site. Store failures propagate, so an unreachable ledger
// denies rather than admits.
type Gate struct {
	policy         Policy
	action         string
	limit          int
	allowAnonymous bool
	logger         *slog.Logger
}

// NewGate creates a gate over the given policy.
func NewGate(policy Policy, settings Settings, log *slog.Logger) *Gate {
	return &Gate{
		policy:         policy,
		action:         settings.Action,
		limit:          settings.Limit,
		allowAnonymous: settings.AllowAnonymous,
		logger:         log.With("component", "quota", "action", settings.Action),
	}
}

// Check decides whether the identity may perform the gated action. An empty
// identity either bypasses limiting with the full allowance reported, or is
// rejected, depending on how the call site configured the gate. Check never
// consumes a credit.
func (g *Gate) Check(identity string) (Decision, error) {
	if identity == "" {
		if g.allowAnonymous {
			return Decision{Admitted: true, Remaining: g.limit}, nil
		}
		return Decision{}, ErrIdentityRequired
	}

	decision, err := g.policy.Check(identity)
	if err != nil {
		return Decision{}, err
	}
	if !decision.Admitted {
		g.logger.Debug("Request denied by quota", "identity_suffix", logger.Redact(identity))
	}
	return decision, nil
}

// Record consumes one credit for the identity. It is called after the gated
// action has succeeded, so a failed downstream call never costs a credit.
// Anonymous bypass requests are not recorded.
func (g *Gate) Record(identity string, metadata map[string]interface{}) error {
	if identity == "" {
		return nil
	}
	if err := g.policy.Consume(identity, metadata); err != nil {
		return fmt.Errorf("failed to record usage for action %s: %w", g.action, err)
	}
	return nil
}

// Limit returns the configured allowance for the gated action.
func (g *Gate) Limit() int {
	return g.limit
}

func clampRemaining(remaining int) int {
	if remaining < 0 {
		return 0
	}
	return remaining
}
