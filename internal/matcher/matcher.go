// Package matcher selects the single best-suited advocate for an IP case
// from a jurisdiction-filtered candidate set, using a text-generation call
// whose output format is not guaranteed.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"intellect/internal/model"
)

// ErrNoMatch is returned when the generated response names no advocate from
// the filtered set in either grammar.
var ErrNoMatch = errors.New("unable to find a suitable advocate match from the response")

// NoAdvocatesError is returned when the jurisdiction filter leaves no
// candidates. It is user-facing and names the jurisdiction.
type NoAdvocatesError struct {
	Country string
}

func (e *NoAdvocatesError) Error() string {
	return fmt.Sprintf("no advocates found in the database for %s", e.Country)
}

// Generator produces free-form text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AdvocateStore provides read access to the advocate records.
type AdvocateStore interface {
	ListAdvocatesByCountry(country string) ([]model.Advocate, error)
	FindAdvocateByNameAndCountry(name, country string) (*model.Advocate, error)
}

// SelectedAdvocate is an advocate enriched with the selection justification
// and a confidence score between 0 and 100.
type SelectedAdvocate struct {
	model.Advocate
	Reason          string
	ConfidenceScore int
}

// MatchResult is the outcome of a best-match search.
type MatchResult struct {
	Selected   *SelectedAdvocate
	Candidates int
}

// Matcher runs the candidate fetch, prompt generation and response parsing.
type Matcher struct {
	store     AdvocateStore
	generator Generator
	logger    *slog.Logger
}

// New creates a Matcher.
func New(store AdvocateStore, generator Generator, log *slog.Logger) *Matcher {
	return &Matcher{
		store:     store,
		generator: generator,
		logger:    log.With("component", "matcher"),
	}
}

// FindBestMatch selects exactly one advocate for the case description within
// the requested jurisdiction. The generation service is never called when the
// filtered candidate set is empty.
func (m *Matcher) FindBestMatch(ctx context.Context, caseDescription, country string) (*MatchResult, error) {
	advocates, err := m.store.ListAdvocatesByCountry(country)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch advocates: %w", err)
	}
	if len(advocates) == 0 {
		return nil, &NoAdvocatesError{Country: country}
	}

	prompt := buildPrompt(caseDescription, formatAdvocates(advocates), country)

	response, err := m.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	m.logger.Debug("Received generation response", "length", len(response), "candidates", len(advocates))

	selected, err := m.resolveSelection(response, country)
	if err != nil {
		return nil, err
	}

	return &MatchResult{Selected: selected, Candidates: len(advocates)}, nil
}

// resolveSelection walks the response line by line. The first line that both
// parses and resolves to an advocate in the requested jurisdiction wins;
// lines naming unknown advocates are skipped. Name resolution is
// case-insensitive and jurisdiction-bound, so a same-named advocate from
// another country is never selected.
func (m *Matcher) resolveSelection(response, country string) (*SelectedAdvocate, error) {
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		parsed, ok := parseLine(line)
		if !ok {
			continue
		}

		advocate, err := m.store.FindAdvocateByNameAndCountry(parsed.Name, country)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve advocate %q: %w", parsed.Name, err)
		}
		if advocate == nil {
			m.logger.Debug("Skipping line naming unknown advocate", "name", parsed.Name)
			continue
		}

		return &SelectedAdvocate{
			Advocate:        *advocate,
			Reason:          parsed.Reason,
			ConfidenceScore: parsed.Confidence,
		}, nil
	}
	return nil, ErrNoMatch
}
