package matcher

import (
	"regexp"
	"strconv"
	"strings"
)

// defaultConfidence is assigned when the relaxed grammar matches a line that
// carries no confidence score.
const defaultConfidence = 75

// parsedLine is one advocate selection extracted from the generated text.
type parsedLine struct {
	Name       string
	Reason     string
	Confidence int
}

// lineParser recognizes one grammar for a selection line.
type lineParser struct {
	pattern       *regexp.Regexp
	hasConfidence bool
}

// The generated output format is not contractually guaranteed, so parsers
// are tried strictest first: the full grammar with a confidence score, then
// the relaxed grammar without one. Only the first parser whose pattern
// matches a line is consulted for that line.
var lineParsers = []lineParser{
	{
		pattern:       regexp.MustCompile(`(?i)^\d+\.\s*(.*?)\s*-\s*(.*?)\s*-\s*Confidence:\s*(\d+)`),
		hasConfidence: true,
	},
	{
		pattern: regexp.MustCompile(`^\d+\.\s*(.*?)\s*-\s*(.*)$`),
	},
}

// parseLine extracts an advocate selection from one line of generated text.
// It returns false when no grammar matches.
func parseLine(line string) (parsedLine, bool) {
	for _, parser := range lineParsers {
		groups := parser.pattern.FindStringSubmatch(line)
		if groups == nil {
			continue
		}

		parsed := parsedLine{
			Name:       strings.TrimSpace(groups[1]),
			Reason:     strings.TrimSpace(groups[2]),
			Confidence: defaultConfidence,
		}
		if parser.hasConfidence {
			confidence, err := strconv.Atoi(groups[3])
			if err != nil {
				continue
			}
			parsed.Confidence = confidence
		}
		return parsed, true
	}
	return parsedLine{}, false
}
