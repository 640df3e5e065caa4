// Package safety detects high-stakes questions that must get a fixed,
// referral-style response instead of generated advice.
package safety

import (
	"regexp"
	"strings"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

// Match is a fired safety trigger
type Match struct {
	Category string
	Response string
	Pattern  string // Pattern that fired, for audit logs
}

type trigger struct {
	category string
	response string
	patterns []*regexp.Regexp
}

// Scanner checks text against the curated trigger table. It is safe for
// concurrent use once built.
type Scanner struct {
	triggers []trigger
}

// NewScanner compiles the trigger patterns case-insensitively. Tables are
// expected to be validated, so a bad pattern panics.
func NewScanner(tables *knowledge.Tables) *Scanner {
	s := &Scanner{}
	for _, t := range tables.SafetyTriggers {
		tr := trigger{category: t.Category, response: t.Response}
		for _, p := range t.Patterns {
			tr.patterns = append(tr.patterns, regexp.MustCompile(`(?i)`+p))
		}
		s.triggers = append(s.triggers, tr)
	}
	return s
}

// Scan returns the first trigger, in table order, matching text
func (s *Scanner) Scan(text string) (Match, bool) {
	norm := strings.Join(strings.Fields(strings.ReplaceAll(text, "’", "'")), " ")
	for _, t := range s.triggers {
		for _, re := range t.patterns {
			if re.MatchString(norm) {
				return Match{Category: t.category, Response: t.response, Pattern: re.String()}, true
			}
		}
	}
	return Match{}, false
}

// ScanQuery scans the question and the free-text profile constraints
func (s *Scanner) ScanQuery(q model.Query) (Match, bool) {
	if m, ok := s.Scan(q.Text); ok {
		return m, true
	}
	if q.Profile != nil && q.Profile.Constraints != "" {
		return s.Scan(q.Profile.Constraints)
	}
	return Match{}, false
}
