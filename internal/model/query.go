package model

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Query limits enforced before any remote call
const (
	MinQueryRunes = 3
	MaxQueryRunes = 2000
	MinGrade      = 8
	MaxGrade      = 12
)

// Query is the immutable input of one guidance request
type Query struct {
	Text    string   `json:"questionText"`      // Free-text question from the student
	Profile *Profile `json:"profile,omitempty"` // Optional structured profile
}

// Profile captures what the student told us about themselves
type Profile struct {
	Grade            int            `json:"grade,omitempty" yaml:"grade,omitempty"`                       // 8-12, zero when unknown
	LikedSubjects    []string       `json:"likedSubjects,omitempty" yaml:"liked_subjects,omitempty"`       // Subjects the student enjoys
	DislikedSubjects []string       `json:"dislikedSubjects,omitempty" yaml:"disliked_subjects,omitempty"` // Subjects the student avoids
	Marks            map[string]int `json:"marks,omitempty" yaml:"marks,omitempty"`                       // Subject -> percentage
	PerformanceBand  string         `json:"performanceBand,omitempty" yaml:"performance_band,omitempty"`   // e.g. "distinction", "pass"
	Interests        []string       `json:"interests,omitempty" yaml:"interests,omitempty"`               // Hobbies and interests
	FinancialNeed    FinancialNeed  `json:"financialNeed,omitempty" yaml:"financial_need,omitempty"`       // none, moderate, high
	Constraints      string         `json:"constraints,omitempty" yaml:"constraints,omitempty"`           // Free-text constraints
}

// FinancialNeed is the self-reported funding tier
type FinancialNeed string

const (
	FinancialNeedUnknown  FinancialNeed = ""
	FinancialNeedNone     FinancialNeed = "none"
	FinancialNeedModerate FinancialNeed = "moderate"
	FinancialNeedHigh     FinancialNeed = "high"
)

// Valid reports whether the tier is one of the known values
func (f FinancialNeed) Valid() bool {
	switch f {
	case FinancialNeedUnknown, FinancialNeedNone, FinancialNeedModerate, FinancialNeedHigh:
		return true
	}
	return false
}

// Validate rejects malformed queries with an INVALID_QUERY error
func (q Query) Validate() error {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return NewError(CodeInvalidQuery, "question text is empty", nil)
	}
	n := utf8.RuneCountInString(text)
	if n < MinQueryRunes {
		return NewError(CodeInvalidQuery, fmt.Sprintf("question text too short (%d characters)", n), nil)
	}
	if n > MaxQueryRunes {
		return NewError(CodeInvalidQuery, fmt.Sprintf("question text too long (%d characters, max %d)", n, MaxQueryRunes), nil)
	}
	if q.Profile == nil {
		return nil
	}
	if g := q.Profile.Grade; g != 0 && (g < MinGrade || g > MaxGrade) {
		return NewError(CodeInvalidQuery, fmt.Sprintf("grade %d outside %d-%d", g, MinGrade, MaxGrade), nil)
	}
	if !q.Profile.FinancialNeed.Valid() {
		return NewError(CodeInvalidQuery, fmt.Sprintf("unknown financial need tier %q", q.Profile.FinancialNeed), nil)
	}
	for subject, mark := range q.Profile.Marks {
		if mark < 0 || mark > 100 {
			return NewError(CodeInvalidQuery, fmt.Sprintf("mark for %s out of range: %d", subject, mark), nil)
		}
	}
	return nil
}

// NeedsFunding reports whether the profile flags financial need
func (p *Profile) NeedsFunding() bool {
	return p != nil && p.FinancialNeed == FinancialNeedHigh
}
