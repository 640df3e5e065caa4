// Package knowledge holds the curated, read-only tables the pipeline consults:
// the career catalog, category mappings, subject rules, safety triggers,
// funding sources and framework names. Tables are built once at startup
// and shared by pointer; nothing mutates them afterwards.
package knowledge

import (
	"strings"

	"github.com/SeelanGov/thandi/internal/model"
)

// Phrase set names referenced by category and conflict rules
const (
	SetNoCredential       = "no_credential"
	SetNoHigherEducation  = "no_higher_education"
	SetHighIncome         = "high_income"
	SetCreative           = "creative"
	SetTech               = "tech"
	SetRemote             = "remote"
	SetFastPace           = "fast_pace"
	SetScience            = "science"
	SetHandsOn            = "hands_on"
	SetPeople             = "people"
	SetLongSpecialisation = "long_specialisation"
	SetProfessional       = "professional"
	SetFinancialNeed      = "financial_need"
)

// Tables is the full set of curated lookup data
type Tables struct {
	Careers           []Career                    `yaml:"careers"`
	PhraseSets        map[string][]string         `yaml:"phrase_sets"`
	CategoryRules     []CategoryRule              `yaml:"category_rules"`
	ConflictRules     []ConflictRule              `yaml:"conflict_rules"`
	CategoryCareers   map[model.Category][]string `yaml:"category_careers"`
	Subjects          []Subject                   `yaml:"subjects"`
	SubjectExclusions map[string][]string         `yaml:"subject_exclusions"` // Negated subject -> high-prerequisite careers
	SubjectCareers    map[string][]string         `yaml:"subject_careers"`    // Favoured subject -> linked careers
	LowPrerequisite   []LowPrerequisiteRule       `yaml:"low_prerequisite"`
	Frameworks        []Framework                 `yaml:"frameworks"`
	FundingSources    []FundingSource             `yaml:"funding_sources"`
	SafetyTriggers    []model.SafetyTrigger       `yaml:"safety_triggers"`
	PromptBlocks      []PromptBlock               `yaml:"prompt_blocks"`
	RegionMarkers     []string                    `yaml:"region_markers"`
	EverydayTerms     []string                    `yaml:"everyday_terms"` // Career names that are also ordinary words
}

// Career is one catalog entry
type Career struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`  // Lower-case phrase variants used for explicit mention detection
	Subjects []string `yaml:"subjects"` // Canonical school subjects the career leans on
	Remote   bool     `yaml:"remote"`   // Commonly done remotely
	FastPath bool     `yaml:"fast_path"`
	LongPath bool     `yaml:"long_path"`
}

// CategoryRule fires when every AllOf set and at least one AnyOf set matched
type CategoryRule struct {
	Category model.Category `yaml:"category"`
	AllOf    []string       `yaml:"all_of"`
	AnyOf    []string       `yaml:"any_of"`
}

// ConflictRule fires when both sides matched in the same question
type ConflictRule struct {
	Name  string         `yaml:"name"`
	A     model.Category `yaml:"a"`
	ASets []string       `yaml:"a_sets"`
	B     model.Category `yaml:"b"`
	BSets []string       `yaml:"b_sets"`
}

// Subject is a canonical school subject and its spellings
type Subject struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Science bool     `yaml:"science"`
}

// LowPrerequisiteRule lists careers to inject for "avoid X, want Y"
type LowPrerequisiteRule struct {
	Avoid   string   `yaml:"avoid"`
	Want    string   `yaml:"want"`
	Careers []string `yaml:"careers"`
}

// Framework is a named decision framework that answers must cite when present
type Framework struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// FundingSource is a named bursary or aid scheme
type FundingSource struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Amount   string   `yaml:"amount"`
	Deadline string   `yaml:"deadline"`
	Notes    string   `yaml:"notes,omitempty"`
}

// PromptBlock is a conditional instruction chosen by keyword match
type PromptBlock struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Instruction string   `yaml:"instruction"`
}

// Career returns the catalog entry for id
func (t *Tables) Career(id string) (Career, bool) {
	for _, c := range t.Careers {
		if c.ID == id {
			return c, true
		}
	}
	return Career{}, false
}

// CareerName returns the display name for id, falling back to the id itself
func (t *Tables) CareerName(id string) string {
	if c, ok := t.Career(id); ok {
		return c.Name
	}
	return strings.ReplaceAll(id, "_", " ")
}

// Subject returns the canonical subject for id
func (t *Tables) Subject(id string) (Subject, bool) {
	for _, s := range t.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// IsExcluded reports whether careerID is in the exclusion list of subject
func (t *Tables) IsExcluded(subject, careerID string) bool {
	return containsString(t.SubjectExclusions[subject], careerID)
}

// IsLinked reports whether careerID is linked to subject
func (t *Tables) IsLinked(subject, careerID string) bool {
	if containsString(t.SubjectCareers[subject], careerID) {
		return true
	}
	if c, ok := t.Career(careerID); ok {
		return containsString(c.Subjects, subject)
	}
	return false
}

// LowPrerequisiteFor returns the rules that apply to the given avoided and wanted subjects
func (t *Tables) LowPrerequisiteFor(negated, favored []string) []LowPrerequisiteRule {
	var out []LowPrerequisiteRule
	for _, r := range t.LowPrerequisite {
		if containsString(negated, r.Avoid) && containsString(favored, r.Want) {
			out = append(out, r)
		}
	}
	return out
}

// IsLowPrerequisite reports whether careerID is an injected alternative for the subjects
func (t *Tables) IsLowPrerequisite(negated, favored []string, careerID string) bool {
	for _, r := range t.LowPrerequisiteFor(negated, favored) {
		if containsString(r.Careers, careerID) {
			return true
		}
	}
	return false
}

// Phrases returns the phrase set by name
func (t *Tables) Phrases(set string) []string {
	return t.PhraseSets[set]
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
