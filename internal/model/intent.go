package model

// Category labels the dominant need expressed in a question
type Category string

const (
	CategoryNoCredential       Category = "no_completion_credential" // Student lacks or expects to lack the school-leaving certificate
	CategoryNoDegreeIncome     Category = "no_degree_high_income"    // Wants high income without higher education
	CategoryCreativeTech       Category = "creative_tech"            // Creative interest blended with technology
	CategoryRemoteIncome       Category = "remote_income"            // Remote work or high-income desire
	CategoryFastEarnings       Category = "fast_earnings"            // Pace urgency, wants to earn soon
	CategoryScienceBlend       Category = "science_blend"            // Science subjects blended with another interest
	CategoryHandsOn            Category = "hands_on"                 // Practical, physical work
	CategoryPeopleOriented     Category = "people_oriented"          // Helping or working with people
	CategoryGeneral            Category = "general"                  // Nothing specific matched
	CategoryLongSpecialisation Category = "long_specialisation"      // Long study path to a specialist career, only raised by conflicts
	CategoryProfessionalDegree Category = "professional_degree"      // Regulated professions that need a degree, only raised by conflicts
)

// CategoryPriority is the fixed order in which primary labels are tried
var CategoryPriority = []Category{
	CategoryNoCredential,
	CategoryNoDegreeIncome,
	CategoryCreativeTech,
	CategoryRemoteIncome,
	CategoryFastEarnings,
	CategoryScienceBlend,
	CategoryHandsOn,
	CategoryPeopleOriented,
}

// Intent is derived once per Query and never mutated afterwards
type Intent struct {
	Primary               Category      `json:"primary"`
	NegatedSubjects       []string      `json:"negated_subjects,omitempty"`
	FavoredSubjects       []string      `json:"favored_subjects,omitempty"`
	WantsRemote           bool          `json:"wants_remote"`
	WantsFastPace         bool          `json:"wants_fast_pace"`
	WantsHighIncome       bool          `json:"wants_high_income"`
	AvoidsHigherEducation bool          `json:"avoids_higher_education"`
	LacksCredential       bool          `json:"lacks_credential"`
	NeedsFunding          bool          `json:"needs_funding"`
	ExplicitCareers       []string      `json:"explicit_careers,omitempty"` // Career ids in order of first mention
	Conflicts             []Conflict    `json:"conflicts,omitempty"`
	Matched               []IntentMatch `json:"matched,omitempty"` // Audit trail of every rule that fired
}

// Conflict records two simultaneously expressed, mutually tensioned needs
type Conflict struct {
	Rule     string   `json:"rule"`
	A        Category `json:"a"`
	B        Category `json:"b"`
	Evidence []string `json:"evidence,omitempty"` // Phrases that triggered each side
}

// IntentMatch is one fired rule and the phrase that fired it
type IntentMatch struct {
	Rule   string `json:"rule"`
	Phrase string `json:"phrase"`
}

// HasConflicts reports whether any conflict was detected
func (i Intent) HasConflicts() bool {
	return len(i.Conflicts) > 0
}

// IsNegated reports whether subject was marked as avoided
func (i Intent) IsNegated(subject string) bool {
	return contains(i.NegatedSubjects, subject)
}

// IsFavored reports whether subject was marked as liked
func (i Intent) IsFavored(subject string) bool {
	return contains(i.FavoredSubjects, subject)
}

// ConflictCategories returns every category named by a conflict, in order, without duplicates
func (i Intent) ConflictCategories() []Category {
	var out []Category
	seen := make(map[Category]bool)
	for _, c := range i.Conflicts {
		for _, cat := range []Category{c.A, c.B} {
			if !seen[cat] {
				seen[cat] = true
				out = append(out, cat)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
