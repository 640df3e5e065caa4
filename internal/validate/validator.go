// Package validate checks generated guidance against the content rules every
// answer must satisfy before it is returned to a student.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/SeelanGov/thandi/internal/extract"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

// Check names
const (
	CheckCareerCount     = "career_count"
	CheckReasoning       = "reasoning"
	CheckFunding         = "funding"
	CheckSalaryRanges    = "salary_ranges"
	CheckNextSteps       = "next_steps"
	CheckRegional        = "regional"
	CheckLength          = "length"
	CheckFrameworks      = "frameworks"
	CheckSubjectCaveat   = "subject_caveat"
	CheckExcludedCareers = "excluded_careers"
)

const (
	minCareers      = 3
	minSalaryRanges = 3
	minNextSteps    = 2
)

var (
	reasoningPattern = regexp.MustCompile(`(?i)\b(because|since you|suits you|suit you|fits your|matches your|given your|as you (enjoy|like|love)|due to your|which means|that is why|that's why|this is why|good fit|great fit|aligns with)\b`)
	randAmount       = regexp.MustCompile(`\bR\s?\d{1,3}(?:[ ,]?\d{3})*(?:\.\d+)?\s?(?:k|m|million|000)?\b`)
	randRange        = regexp.MustCompile(`(?i)\bR\s?\d{1,3}(?:[ ,]?\d{3})*(?:\.\d+)?\s?(?:k|m)?\s*(?:-|\x{2013}|\x{2014}|to)\s*R?\s?\d{1,3}(?:[ ,]?\d{3})*(?:\.\d+)?\s?(?:k|m)?`)
	deadlinePattern  = regexp.MustCompile(`(?i)\b(deadline|closes?|closing date|apply (by|before)|applications? (open|close|opens|closes)|(january|february|march|april|may|june|july|august|september|october|november|december))\b`)
	actionPattern    = regexp.MustCompile(`(?i)^(?:step\s*\d+\s*[:.-]?\s*|\d+[.)]?\s*|next,?\s+|first,?\s+|then,?\s+)?(apply|register|visit|talk|speak|research|contact|enrol|enroll|take|choose|attend|start|download|ask|book|check|complete|join|look|prepare|sign up|write|find|compare|shadow|practise|practice|build|email|call)\b`)
	caveatPattern    = regexp.MustCompile(`(?i)\b(note|requires?|required|requirement|prerequisites?|caveat|however|although|keep in mind|be aware|you will need|you'll need)\b`)
	steerPattern     = regexp.MustCompile(`(?i)\b(not recommended|not a good fit|may not suit|might not suit|less suited|rely heavily on|relies heavily on|depends? heavily on)\b`)
	avoidPattern     = regexp.MustCompile(`(?i)\b(avoid|avoiding|skip|skipping|steer clear of|stay away from|rule out)\s+(?:the\s+|a\s+|an\s+|careers?\s+(?:in|as|like)\s+|roles?\s+(?:in|as|like)\s+|paths?\s+(?:like|such as)\s+)?$`)
	clauseBreak      = regexp.MustCompile(`(?i);|\b(?:but|instead|rather|so)\b`)

	// Text before an everyday career term that marks it as a recommendation
	titlePrefix = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)]|#{1,6})?\s*[*_]*\s*(?:[A-Z][\w'-]*\s+){0,3}$`)
	rolePrefix  = regexp.MustCompile(`(?i)\b(?:become|becoming|train(?:ing)? as|work(?:ing)? as|careers? as|jobs? as|qualify as|study to be|be)\s+(?:an?\s+)?$`)
)

// Expectations are the request-specific conditions an answer is checked against
type Expectations struct {
	NeedsFunding    bool
	NegatedSubjects []string
	FavoredSubjects []string
	Frameworks      []string // Canonical framework names found in the context
}

// ExpectationsFor derives expectations from the intent and assembled context
func ExpectationsFor(intent *model.Intent, ctx model.AssembledContext) Expectations {
	exp := Expectations{Frameworks: ctx.Frameworks}
	if intent != nil {
		exp.NeedsFunding = intent.NeedsFunding
		exp.NegatedSubjects = intent.NegatedSubjects
		exp.FavoredSubjects = intent.FavoredSubjects
	}
	return exp
}

// careerMatcher finds one career. Specific titles count anywhere; everyday
// terms only count where the answer is clearly recommending the career.
type careerMatcher struct {
	id       string
	specific *regexp.Regexp
	everyday *regexp.Regexp
}

// Validator runs the response checks. It is read-only after construction.
type Validator struct {
	tables  *knowledge.Tables
	cfg     model.GenerationConfig
	careers []careerMatcher
	funding []*regexp.Regexp
	regions []*regexp.Regexp
}

// NewValidator compiles the catalog-driven detectors
func NewValidator(tables *knowledge.Tables, cfg model.GenerationConfig) *Validator {
	v := &Validator{tables: tables, cfg: cfg}
	everyday := make(map[string]bool, len(tables.EverydayTerms))
	for _, w := range tables.EverydayTerms {
		everyday[strings.ToLower(w)] = true
	}
	for _, c := range tables.Careers {
		var specific, common []string
		for _, term := range append([]string{c.Name}, c.Aliases...) {
			if everyday[strings.ToLower(term)] {
				common = append(common, term)
			} else {
				specific = append(specific, term)
			}
		}
		m := careerMatcher{id: c.ID}
		if len(specific) > 0 {
			m.specific = wordsPattern(specific)
		}
		if len(common) > 0 {
			m.everyday = wordsPattern(common)
		}
		v.careers = append(v.careers, m)
	}
	for _, f := range tables.FundingSources {
		v.funding = append(v.funding, wordsPattern(append([]string{f.Name}, f.Aliases...)))
	}
	for _, m := range tables.RegionMarkers {
		v.regions = append(v.regions, wordsPattern([]string{m}))
	}
	return v
}

// Validate runs every applicable check. Passed is true only when all pass.
func (v *Validator) Validate(answer string, exp Expectations) model.ValidationReport {
	sentences := extract.Sentences(answer)

	checks := []model.CheckResult{
		v.checkCareerCount(answer),
		checkReasoning(answer),
	}
	if exp.NeedsFunding {
		checks = append(checks, v.checkFunding(answer))
	}
	checks = append(checks,
		checkSalaryRanges(answer),
		checkNextSteps(sentences),
		v.checkRegional(answer),
		v.checkLength(answer),
	)
	if len(exp.Frameworks) > 0 {
		checks = append(checks, checkFrameworks(answer, exp.Frameworks))
	}
	if rules := v.tables.LowPrerequisiteFor(exp.NegatedSubjects, exp.FavoredSubjects); len(rules) > 0 {
		checks = append(checks,
			v.checkSubjectCaveat(sentences, exp),
			v.checkExcludedCareers(sentences, exp),
		)
	}

	report := model.ValidationReport{Passed: true, Checks: checks}
	for _, c := range checks {
		if !c.Passed {
			report.Passed = false
		}
	}
	return report
}

// MentionedCareers returns catalog career ids named in text, in catalog order.
// A career named only by an everyday term ("your teacher", "advocate for
// you") counts when it titles a list item or heading, or follows a phrase
// such as "become a".
func (v *Validator) MentionedCareers(text string) []string {
	var out []string
	for _, c := range v.careers {
		if len(c.find(text)) > 0 {
			out = append(out, c.id)
		}
	}
	return out
}

// find returns the spans of text that count as naming the career
func (m careerMatcher) find(text string) [][]int {
	var spans [][]int
	if m.specific != nil {
		spans = append(spans, m.specific.FindAllStringIndex(text, -1)...)
	}
	if m.everyday != nil {
		for _, loc := range m.everyday.FindAllStringIndex(text, -1) {
			lineStart := strings.LastIndexByte(text[:loc[0]], '\n') + 1
			before := text[lineStart:loc[0]]
			if titlePrefix.MatchString(before) || rolePrefix.MatchString(before) {
				spans = append(spans, loc)
			}
		}
	}
	return spans
}

func (v *Validator) checkCareerCount(answer string) model.CheckResult {
	found := v.MentionedCareers(answer)
	return model.CheckResult{
		Name:   CheckCareerCount,
		Passed: len(found) >= minCareers,
		Detail: fmt.Sprintf("%d distinct careers named, need %d", len(found), minCareers),
	}
}

func checkReasoning(answer string) model.CheckResult {
	n := len(reasoningPattern.FindAllStringIndex(answer, -1))
	return model.CheckResult{
		Name:   CheckReasoning,
		Passed: n > 0,
		Detail: fmt.Sprintf("%d reasoning phrases linking careers to the student", n),
	}
}

func (v *Validator) checkFunding(answer string) model.CheckResult {
	source := false
	for _, re := range v.funding {
		if re.MatchString(answer) {
			source = true
			break
		}
	}
	amount := randAmount.MatchString(answer)
	deadline := deadlinePattern.MatchString(answer)

	var missing []string
	if !source {
		missing = append(missing, "named funding source")
	}
	if !amount {
		missing = append(missing, "Rand amount")
	}
	if !deadline {
		missing = append(missing, "application deadline")
	}
	detail := "funding source, amount and deadline present"
	if len(missing) > 0 {
		detail = "missing " + strings.Join(missing, ", ")
	}
	return model.CheckResult{Name: CheckFunding, Passed: len(missing) == 0, Detail: detail}
}

func checkSalaryRanges(answer string) model.CheckResult {
	n := len(randRange.FindAllStringIndex(answer, -1))
	return model.CheckResult{
		Name:   CheckSalaryRanges,
		Passed: n >= minSalaryRanges,
		Detail: fmt.Sprintf("%d Rand salary ranges, need %d", n, minSalaryRanges),
	}
}

func checkNextSteps(sentences []string) model.CheckResult {
	n := 0
	for _, s := range sentences {
		if actionPattern.MatchString(strings.TrimSpace(s)) {
			n++
		}
	}
	return model.CheckResult{
		Name:   CheckNextSteps,
		Passed: n >= minNextSteps,
		Detail: fmt.Sprintf("%d actionable next steps, need %d", n, minNextSteps),
	}
}

func (v *Validator) checkRegional(answer string) model.CheckResult {
	for i, re := range v.regions {
		if re.MatchString(answer) {
			return model.CheckResult{Name: CheckRegional, Passed: true, Detail: "mentions " + v.tables.RegionMarkers[i]}
		}
	}
	return model.CheckResult{Name: CheckRegional, Passed: false, Detail: "no South African institution, funder or qualification named"}
}

func (v *Validator) checkLength(answer string) model.CheckResult {
	n := utf8.RuneCountInString(strings.TrimSpace(answer))
	ok := n >= v.cfg.MinLength && (v.cfg.MaxLength <= 0 || n <= v.cfg.MaxLength)
	return model.CheckResult{
		Name:   CheckLength,
		Passed: ok,
		Detail: fmt.Sprintf("%d characters, allowed %d-%d", n, v.cfg.MinLength, v.cfg.MaxLength),
	}
}

func checkFrameworks(answer string, frameworks []string) model.CheckResult {
	lower := strings.ToLower(answer)
	var missing []string
	for _, f := range frameworks {
		if !strings.Contains(lower, strings.ToLower(f)) {
			missing = append(missing, f)
		}
	}
	detail := "all frameworks cited"
	if len(missing) > 0 {
		detail = "not cited: " + strings.Join(missing, ", ")
	}
	return model.CheckResult{Name: CheckFrameworks, Passed: len(missing) == 0, Detail: detail}
}

// checkSubjectCaveat requires a career from the favoured domain to be named
// in the same sentence as caveat language
func (v *Validator) checkSubjectCaveat(sentences []string, exp Expectations) model.CheckResult {
	for _, s := range sentences {
		if !caveatPattern.MatchString(s) {
			continue
		}
		for _, id := range v.MentionedCareers(s) {
			for _, fav := range exp.FavoredSubjects {
				if v.tables.IsLinked(fav, id) {
					return model.CheckResult{Name: CheckSubjectCaveat, Passed: true, Detail: v.tables.CareerName(id) + " named with a requirement caveat"}
				}
			}
		}
	}
	return model.CheckResult{Name: CheckSubjectCaveat, Passed: false, Detail: "no favoured-domain career named alongside a subject caveat"}
}

// checkExcludedCareers fails when a career on an avoided subject's exclusion
// list is named without steering language aimed at it. Steering counts when
// an avoid phrase directly precedes the career, or a "not recommended" style
// phrase sits in the same clause.
func (v *Validator) checkExcludedCareers(sentences []string, exp Expectations) model.CheckResult {
	var recommended []string
	seen := make(map[string]bool)
	for _, s := range sentences {
		for _, m := range v.careers {
			if seen[m.id] || !v.excludedFor(exp.NegatedSubjects, m.id) {
				continue
			}
			for _, loc := range m.find(s) {
				if !steered(s, loc) {
					seen[m.id] = true
					recommended = append(recommended, v.tables.CareerName(m.id))
					break
				}
			}
		}
	}
	if len(recommended) > 0 {
		return model.CheckResult{Name: CheckExcludedCareers, Passed: false, Detail: "recommends " + strings.Join(recommended, ", ")}
	}
	return model.CheckResult{Name: CheckExcludedCareers, Passed: true, Detail: "no excluded careers recommended"}
}

func (v *Validator) excludedFor(negated []string, careerID string) bool {
	for _, neg := range negated {
		if v.tables.IsExcluded(neg, careerID) {
			return true
		}
	}
	return false
}

// steered reports whether the mention at loc is being steered away from
func steered(sentence string, loc []int) bool {
	start, end := 0, len(sentence)
	for _, b := range clauseBreak.FindAllStringIndex(sentence, -1) {
		if b[1] <= loc[0] {
			start = b[1]
		} else if b[0] >= loc[1] {
			end = b[0]
			break
		}
	}
	if avoidPattern.MatchString(sentence[start:loc[0]]) {
		return true
	}
	return steerPattern.MatchString(sentence[start:end])
}

// Instruction restates a failed check as a prompt correction
func Instruction(c model.CheckResult) string {
	switch c.Name {
	case CheckCareerCount:
		return "Name at least three specific careers by their full title."
	case CheckReasoning:
		return "For each career, explain why it suits this student (for example 'because you enjoy ...')."
	case CheckFunding:
		return "Name a specific funding source such as NSFAS with its Rand amount and its application deadline."
	case CheckSalaryRanges:
		return "Give a salary range in Rand for at least three careers, written like R180 000 - R250 000."
	case CheckNextSteps:
		return "End with at least two concrete next steps, each starting with an action verb."
	case CheckRegional:
		return "Refer to South African institutions, qualifications or funders by name."
	case CheckLength:
		return "Keep the answer between a few paragraphs and two pages (" + c.Detail + ")."
	case CheckFrameworks:
		return "Cite each framework from the context by name (" + c.Detail + ")."
	case CheckSubjectCaveat:
		return "Keep at least one career from the field the student enjoys and state plainly which subject requirement applies."
	case CheckExcludedCareers:
		return "Do not recommend careers that depend heavily on the subject the student avoids (" + c.Detail + ")."
	}
	return "Fix: " + c.Name + " (" + c.Detail + ")."
}

func wordsPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
}
