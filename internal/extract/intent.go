package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

var (
	negationVerbs = []string{
		"hate", "hates", "dislike", "dislikes", "can't stand", "cannot stand", "bad at", "struggle with",
		"struggling with", "not good at", "don't like", "do not like", "failing", "weak in", "weak at",
		"scared of", "avoid",
	}
	favorVerbs = []string{
		"love", "loves", "like", "likes", "enjoy", "enjoys", "good at", "passionate about", "interested in",
		"great at", "strong in", "excel at", "best at",
	}
	subjectFiller = `(?:\s+(?:doing|studying|the|my|pure|core|all))?`
)

// phrase is one compiled phrase of a set
type phrase struct {
	text string
	re   *regexp.Regexp
}

// aliasPattern ties one alias to the canonical id it resolves to
type aliasPattern struct {
	id    string
	alias string
	re    *regexp.Regexp
}

// subjectPattern detects negation and favour for one canonical subject
type subjectPattern struct {
	id      string
	negated *regexp.Regexp
	favored *regexp.Regexp
}

// IntentExtractor classifies questions by rule-based phrase matching
type IntentExtractor struct {
	tables   *knowledge.Tables
	sets     map[string][]phrase
	careers  []aliasPattern
	subjects []aliasPattern
	subjRe   []subjectPattern
}

// NewIntentExtractor compiles the phrase tables once
func NewIntentExtractor(tables *knowledge.Tables) *IntentExtractor {
	e := &IntentExtractor{
		tables: tables,
		sets:   make(map[string][]phrase, len(tables.PhraseSets)),
	}

	for name, phrases := range tables.PhraseSets {
		for _, p := range phrases {
			e.sets[name] = append(e.sets[name], phrase{text: p, re: wordRegexp(p)})
		}
	}

	for _, c := range tables.Careers {
		for _, a := range c.Aliases {
			e.careers = append(e.careers, aliasPattern{id: c.ID, alias: a, re: wordRegexp(a)})
		}
	}
	// Longest aliases claim their span first so "web developer" beats "developer"
	sort.SliceStable(e.careers, func(i, j int) bool {
		return len(e.careers[i].alias) > len(e.careers[j].alias)
	})

	for _, s := range tables.Subjects {
		var quoted []string
		for _, a := range s.Aliases {
			e.subjects = append(e.subjects, aliasPattern{id: s.ID, alias: a, re: wordRegexp(a)})
			quoted = append(quoted, regexp.QuoteMeta(a))
		}
		alt := "(?:" + strings.Join(quoted, "|") + ")"
		e.subjRe = append(e.subjRe, subjectPattern{
			id:      s.ID,
			negated: regexp.MustCompile(`(?i)\b(?:` + joinQuoted(negationVerbs) + `)` + subjectFiller + `\s+` + alt + `\b`),
			favored: regexp.MustCompile(`(?i)\b(?:` + joinQuoted(favorVerbs) + `)` + subjectFiller + `\s+` + alt + `\b`),
		})
	}
	sort.SliceStable(e.subjects, func(i, j int) bool {
		return len(e.subjects[i].alias) > len(e.subjects[j].alias)
	})

	return e
}

// Extract derives the Intent of a question
func (e *IntentExtractor) Extract(text string) model.Intent {
	norm := normalize(text)
	var intent model.Intent

	intent.NegatedSubjects, intent.FavoredSubjects = e.subjectsIn(norm)
	for _, s := range intent.NegatedSubjects {
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "negated_subject", Phrase: s})
	}
	for _, s := range intent.FavoredSubjects {
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "favored_subject", Phrase: s})
	}

	hits := e.setHits(norm, intent.NegatedSubjects)
	names := make([]string, 0, len(hits))
	for name := range hits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, p := range hits[name] {
			intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "phrase_set:" + name, Phrase: p})
		}
	}

	intent.WantsRemote = len(hits[knowledge.SetRemote]) > 0
	intent.WantsFastPace = len(hits[knowledge.SetFastPace]) > 0
	intent.WantsHighIncome = len(hits[knowledge.SetHighIncome]) > 0
	intent.AvoidsHigherEducation = len(hits[knowledge.SetNoHigherEducation]) > 0
	intent.LacksCredential = len(hits[knowledge.SetNoCredential]) > 0
	intent.NeedsFunding = len(hits[knowledge.SetFinancialNeed]) > 0

	intent.Primary = model.CategoryGeneral
	for _, rule := range e.tables.CategoryRules {
		if ruleMatches(rule, hits) {
			intent.Primary = rule.Category
			intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "category", Phrase: string(rule.Category)})
			break
		}
	}

	for _, rule := range e.tables.ConflictRules {
		a := collect(hits, rule.ASets)
		b := collect(hits, rule.BSets)
		if len(a) == 0 || len(b) == 0 {
			continue
		}
		intent.Conflicts = append(intent.Conflicts, model.Conflict{
			Rule:     rule.Name,
			A:        rule.A,
			B:        rule.B,
			Evidence: append(a, b...),
		})
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "conflict", Phrase: rule.Name})
	}

	intent.ExplicitCareers = e.careersIn(norm)
	for _, id := range intent.ExplicitCareers {
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "explicit_career", Phrase: id})
	}

	return intent
}

// ExtractQuery derives the Intent of a question and merges the profile into it
func (e *IntentExtractor) ExtractQuery(q model.Query) model.Intent {
	intent := e.Extract(q.Text)
	if q.Profile == nil {
		return intent
	}

	for _, s := range q.Profile.DislikedSubjects {
		if id := e.CanonicalSubject(s); id != "" && !intent.IsNegated(id) {
			intent.NegatedSubjects = append(intent.NegatedSubjects, id)
			intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "profile_disliked", Phrase: id})
		}
	}
	var favored []string
	for _, s := range intent.FavoredSubjects {
		if !intent.IsNegated(s) {
			favored = append(favored, s)
		}
	}
	for _, s := range q.Profile.LikedSubjects {
		id := e.CanonicalSubject(s)
		if id == "" || intent.IsNegated(id) || containsString(favored, id) {
			continue
		}
		favored = append(favored, id)
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "profile_liked", Phrase: id})
	}
	intent.FavoredSubjects = favored

	if q.Profile.NeedsFunding() && !intent.NeedsFunding {
		intent.NeedsFunding = true
		intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "profile_financial_need", Phrase: string(q.Profile.FinancialNeed)})
	}
	if !intent.NeedsFunding && q.Profile.Constraints != "" {
		if hits := e.setHits(normalize(q.Profile.Constraints), nil); len(hits[knowledge.SetFinancialNeed]) > 0 {
			intent.NeedsFunding = true
			intent.Matched = append(intent.Matched, model.IntentMatch{Rule: "profile_constraints", Phrase: hits[knowledge.SetFinancialNeed][0]})
		}
	}
	return intent
}

// CanonicalSubject maps a subject spelling to its canonical id, or "" when unknown
func (e *IntentExtractor) CanonicalSubject(name string) string {
	norm := normalize(name)
	for _, s := range e.tables.Subjects {
		if s.ID == norm {
			return s.ID
		}
	}
	for _, a := range e.subjects {
		if a.re.MatchString(norm) {
			return a.id
		}
	}
	return ""
}

// MatchedSets returns the phrases of each named set found in text
func (e *IntentExtractor) MatchedSets(text string, sets ...string) []string {
	hits := e.setHits(normalize(text), nil)
	return collect(hits, sets)
}

func (e *IntentExtractor) subjectsIn(norm string) (negated, favored []string) {
	type pos struct {
		id  string
		loc int
	}
	var neg, fav []pos
	for _, sp := range e.subjRe {
		if loc := sp.negated.FindStringIndex(norm); loc != nil {
			neg = append(neg, pos{sp.id, loc[0]})
		}
	}
	negSet := make(map[string]bool)
	for _, n := range neg {
		negSet[n.id] = true
	}
	for _, sp := range e.subjRe {
		if negSet[sp.id] {
			continue
		}
		if loc := sp.favored.FindStringIndex(norm); loc != nil {
			fav = append(fav, pos{sp.id, loc[0]})
		}
	}
	sort.SliceStable(neg, func(i, j int) bool { return neg[i].loc < neg[j].loc })
	sort.SliceStable(fav, func(i, j int) bool { return fav[i].loc < fav[j].loc })
	for _, n := range neg {
		negated = append(negated, n.id)
	}
	for _, f := range fav {
		favored = append(favored, f.id)
	}
	return negated, favored
}

// setHits matches every phrase set; phrases naming a negated subject are skipped
func (e *IntentExtractor) setHits(norm string, negated []string) map[string][]string {
	hits := make(map[string][]string)
	for name, phrases := range e.sets {
		for _, p := range phrases {
			if !p.re.MatchString(norm) {
				continue
			}
			if s := e.subjectOfPhrase(p.text); s != "" && containsString(negated, s) {
				continue
			}
			hits[name] = append(hits[name], p.text)
		}
	}
	return hits
}

func (e *IntentExtractor) subjectOfPhrase(p string) string {
	for _, a := range e.subjects {
		if a.alias == p {
			return a.id
		}
	}
	return ""
}

func (e *IntentExtractor) careersIn(norm string) []string {
	type hit struct {
		id    string
		start int
	}
	var hits []hit
	var claimed [][2]int
	seen := make(map[string]bool)

	for _, a := range e.careers {
		for _, loc := range a.re.FindAllStringIndex(norm, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			if !seen[a.id] {
				seen[a.id] = true
				hits = append(hits, hit{a.id, loc[0]})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	if len(ids) == 0 {
		return nil
	}
	return ids
}

func ruleMatches(rule knowledge.CategoryRule, hits map[string][]string) bool {
	if len(rule.AllOf) == 0 && len(rule.AnyOf) == 0 {
		return false
	}
	for _, set := range rule.AllOf {
		if len(hits[set]) == 0 {
			return false
		}
	}
	if len(rule.AnyOf) == 0 {
		return true
	}
	for _, set := range rule.AnyOf {
		if len(hits[set]) > 0 {
			return true
		}
	}
	return false
}

func collect(hits map[string][]string, sets []string) []string {
	var out []string
	for _, set := range sets {
		out = append(out, hits[set]...)
	}
	return out
}

func overlaps(spans [][2]int, start, end int) bool {
	for _, s := range spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func wordRegexp(p string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToLower(p)) + `\b`)
}

func joinQuoted(list []string) string {
	quoted := make([]string, len(list))
	for i, s := range list {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return strings.Join(quoted, "|")
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer("’", "'", "‘", "'", "“", `"`, "”", `"`).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
