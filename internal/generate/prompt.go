package generate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
	"github.com/SeelanGov/thandi/internal/validate"
)

const systemPrompt = `You are Thandi, a career guidance assistant for South African high school learners (Grades 8-12).

CRITICAL RULES:
1. Base every factual statement on the KNOWLEDGE section. If the knowledge does not cover something, say so.
2. Use South African terms: matric, NSC, APS, TVET colleges, SETAs, NSFAS, Rand (R) amounts.
3. Never promise admission, funding or employment. Describe requirements and options only.
4. Write for a teenager: short paragraphs, plain words, no jargon without explanation.
5. For decisions that are hard to undo, advise the learner to talk to a parent, guardian or school counsellor.`

// Prompt is one fully rendered completion input
type Prompt struct {
	System string
	User   string
	Blocks []string // Names of the conditional instruction blocks included
}

// PromptBuilder renders prompts from the assembled context and the intent
type PromptBuilder struct {
	tables   *knowledge.Tables
	keywords map[string]*regexp.Regexp // Block name -> keyword pattern
}

// NewPromptBuilder creates a prompt builder over tables
func NewPromptBuilder(tables *knowledge.Tables) *PromptBuilder {
	b := &PromptBuilder{tables: tables, keywords: make(map[string]*regexp.Regexp)}
	for _, blk := range tables.PromptBlocks {
		if len(blk.Keywords) == 0 {
			continue
		}
		quoted := make([]string, 0, len(blk.Keywords))
		for _, k := range blk.Keywords {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(k)))
		}
		b.keywords[blk.Name] = regexp.MustCompile(`\b(` + strings.Join(quoted, "|") + `)\b`)
	}
	return b
}

// Build renders the first-attempt prompt
func (b *PromptBuilder) Build(req Request) Prompt {
	blocks := b.SelectBlocks(req.Query, req.Intent)

	var s strings.Builder
	s.WriteString(req.Context.Text)

	s.WriteString("\n\nQUESTION\n")
	s.WriteString(strings.TrimSpace(req.Query.Text))

	names := make([]string, 0, len(blocks))
	if len(blocks) > 0 {
		s.WriteString("\n\nGUIDANCE FOR THIS LEARNER\n")
		for _, blk := range blocks {
			names = append(names, blk.Name)
			fmt.Fprintf(&s, "- %s\n", blk.Instruction)
		}
	}

	if req.Intent != nil {
		b.writeSubjectNotes(&s, req.Intent)
		if req.Intent.NeedsFunding || containsBlock(names, "low_income") {
			b.writeFunding(&s)
		}
	}

	s.WriteString("\n\nOUTPUT REQUIREMENTS\n")
	for i, line := range b.requirements(req) {
		fmt.Fprintf(&s, "%d. %s\n", i+1, line)
	}

	return Prompt{System: systemPrompt, User: strings.TrimRight(s.String(), "\n"), Blocks: names}
}

// Retry restates the unmet checks on top of the previous prompt
func (b *PromptBuilder) Retry(p Prompt, failed []model.CheckResult) Prompt {
	if len(failed) == 0 {
		return p
	}
	var s strings.Builder
	s.WriteString(p.User)
	s.WriteString("\n\nYOUR PREVIOUS ANSWER WAS REJECTED. Fix every point below and answer again in full:\n")
	for _, c := range failed {
		fmt.Fprintf(&s, "- %s\n", validate.Instruction(c))
	}
	return Prompt{System: p.System, User: strings.TrimRight(s.String(), "\n"), Blocks: p.Blocks}
}

// SelectBlocks returns the conditional blocks whose keywords occur in the
// question, the interests or the constraints. Subject aversion and financial
// need also come from the intent.
func (b *PromptBuilder) SelectBlocks(q model.Query, intent *model.Intent) []knowledge.PromptBlock {
	haystack := strings.ToLower(q.Text)
	if q.Profile != nil {
		haystack += " " + strings.ToLower(strings.Join(q.Profile.Interests, " "))
		haystack += " " + strings.ToLower(q.Profile.Constraints)
	}
	haystack = strings.ReplaceAll(haystack, "’", "'")

	var out []knowledge.PromptBlock
	for _, blk := range b.tables.PromptBlocks {
		re := b.keywords[blk.Name]
		if blockForced(blk.Name, intent) || (re != nil && re.MatchString(haystack)) {
			out = append(out, blk)
		}
	}
	return out
}

func blockForced(name string, intent *model.Intent) bool {
	if intent == nil {
		return false
	}
	switch name {
	case "subject_aversion":
		return len(intent.NegatedSubjects) > 0
	case "low_income":
		return intent.NeedsFunding
	}
	return false
}

func (b *PromptBuilder) writeSubjectNotes(s *strings.Builder, intent *model.Intent) {
	if len(intent.NegatedSubjects) == 0 {
		return
	}
	s.WriteString("\n\nSUBJECT NOTES\n")
	for _, neg := range intent.NegatedSubjects {
		name := neg
		if subj, ok := b.tables.Subject(neg); ok {
			name = subj.Name
		}
		fmt.Fprintf(s, "- The learner avoids %s.", name)
		if excluded := b.careerNames(b.tables.SubjectExclusions[neg]); len(excluded) > 0 {
			fmt.Fprintf(s, " Do not recommend: %s.", strings.Join(excluded, ", "))
		}
		s.WriteString("\n")
	}
	for _, r := range b.tables.LowPrerequisiteFor(intent.NegatedSubjects, intent.FavoredSubjects) {
		want := r.Want
		if subj, ok := b.tables.Subject(r.Want); ok {
			want = subj.Name
		}
		fmt.Fprintf(s, "- Careers in %s with lower requirements: %s. Name at least one and state the subject requirement that applies.\n",
			want, strings.Join(b.careerNames(r.Careers), ", "))
	}
}

func (b *PromptBuilder) writeFunding(s *strings.Builder) {
	if len(b.tables.FundingSources) == 0 {
		return
	}
	s.WriteString("\n\nFUNDING SOURCES\n")
	for _, f := range b.tables.FundingSources {
		fmt.Fprintf(s, "- %s: %s; %s", f.Name, f.Amount, f.Deadline)
		if f.Notes != "" {
			fmt.Fprintf(s, "; %s", f.Notes)
		}
		s.WriteString("\n")
	}
}

func (b *PromptBuilder) requirements(req Request) []string {
	lines := []string{
		"Recommend at least three specific careers by name.",
		"For each career explain why it suits this learner, linking it to their subjects, interests or goals.",
		"Give an entry-level salary range in Rand for each career, written like R180 000 - R250 000.",
		"Mention at least one South African institution, qualification or funder.",
		"End with at least two concrete next steps, each starting with an action verb.",
	}
	if req.Intent != nil && req.Intent.NeedsFunding {
		lines = append(lines, "Name at least one funding source with its Rand amount and application deadline.")
	}
	if req.Intent != nil && req.Intent.HasConflicts() {
		lines = append(lines, "The learner's goals pull in different directions. Offer options for each direction and explain the trade-off.")
	}
	if len(req.Context.Frameworks) > 0 {
		lines = append(lines, "Cite these frameworks by name where you use them: "+strings.Join(req.Context.Frameworks, ", ")+".")
	}
	return lines
}

func (b *PromptBuilder) careerNames(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.tables.CareerName(id))
	}
	return out
}

func containsBlock(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
