// Package assemble builds the bounded prompt context from a student profile
// and re-ranked knowledge chunks.
package assemble

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/SeelanGov/thandi/internal/extract"
	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

const (
	defaultTokenBudget = 3000
	profileHeader      = "STUDENT PROFILE"
	knowledgeHeader    = "KNOWLEDGE"
)

// Assembler packs chunks into a token budget
type Assembler struct {
	cfg        model.AssemblyConfig
	frameworks []framework
}

type framework struct {
	name    string
	pattern *regexp.Regexp
}

// NewAssembler compiles the framework detectors from tables
func NewAssembler(tables *knowledge.Tables, cfg model.AssemblyConfig) *Assembler {
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = defaultTokenBudget
	}
	a := &Assembler{cfg: cfg}
	for _, f := range tables.Frameworks {
		names := append([]string{f.Name}, f.Aliases...)
		quoted := make([]string, 0, len(names))
		for _, n := range names {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(n)))
		}
		a.frameworks = append(a.frameworks, framework{
			name:    f.Name,
			pattern: regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
		})
	}
	return a
}

// EstimateTokens approximates token usage as runes/4, rounded up
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Assemble renders the profile section followed by as many ranked chunks as
// fit the budget. It never fails; no chunks yields a profile-only context.
func (a *Assembler) Assemble(profile *model.Profile, ranked []model.ScoredChunk) model.AssembledContext {
	budget := a.cfg.TokenBudget

	var b strings.Builder
	section := truncateTokens(renderProfile(profile), budget)
	b.WriteString(section)
	used := EstimateTokens(section)

	var included []string
	var texts []string
	for _, c := range ranked {
		if a.cfg.MaxChunks > 0 && len(included) >= a.cfg.MaxChunks {
			break
		}
		text := extract.NormalizeText(c.Chunk.Text)
		if text == "" {
			continue
		}

		var block strings.Builder
		if len(included) == 0 {
			block.WriteString("\n\n" + knowledgeHeader + "\n")
		} else {
			block.WriteString("\n\n")
		}
		fmt.Fprintf(&block, "[%d] source=%s career=%s via=%s\n%s",
			len(included)+1, orDash(c.Chunk.Source), orDash(careerLabel(c.Chunk)), c.Provenance, text)

		cost := EstimateTokens(block.String())
		if used+cost > budget {
			break
		}
		b.WriteString(block.String())
		used += cost
		included = append(included, c.Chunk.ID)
		texts = append(texts, text)
	}

	out := b.String()
	return model.AssembledContext{
		Text:        out,
		ChunkCount:  len(included),
		TokenCount:  EstimateTokens(out),
		TokenBudget: budget,
		Frameworks:  a.detectFrameworks(texts),
		Included:    included,
	}
}

// detectFrameworks returns canonical names in table order
func (a *Assembler) detectFrameworks(texts []string) []string {
	if len(texts) == 0 {
		return nil
	}
	joined := strings.Join(texts, "\n")
	var found []string
	for _, f := range a.frameworks {
		if f.pattern.MatchString(joined) {
			found = append(found, f.name)
		}
	}
	return found
}

func renderProfile(p *model.Profile) string {
	var b strings.Builder
	b.WriteString(profileHeader + "\n")
	if p == nil {
		b.WriteString("No profile provided.")
		return b.String()
	}

	var lines []string
	if p.Grade != 0 {
		lines = append(lines, fmt.Sprintf("Grade: %d", p.Grade))
	}
	if len(p.LikedSubjects) > 0 {
		lines = append(lines, "Enjoys: "+strings.Join(p.LikedSubjects, ", "))
	}
	if len(p.DislikedSubjects) > 0 {
		lines = append(lines, "Avoids: "+strings.Join(p.DislikedSubjects, ", "))
	}
	if len(p.Marks) > 0 {
		subjects := make([]string, 0, len(p.Marks))
		for s := range p.Marks {
			subjects = append(subjects, s)
		}
		sort.Strings(subjects)
		marks := make([]string, 0, len(subjects))
		for _, s := range subjects {
			marks = append(marks, fmt.Sprintf("%s %d%%", s, p.Marks[s]))
		}
		lines = append(lines, "Marks: "+strings.Join(marks, ", "))
	}
	if p.PerformanceBand != "" {
		lines = append(lines, "Performance: "+p.PerformanceBand)
	}
	if len(p.Interests) > 0 {
		lines = append(lines, "Interests: "+strings.Join(p.Interests, ", "))
	}
	if p.FinancialNeed != model.FinancialNeedUnknown {
		lines = append(lines, "Financial need: "+string(p.FinancialNeed))
	}
	if c := strings.TrimSpace(p.Constraints); c != "" {
		lines = append(lines, "Constraints: "+extract.NormalizeText(c))
	}

	if len(lines) == 0 {
		b.WriteString("No profile details provided.")
		return b.String()
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// truncateTokens cuts s to at most budget tokens worth of runes
func truncateTokens(s string, budget int) string {
	maxRunes := budget * 4
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes])
}

func careerLabel(c model.Chunk) string {
	if c.Attributes.CareerName != "" {
		return c.Attributes.CareerName
	}
	return c.Attributes.CareerID
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
