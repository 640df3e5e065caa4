// Package score re-ranks retrieved chunks. Lower scores rank first.
package score

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

const defaultDiversityWindow = 10

// Reranker scores candidates against an intent
type Reranker struct {
	tables       *knowledge.Tables
	cfg          model.ScoringConfig
	requirements map[string]*regexp.Regexp   // Subject -> "requires <subject>" pattern
	phrases      map[string][]*regexp.Regexp // Phrase set -> word patterns
}

// NewReranker compiles subject and phrase patterns once
func NewReranker(tables *knowledge.Tables, cfg model.ScoringConfig) *Reranker {
	r := &Reranker{
		tables:       tables,
		cfg:          cfg,
		requirements: make(map[string]*regexp.Regexp),
		phrases:      make(map[string][]*regexp.Regexp),
	}

	for _, s := range tables.Subjects {
		names := append([]string{strings.ToLower(s.Name)}, s.Aliases...)
		quoted := make([]string, 0, len(names))
		for _, n := range names {
			quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(n)))
		}
		r.requirements[s.ID] = regexp.MustCompile(`(?i)\b(requires?|required|requirement|prerequisites?|needs?|compulsory)\b[^.]{0,60}\b(` +
			strings.Join(quoted, "|") + `)\b`)
	}

	for _, set := range []string{knowledge.SetRemote, knowledge.SetFastPace, knowledge.SetHighIncome} {
		for _, p := range tables.Phrases(set) {
			r.phrases[set] = append(r.phrases[set], regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(p)+`\b`))
		}
	}
	return r
}

// Rerank deduplicates, scores, orders and diversifies candidates. The input
// slice is not modified; re-ranking its own output returns the same order.
func (r *Reranker) Rerank(intent *model.Intent, candidates []model.ScoredChunk) []model.ScoredChunk {
	if intent == nil {
		intent = &model.Intent{Primary: model.CategoryGeneral}
	}
	ranked := Dedupe(candidates)
	for i := range ranked {
		ranked[i].Score, ranked[i].Breakdown = r.Score(intent, ranked[i])
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return less(ranked[i], ranked[j])
	})
	r.interleaveTies(ranked)
	if intent.HasConflicts() {
		r.diversify(intent, ranked)
	}
	return ranked
}

// Dedupe keeps one entry per chunk id: the strongest provenance, then the
// higher similarity. First-seen order is preserved.
func Dedupe(candidates []model.ScoredChunk) []model.ScoredChunk {
	index := make(map[string]int, len(candidates))
	out := make([]model.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		i, ok := index[c.Chunk.ID]
		if !ok {
			index[c.Chunk.ID] = len(out)
			out = append(out, c)
			continue
		}
		cur := out[i]
		if c.Provenance.Rank() < cur.Provenance.Rank() ||
			(c.Provenance.Rank() == cur.Provenance.Rank() && c.Similarity > cur.Similarity) {
			out[i] = c
		}
	}
	return out
}

// Score returns the clamped score of one candidate and its breakdown
func (r *Reranker) Score(intent *model.Intent, c model.ScoredChunk) (float64, []model.Adjustment) {
	adjustments := []model.Adjustment{r.base(c.Provenance)}

	if adj, ok := r.aversionPenalty(intent, c.Chunk); ok {
		adjustments = append(adjustments, adj)
	}
	if adj, ok := r.favoredBonus(intent, c.Chunk); ok {
		adjustments = append(adjustments, adj)
	}
	if adj, ok := r.lowPrerequisiteBonus(intent, c.Chunk); ok {
		adjustments = append(adjustments, adj)
	}
	if adj, ok := r.phraseBonus(intent, c.Chunk); ok {
		adjustments = append(adjustments, adj)
	}

	total := 0.0
	for _, a := range adjustments {
		total += a.Value
	}
	return clamp(total), adjustments
}

func (r *Reranker) base(p model.Provenance) model.Adjustment {
	var v float64
	switch p {
	case model.ProvenanceExplicit:
		v = r.cfg.ExplicitBase
	case model.ProvenanceIntentPrimary:
		v = r.cfg.PrimaryBase
	case model.ProvenanceIntentConflict:
		v = r.cfg.ConflictBase
	default:
		v = r.cfg.SemanticBase
	}
	return model.Adjustment{Name: "base", Value: v, Rule: "provenance " + string(p)}
}

// aversionPenalty applies once when the career is on a negated subject's
// exclusion list or the text names a negated subject as a requirement
func (r *Reranker) aversionPenalty(intent *model.Intent, c model.Chunk) (model.Adjustment, bool) {
	for _, s := range intent.NegatedSubjects {
		if c.HasCareer() && r.tables.IsExcluded(s, c.Attributes.CareerID) {
			return model.Adjustment{
				Name:  "avoided_subject",
				Value: r.cfg.AversionPenalty,
				Rule:  fmt.Sprintf("%s excluded when %s is avoided", c.Attributes.CareerID, s),
			}, true
		}
		if re, ok := r.requirements[s]; ok && re.MatchString(c.Text) {
			return model.Adjustment{
				Name:  "avoided_subject",
				Value: r.cfg.AversionPenalty,
				Rule:  fmt.Sprintf("text requires avoided subject %s", s),
			}, true
		}
	}
	return model.Adjustment{}, false
}

func (r *Reranker) favoredBonus(intent *model.Intent, c model.Chunk) (model.Adjustment, bool) {
	if !c.HasCareer() {
		return model.Adjustment{}, false
	}
	for _, s := range intent.FavoredSubjects {
		if r.tables.IsLinked(s, c.Attributes.CareerID) {
			return model.Adjustment{
				Name:  "favored_subject",
				Value: -r.cfg.FavoredBonus,
				Rule:  fmt.Sprintf("%s linked to favoured %s", c.Attributes.CareerID, s),
			}, true
		}
	}
	return model.Adjustment{}, false
}

func (r *Reranker) lowPrerequisiteBonus(intent *model.Intent, c model.Chunk) (model.Adjustment, bool) {
	if !c.HasCareer() || !r.tables.IsLowPrerequisite(intent.NegatedSubjects, intent.FavoredSubjects, c.Attributes.CareerID) {
		return model.Adjustment{}, false
	}
	return model.Adjustment{
		Name:  "low_prerequisite",
		Value: -r.cfg.LowPrereqBonus,
		Rule:  "alternative for avoided subject with favoured domain",
	}, true
}

// phraseBonus rewards chunk text that echoes the student's remote, pace or
// income wishes: -PhraseBonus per matched phrase, capped at -PhraseBonusCap
func (r *Reranker) phraseBonus(intent *model.Intent, c model.Chunk) (model.Adjustment, bool) {
	var sets []string
	if intent.WantsRemote {
		sets = append(sets, knowledge.SetRemote)
	}
	if intent.WantsFastPace {
		sets = append(sets, knowledge.SetFastPace)
	}
	if intent.WantsHighIncome {
		sets = append(sets, knowledge.SetHighIncome)
	}

	matched := 0
	for _, set := range sets {
		for _, re := range r.phrases[set] {
			if re.MatchString(c.Text) {
				matched++
			}
		}
	}
	if matched == 0 {
		return model.Adjustment{}, false
	}

	bonus := float64(matched) * r.cfg.PhraseBonus
	if r.cfg.PhraseBonusCap > 0 && bonus > r.cfg.PhraseBonusCap {
		bonus = r.cfg.PhraseBonusCap
	}
	return model.Adjustment{
		Name:  "phrase_match",
		Value: -bonus,
		Rule:  fmt.Sprintf("min(%d * %.2f, %.2f)", matched, r.cfg.PhraseBonus, r.cfg.PhraseBonusCap),
	}, true
}

// interleaveTies walks runs of scores within TieWindow of the run's first
// member and moves conflict-sourced chunks ahead of primary ones, reusing the
// slots those two groups already occupy
func (r *Reranker) interleaveTies(ranked []model.ScoredChunk) {
	if r.cfg.TieWindow <= 0 {
		return
	}
	for start := 0; start < len(ranked); {
		end := start + 1
		for end < len(ranked) && ranked[end].Score-ranked[start].Score < r.cfg.TieWindow {
			end++
		}

		var slots []int
		var conflict, primary []model.ScoredChunk
		for i := start; i < end; i++ {
			switch ranked[i].Provenance {
			case model.ProvenanceIntentConflict:
				slots = append(slots, i)
				conflict = append(conflict, ranked[i])
			case model.ProvenanceIntentPrimary:
				slots = append(slots, i)
				primary = append(primary, ranked[i])
			}
		}
		if len(conflict) > 0 && len(primary) > 0 {
			ordered := append(conflict, primary...)
			for k, slot := range slots {
				ranked[slot] = ordered[k]
			}
		}
		start = end
	}
}

// diversify guarantees each conflicting category has at least one chunk in
// the top window, promoting the best-ranked missing one into the lowest slot
// that is not the sole representative of another required category
func (r *Reranker) diversify(intent *model.Intent, ranked []model.ScoredChunk) {
	window := r.cfg.DiversityWindow
	if window <= 0 {
		window = defaultDiversityWindow
	}
	if len(ranked) <= window {
		return
	}

	required := intent.ConflictCategories()
	for _, cat := range required {
		if count(ranked[:window], cat) > 0 {
			continue
		}
		from := -1
		for i := window; i < len(ranked); i++ {
			if ranked[i].SourceCategory == cat {
				from = i
				break
			}
		}
		if from < 0 {
			continue
		}

		to := -1
		for i := window - 1; i >= 0; i-- {
			occupant := ranked[i].SourceCategory
			if occupant == "" || !isRequired(required, occupant) || count(ranked[:window], occupant) > 1 {
				to = i
				break
			}
		}
		if to < 0 {
			continue
		}

		promoted := ranked[from]
		copy(ranked[to+1:from+1], ranked[to:from])
		ranked[to] = promoted
	}
}

func count(list []model.ScoredChunk, cat model.Category) int {
	n := 0
	for _, c := range list {
		if c.SourceCategory == cat {
			n++
		}
	}
	return n
}

func isRequired(required []model.Category, cat model.Category) bool {
	for _, c := range required {
		if c == cat {
			return true
		}
	}
	return false
}

// less is the deterministic ordering key (score, provenance, id)
func less(a, b model.ScoredChunk) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	if a.Provenance.Rank() != b.Provenance.Rank() {
		return a.Provenance.Rank() < b.Provenance.Rank()
	}
	return a.Chunk.ID < b.Chunk.ID
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
