package search

import (
	"sort"

	"github.com/SeelanGov/thandi/internal/knowledge"
	"github.com/SeelanGov/thandi/internal/model"
)

// PlannedCareer is one career the intent pass will query
type PlannedCareer struct {
	ID         string           `json:"id"`
	Category   model.Category   `json:"category"`
	Provenance model.Provenance `json:"provenance"`
	Reason     string           `json:"reason,omitempty"` // "category", "low_prerequisite"
}

// PlanCareers resolves the intent's categories to the careers to query.
// Careers excluded by a negated subject are dropped, low-prerequisite
// alternatives are injected, favoured-subject careers move forward and the
// list is capped at limit. When conflicts exist up to half the slots (at
// least one per conflict category) are reserved for conflict-category
// careers, shared round-robin between the categories.
func PlanCareers(t *knowledge.Tables, intent *model.Intent, limit int) []PlannedCareer {
	seen := make(map[string]bool)

	var primary []PlannedCareer
	add := func(list *[]PlannedCareer, id string, cat model.Category, prov model.Provenance, reason string) {
		if seen[id] || excluded(t, intent, id) {
			return
		}
		seen[id] = true
		*list = append(*list, PlannedCareer{ID: id, Category: cat, Provenance: prov, Reason: reason})
	}

	for _, id := range t.CategoryCareers[intent.Primary] {
		add(&primary, id, intent.Primary, model.ProvenanceIntentPrimary, "category")
	}
	for _, rule := range t.LowPrerequisiteFor(intent.NegatedSubjects, intent.FavoredSubjects) {
		for _, id := range rule.Careers {
			add(&primary, id, intent.Primary, model.ProvenanceIntentPrimary, "low_prerequisite")
		}
	}
	boostFavored(t, intent, primary)

	var groups [][]PlannedCareer
	for _, cat := range intent.ConflictCategories() {
		if cat == intent.Primary {
			continue
		}
		var group []PlannedCareer
		for _, id := range t.CategoryCareers[cat] {
			add(&group, id, cat, model.ProvenanceIntentConflict, "category")
		}
		boostFavored(t, intent, group)
		if len(group) > 0 {
			groups = append(groups, group)
		}
	}
	conflict := roundRobin(groups)

	if limit <= 0 {
		return append(primary, conflict...)
	}

	// Every conflict category gets a slot before the primary path takes the rest
	reserve := len(conflict)
	if reserve > limit/2 {
		reserve = limit / 2
	}
	if reserve < len(groups) {
		reserve = len(groups)
	}
	if reserve > limit {
		reserve = limit
	}
	primaryCap := limit - reserve
	if len(primary) < primaryCap {
		primaryCap = len(primary)
	}

	out := append([]PlannedCareer{}, primary[:primaryCap]...)
	for _, c := range conflict {
		if len(out) >= limit {
			break
		}
		out = append(out, c)
	}
	return out
}

// roundRobin interleaves the groups so a prefix of any length spreads
// evenly across them
func roundRobin(groups [][]PlannedCareer) []PlannedCareer {
	var out []PlannedCareer
	for i := 0; ; i++ {
		took := false
		for _, g := range groups {
			if i < len(g) {
				out = append(out, g[i])
				took = true
			}
		}
		if !took {
			return out
		}
	}
}

func excluded(t *knowledge.Tables, intent *model.Intent, careerID string) bool {
	for _, s := range intent.NegatedSubjects {
		if t.IsExcluded(s, careerID) {
			return true
		}
	}
	return false
}

// boostFavored stably moves careers linked to a favoured subject to the front
func boostFavored(t *knowledge.Tables, intent *model.Intent, list []PlannedCareer) {
	if len(intent.FavoredSubjects) == 0 {
		return
	}
	linked := func(id string) bool {
		for _, s := range intent.FavoredSubjects {
			if t.IsLinked(s, id) {
				return true
			}
		}
		return false
	}
	sort.SliceStable(list, func(i, j int) bool {
		return linked(list[i].ID) && !linked(list[j].ID)
	})
}
