package knowledge

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML override file and overlays it on the built-in tables.
// Sections present in the file replace the matching default section whole;
// absent sections keep their defaults. An empty path returns Default().
func Load(path string) (*Tables, error) {
	t := Default()
	if path == "" {
		return t, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables: %w", err)
	}

	var override Tables
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("parse tables %s: %w", path, err)
	}

	t.overlay(&override)
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tables %s: %w", path, err)
	}
	return t, nil
}

func (t *Tables) overlay(o *Tables) {
	if len(o.Careers) > 0 {
		t.Careers = o.Careers
	}
	if len(o.PhraseSets) > 0 {
		t.PhraseSets = o.PhraseSets
	}
	if len(o.CategoryRules) > 0 {
		t.CategoryRules = o.CategoryRules
	}
	if len(o.ConflictRules) > 0 {
		t.ConflictRules = o.ConflictRules
	}
	if len(o.CategoryCareers) > 0 {
		t.CategoryCareers = o.CategoryCareers
	}
	if len(o.Subjects) > 0 {
		t.Subjects = o.Subjects
	}
	if len(o.SubjectExclusions) > 0 {
		t.SubjectExclusions = o.SubjectExclusions
	}
	if len(o.SubjectCareers) > 0 {
		t.SubjectCareers = o.SubjectCareers
	}
	if len(o.LowPrerequisite) > 0 {
		t.LowPrerequisite = o.LowPrerequisite
	}
	if len(o.Frameworks) > 0 {
		t.Frameworks = o.Frameworks
	}
	if len(o.FundingSources) > 0 {
		t.FundingSources = o.FundingSources
	}
	if len(o.SafetyTriggers) > 0 {
		t.SafetyTriggers = o.SafetyTriggers
	}
	if len(o.PromptBlocks) > 0 {
		t.PromptBlocks = o.PromptBlocks
	}
	if len(o.RegionMarkers) > 0 {
		t.RegionMarkers = o.RegionMarkers
	}
	if len(o.EverydayTerms) > 0 {
		t.EverydayTerms = o.EverydayTerms
	}
}

// Validate checks internal references: rule sets exist, mapped careers are
// in the catalog and safety patterns compile
func (t *Tables) Validate() error {
	for _, r := range t.CategoryRules {
		for _, set := range append(append([]string{}, r.AllOf...), r.AnyOf...) {
			if _, ok := t.PhraseSets[set]; !ok {
				return fmt.Errorf("category rule %s references unknown phrase set %q", r.Category, set)
			}
		}
	}
	for _, r := range t.ConflictRules {
		for _, set := range append(append([]string{}, r.ASets...), r.BSets...) {
			if _, ok := t.PhraseSets[set]; !ok {
				return fmt.Errorf("conflict rule %s references unknown phrase set %q", r.Name, set)
			}
		}
	}
	for cat, ids := range t.CategoryCareers {
		for _, id := range ids {
			if _, ok := t.Career(id); !ok {
				return fmt.Errorf("category %s maps unknown career %q", cat, id)
			}
		}
	}
	for _, r := range t.LowPrerequisite {
		for _, id := range r.Careers {
			if _, ok := t.Career(id); !ok {
				return fmt.Errorf("low-prerequisite rule %s/%s maps unknown career %q", r.Avoid, r.Want, id)
			}
		}
	}
	for _, trig := range t.SafetyTriggers {
		if trig.Response == "" {
			return fmt.Errorf("safety trigger %s has no response text", trig.Category)
		}
		for _, p := range trig.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("safety trigger %s: %w", trig.Category, err)
			}
		}
	}
	return nil
}
