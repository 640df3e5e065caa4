package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SeelanGov/thandi/internal/model"
)

func TestDefault_Validates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Expected default tables to validate, got %v", err)
	}
}

func TestDefault_SafetyCategoriesPresent(t *testing.T) {
	want := []string{
		SafetyDropout, SafetyNoCredential, SafetyUnverified, SafetyFinancialDecision,
		SafetyLegalEligibility, SafetyMedicalFitness, SafetyTimingDeferral,
	}
	got := make(map[string]bool)
	for _, trig := range Default().SafetyTriggers {
		got[trig.Category] = true
	}
	for _, c := range want {
		if !got[c] {
			t.Errorf("Expected safety category %s", c)
		}
	}
}

func TestDefault_ConflictCategoriesDoNotOverlap(t *testing.T) {
	tables := Default()
	fast := tables.CategoryCareers[model.CategoryFastEarnings]
	long := tables.CategoryCareers[model.CategoryLongSpecialisation]
	for _, f := range fast {
		for _, l := range long {
			if f == l {
				t.Errorf("Career %s is mapped to both sides of the fast/long conflict", f)
			}
		}
	}
}

func TestTables_SubjectRules(t *testing.T) {
	tables := Default()

	if !tables.IsExcluded("math", "actuarial_scientist") {
		t.Error("Expected actuarial_scientist to be excluded for math")
	}
	if tables.IsExcluded("math", "medical_writer") {
		t.Error("Expected medical_writer not to be excluded for math")
	}
	if !tables.IsLinked("biology", "medical_doctor") {
		t.Error("Expected medical_doctor linked to biology")
	}
	if !tables.IsLowPrerequisite([]string{"math"}, []string{"biology"}, "science_communicator") {
		t.Error("Expected science_communicator as low-prerequisite alternative")
	}
	if tables.IsLowPrerequisite([]string{"math"}, nil, "science_communicator") {
		t.Error("Expected no low-prerequisite alternative without a favoured subject")
	}
}

func TestTables_CareerName(t *testing.T) {
	tables := Default()
	if got := tables.CareerName("medical_writer"); got != "Medical Writer" {
		t.Errorf("Expected 'Medical Writer', got %q", got)
	}
	if got := tables.CareerName("space_pirate"); got != "space pirate" {
		t.Errorf("Expected fallback name, got %q", got)
	}
}

func TestLoad_OverlaysSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	content := `
region_markers:
  - "Limpopo"
everyday_terms: ["chef"]
frameworks:
  - name: "Decision Tree"
    aliases: ["decision tree"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tables, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tables.RegionMarkers) != 1 || tables.RegionMarkers[0] != "Limpopo" {
		t.Errorf("Expected region markers to be replaced, got %v", tables.RegionMarkers)
	}
	if len(tables.EverydayTerms) != 1 || tables.EverydayTerms[0] != "chef" {
		t.Errorf("Expected everyday terms to be replaced, got %v", tables.EverydayTerms)
	}
	if len(tables.Frameworks) != 1 || tables.Frameworks[0].Name != "Decision Tree" {
		t.Errorf("Expected frameworks to be replaced, got %v", tables.Frameworks)
	}
	if len(tables.Careers) == 0 {
		t.Error("Expected default careers to survive the overlay")
	}
}

func TestLoad_RejectsUnknownCareer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")
	content := `
category_careers:
  hands_on: ["space_pirate"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for unknown career reference")
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	tables, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(tables.CategoryRules) == 0 {
		t.Error("Expected default category rules")
	}
}
