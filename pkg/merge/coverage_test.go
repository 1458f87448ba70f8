package merge

import (
	"sort"
	"testing"

	"github.com/tidewell-health/platform/pkg/patient"
)

func newTestRegistry() *Registry {
	rules := DefaultRules()
	return NewRegistry(NewResolver(rules.ExcludedColumns), rules)
}

func TestRegistryCoversEveryPatientEntity(t *testing.T) {
	registry := newTestRegistry()

	missing, err := MissingCoverage(registry, patient.AllModels())
	if err != nil {
		t.Fatalf("coverage check failed: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("entity types without a merge strategy: %v", missing)
	}
}

func TestRegistryMatchesCatalogExactly(t *testing.T) {
	registry := newTestRegistry()

	catalogNames, err := PatientEntityNames(patient.AllModels())
	if err != nil {
		t.Fatalf("catalog introspection failed: %v", err)
	}

	registered := registry.Names()
	sort.Strings(registered)

	if len(registered) != len(catalogNames) {
		t.Fatalf("registry holds %d strategies, catalog has %d patient entities:\nregistry: %v\ncatalog:  %v",
			len(registered), len(catalogNames), registered, catalogNames)
	}
	for i := range registered {
		if registered[i] != catalogNames[i] {
			t.Fatalf("registry and catalog diverge at %q vs %q", registered[i], catalogNames[i])
		}
	}
}

func TestMissingCoverageDetectsUnregisteredEntity(t *testing.T) {
	type LabRequest struct {
		ID        string `gorm:"primaryKey;column:id"`
		PatientID string `gorm:"column:patient_id"`
	}

	registry := newTestRegistry()
	catalog := append(patient.AllModels(), &LabRequest{})

	missing, err := MissingCoverage(registry, catalog)
	if err != nil {
		t.Fatalf("coverage check failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "LabRequest" {
		t.Fatalf("expected LabRequest reported, got %v", missing)
	}
}

func TestCoverageDetectsPolymorphicReference(t *testing.T) {
	type Attachment struct {
		ID         string `gorm:"primaryKey;column:id"`
		RecordID   string `gorm:"column:record_id"`
		RecordType string `gorm:"column:record_type"`
	}
	type Vehicle struct {
		ID       string `gorm:"primaryKey;column:id"`
		RecordID string `gorm:"column:record_id"`
	}

	registry := newTestRegistry()

	missing, err := MissingCoverage(registry, []interface{}{&Attachment{}, &Vehicle{}})
	if err != nil {
		t.Fatalf("coverage check failed: %v", err)
	}
	if len(missing) != 1 || missing[0] != "Attachment" {
		t.Fatalf("expected only the (record_id, record_type) pair to count, got %v", missing)
	}
}

func TestEveryStrategyHasExactlyOneKind(t *testing.T) {
	registry := newTestRegistry()

	for _, name := range registry.Names() {
		strategy, ok := registry.Get(name)
		if !ok {
			t.Fatalf("strategy %s vanished from the registry", name)
		}
		switch strategy.Kind {
		case StrategyBulk:
			if strategy.FKColumn == "" {
				t.Fatalf("bulk strategy %s is missing its foreign key column", name)
			}
			if strategy.Reconcile != nil {
				t.Fatalf("bulk strategy %s must not also carry a reconciler", name)
			}
		case StrategySpecific:
			if strategy.Reconcile == nil {
				t.Fatalf("specific strategy %s is missing its reconciler", name)
			}
		default:
			t.Fatalf("strategy %s has unknown kind %d", name, strategy.Kind)
		}
		if strategy.Table == "" {
			t.Fatalf("strategy %s is missing its table name", name)
		}
	}
}
