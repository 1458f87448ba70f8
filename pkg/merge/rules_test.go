package merge

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merge-rules.yaml")
	content := []byte(`excluded_columns:
  - id
  - created_at
facility_batch_size: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if len(rules.ExcludedColumns) != 2 || rules.ExcludedColumns[0] != "id" {
		t.Fatalf("unexpected excluded columns %v", rules.ExcludedColumns)
	}
	if rules.FacilityBatchSize != 25 {
		t.Fatalf("unexpected batch size %d", rules.FacilityBatchSize)
	}
}

func TestLoadRulesEmptyPathUsesDefaults(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil {
		t.Fatalf("load default rules: %v", err)
	}
	if len(rules.ExcludedColumns) == 0 || rules.FacilityBatchSize != 100 {
		t.Fatalf("unexpected defaults %+v", rules)
	}
}

func TestLoadRulesMissingFileFallsBack(t *testing.T) {
	rules, err := LoadRules("/nonexistent/merge-rules.yaml")
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
	if len(rules.ExcludedColumns) == 0 {
		t.Fatal("missing file must still yield usable defaults")
	}
}

func TestLoadRulesRejectsEmptyExclusions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merge-rules.yaml")
	if err := os.WriteFile(path, []byte("facility_batch_size: 10\n"), 0o600); err != nil {
		t.Fatalf("write rules file: %v", err)
	}

	if _, err := LoadRules(path); err == nil {
		t.Fatal("expected an error for a rules file with no exclusions")
	}
}

func TestMarkForResyncIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	flagger := NewQueueFlagger()

	for i := 0; i < 3; i++ {
		if err := flagger.MarkForResync(db, "Encounter", "enc-1"); err != nil {
			t.Fatalf("mark for resync: %v", err)
		}
	}

	var count int64
	if err := db.Table("sync_refresh_queue").Where("entity_type = ? AND entity_id = ?", "Encounter", "enc-1").Count(&count).Error; err != nil {
		t.Fatalf("count queue rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected a single queue row, got %d", count)
	}
}
