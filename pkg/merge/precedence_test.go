package merge

import "testing"

func TestResolverKeepValueWins(t *testing.T) {
	resolver := NewResolver(DefaultRules().ExcludedColumns)

	merged := resolver.Merge(
		map[string]interface{}{"first_name": "A"},
		map[string]interface{}{"first_name": "B"},
	)
	if merged["first_name"] != "A" {
		t.Fatalf("expected keep value to win, got %v", merged["first_name"])
	}
}

func TestResolverEmptyKeepValueFilledFromLoser(t *testing.T) {
	resolver := NewResolver(DefaultRules().ExcludedColumns)

	merged := resolver.Merge(
		map[string]interface{}{"first_name": "", "last_name": nil},
		map[string]interface{}{"first_name": "X", "last_name": "Y"},
	)
	if merged["first_name"] != "X" {
		t.Fatalf("expected empty keep value to be filled, got %v", merged["first_name"])
	}
	if merged["last_name"] != "Y" {
		t.Fatalf("expected nil keep value to be filled, got %v", merged["last_name"])
	}
}

func TestResolverOmitsKeysWithNoUsableValue(t *testing.T) {
	resolver := NewResolver(DefaultRules().ExcludedColumns)

	merged := resolver.Merge(
		map[string]interface{}{"email": ""},
		map[string]interface{}{"email": nil},
	)
	if _, present := merged["email"]; present {
		t.Fatalf("expected key with no usable value to be omitted, got %v", merged["email"])
	}
}

func TestResolverStripsExcludedColumns(t *testing.T) {
	resolver := NewResolver(DefaultRules().ExcludedColumns)

	merged := resolver.Merge(
		map[string]interface{}{"id": "keep-id", "merged_into_id": nil, "visibility_status": "current", "sex": "female"},
		map[string]interface{}{"id": "loser-id", "merged_into_id": "keep-id", "visibility_status": "merged", "sex": "male"},
	)
	for _, column := range []string{"id", "merged_into_id", "visibility_status", "created_at", "updated_at", "deleted_at"} {
		if _, present := merged[column]; present {
			t.Fatalf("expected %s to be excluded from merge", column)
		}
	}
	if merged["sex"] != "female" {
		t.Fatalf("expected sex to survive the merge, got %v", merged["sex"])
	}
}

func TestResolverTotalOnNilMaps(t *testing.T) {
	resolver := NewResolver(DefaultRules().ExcludedColumns)

	if merged := resolver.Merge(nil, nil); len(merged) != 0 {
		t.Fatalf("expected empty result for nil inputs, got %v", merged)
	}
	merged := resolver.Merge(nil, map[string]interface{}{"first_name": "X"})
	if merged["first_name"] != "X" {
		t.Fatalf("expected loser values with nil keep map, got %v", merged)
	}
}

func TestResolverInjectableExclusions(t *testing.T) {
	resolver := NewResolver([]string{"sex"})

	merged := resolver.Merge(
		map[string]interface{}{"sex": "female", "id": "keep-id"},
		map[string]interface{}{},
	)
	if _, present := merged["sex"]; present {
		t.Fatal("expected injected exclusion to apply")
	}
	if merged["id"] != "keep-id" {
		t.Fatal("expected non-excluded column to pass through")
	}
}
