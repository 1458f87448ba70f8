package merge

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Rules configures the precedence merge. ExcludedColumns are never
// carried from one record to another: identity, audit and merge-control
// columns would otherwise be clobbered by the attribute merge.
type Rules struct {
	ExcludedColumns    []string `yaml:"excluded_columns" json:"excluded_columns"`
	FacilityBatchSize  int      `yaml:"facility_batch_size" json:"facility_batch_size"`
	CandidateThreshold float64  `yaml:"candidate_threshold" json:"candidate_threshold"`
}

func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultRules(), err
	}

	// Callers fall back to the returned defaults on error; a zero Rules
	// value would let the attribute merge clobber identity columns.
	var rules Rules
	if err := yaml.Unmarshal(content, &rules); err != nil {
		return DefaultRules(), err
	}

	if len(rules.ExcludedColumns) == 0 {
		return DefaultRules(), errors.New("no excluded columns configured")
	}
	if rules.FacilityBatchSize <= 0 {
		rules.FacilityBatchSize = DefaultRules().FacilityBatchSize
	}
	if rules.CandidateThreshold <= 0 {
		rules.CandidateThreshold = DefaultRules().CandidateThreshold
	}

	return rules, nil
}

func DefaultRules() Rules {
	return Rules{
		ExcludedColumns: []string{
			"id",
			"patient_id",
			"created_at",
			"updated_at",
			"deleted_at",
			"merged_into_id",
			"visibility_status",
		},
		FacilityBatchSize:  100,
		CandidateThreshold: 0.85,
	}
}
