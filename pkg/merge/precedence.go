package merge

// Resolver computes a merged attribute set from two candidate records.
// The keep record's value wins whenever it is present and non-empty;
// otherwise the losing record's value fills the gap. Excluded columns are
// dropped entirely so a merge can never rewrite identity or audit fields.
type Resolver struct {
	excluded map[string]struct{}
}

func NewResolver(excludedColumns []string) *Resolver {
	excluded := make(map[string]struct{}, len(excludedColumns))
	for _, column := range excludedColumns {
		excluded[column] = struct{}{}
	}
	return &Resolver{excluded: excluded}
}

// Merge is pure and total: nil maps are treated as empty, the inputs are
// never mutated, and keys with no usable value on either side are
// omitted from the result.
func (r *Resolver) Merge(keep, loser map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{})

	for column, value := range keep {
		if _, skip := r.excluded[column]; skip {
			continue
		}
		if !isEmptyValue(value) {
			merged[column] = value
		}
	}

	for column, value := range loser {
		if _, skip := r.excluded[column]; skip {
			continue
		}
		if _, taken := merged[column]; taken {
			continue
		}
		if !isEmptyValue(value) {
			merged[column] = value
		}
	}

	return merged
}

func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	case *string:
		return v == nil || *v == ""
	default:
		return false
	}
}
