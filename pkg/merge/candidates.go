package merge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidewell-health/platform/pkg/common/models"
	"github.com/tidewell-health/platform/pkg/patient"
	"gorm.io/gorm"
)

const defaultCandidateScanLimit = 1000

// CandidateFinder surfaces live patients that look like duplicates of a
// given record, scored on Jaro-Winkler name similarity adjusted by
// date-of-birth agreement. It only suggests pairs; merging them stays a
// human decision through the merge endpoint.
type CandidateFinder struct {
	db        *gorm.DB
	threshold float64
	scanLimit int
}

func NewCandidateFinder(db *gorm.DB, rules Rules) *CandidateFinder {
	threshold := rules.CandidateThreshold
	if threshold <= 0 {
		threshold = DefaultRules().CandidateThreshold
	}
	return &CandidateFinder{db: db, threshold: threshold, scanLimit: defaultCandidateScanLimit}
}

func (f *CandidateFinder) FindDuplicates(ctx context.Context, patientID string, limit int) ([]models.DuplicateCandidate, error) {
	var target patient.Patient
	err := f.db.WithContext(ctx).Take(&target, "id = ?", patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if err != nil {
		return nil, err
	}

	targetKey := nameKey(target)
	if targetKey == "" {
		return nil, nil
	}

	query := f.db.WithContext(ctx).
		Where("id <> ?", patientID).
		Where("deleted_at IS NULL AND merged_into_id IS NULL").
		Limit(f.scanLimit)
	// A recorded birth date is a strong block; candidates with a
	// different one are unlikely duplicates and are skipped up front.
	if target.DateOfBirth != nil {
		query = query.Where("date_of_birth = ? OR date_of_birth IS NULL", target.DateOfBirth)
	}

	var candidates []patient.Patient
	if err := query.Find(&candidates).Error; err != nil {
		return nil, err
	}

	var results []models.DuplicateCandidate
	for _, candidate := range candidates {
		key := nameKey(candidate)
		if key == "" {
			continue
		}
		score := jaroWinkler(targetKey, key)
		// Mismatched birth dates never load, so a candidate with one
		// recorded must share the target's.
		if target.DateOfBirth != nil && candidate.DateOfBirth != nil {
			score += (1 - score) * 0.3
		}
		if score < f.threshold {
			continue
		}
		results = append(results, models.DuplicateCandidate{
			PatientID: candidate.ID,
			DisplayID: candidate.DisplayID,
			Score:     score,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func nameKey(p patient.Patient) string {
	parts := make([]string, 0, 2)
	for _, field := range []*string{p.FirstName, p.LastName} {
		if field == nil {
			continue
		}
		if trimmed := strings.TrimSpace(strings.ToLower(*field)); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

func jaroWinkler(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	matchDistance := max(len(s1), len(s2))/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))

	matches := 0
	transpositions := 0

	for i := range s1 {
		start := max(0, i-matchDistance)
		end := min(i+matchDistance+1, len(s2))
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	k := 0
	for i := range s1 {
		if !s1Matches[i] {
			continue
		}
		for ; !s2Matches[k]; k++ {
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	transpositions /= 2

	jaro := (float64(matches)/float64(len(s1)) + float64(matches)/float64(len(s2)) + float64(matches-transpositions)/float64(matches)) / 3

	prefix := 0
	for i := 0; i < min(4, min(len(s1), len(s2))); i++ {
		if s1[i] == s2[i] {
			prefix++
		} else {
			break
		}
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}
