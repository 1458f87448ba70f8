package merge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidewell-health/platform/pkg/common/kafka"
	"github.com/tidewell-health/platform/pkg/common/logger"
	"github.com/tidewell-health/platform/pkg/common/models"
	"github.com/tidewell-health/platform/pkg/patient"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidMergeRequest = errors.New("invalid merge request")
	ErrPatientNotFound     = errors.New("patient not found")
)

type Service struct {
	db       *gorm.DB
	registry *Registry
	resolver *Resolver
	flagger  ResyncFlagger
	producer *kafka.Producer
}

func NewService(db *gorm.DB, registry *Registry, resolver *Resolver, flagger ResyncFlagger, producer *kafka.Producer) *Service {
	return &Service{db: db, registry: registry, resolver: resolver, flagger: flagger, producer: producer}
}

// MergePatients collapses the unwanted patient into the survivor inside a
// single transaction: the survivor's own attributes are filled from the
// loser, every dependent record across the catalog is repointed or
// reconciled, and the loser is marked merged and soft-deleted — never
// hard-deleted, so facility copies learn of the merge through sync. Any
// failure rolls the whole merge back; retrying is always safe because
// nothing partial ever commits.
func (s *Service) MergePatients(ctx context.Context, keepID, loserID, actor string) (map[string]int, error) {
	if keepID == "" || loserID == "" {
		return nil, fmt.Errorf("%w: both patient ids are required", ErrInvalidMergeRequest)
	}
	if keepID == loserID {
		return nil, fmt.Errorf("%w: cannot merge a patient into itself", ErrInvalidMergeRequest)
	}
	if err := s.ensurePatientExists(ctx, keepID); err != nil {
		return nil, err
	}
	if err := s.ensurePatientExists(ctx, loserID); err != nil {
		return nil, err
	}

	updates := make(map[string]int)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		keepRow := map[string]interface{}{}
		if err := tx.Model(&patient.Patient{}).Where("id = ?", keepID).Take(&keepRow).Error; err != nil {
			return err
		}
		loserRow := map[string]interface{}{}
		if err := tx.Model(&patient.Patient{}).Where("id = ?", loserID).Take(&loserRow).Error; err != nil {
			return err
		}

		merged := s.resolver.Merge(keepRow, loserRow)
		if len(merged) > 0 {
			merged["updated_at"] = now
			if err := tx.Model(&patient.Patient{}).Where("id = ?", keepID).Updates(merged).Error; err != nil {
				return fmt.Errorf("merge patient attributes: %w", err)
			}
		}

		err := tx.Model(&patient.Patient{}).Where("id = ?", loserID).Updates(map[string]interface{}{
			"merged_into_id":    keepID,
			"visibility_status": patient.VisibilityMerged,
			"updated_at":        now,
		}).Error
		if err != nil {
			return fmt.Errorf("mark patient merged: %w", err)
		}
		updates["Patient"] = 2

		// Flag the loser's resync-sensitive dependents while the loser is
		// still live. Soft-deleting the parent first would let the generic
		// cascade-delete-for-sync rule propagate an incorrect tombstone to
		// records that are not logically deleted.
		if err := s.flagDependents(tx, loserID); err != nil {
			return err
		}

		for _, name := range s.registry.Names() {
			strategy, _ := s.registry.Get(name)
			switch strategy.Kind {
			case StrategyBulk:
				affected, err := reassignColumn(tx, strategy.Model, strategy.FKColumn, keepID, loserID, strategy.Discriminator)
				if err != nil {
					return fmt.Errorf("reassign %s: %w", name, err)
				}
				if affected > 0 {
					updates[name] = int(affected)
				}
			case StrategySpecific:
				outcome, err := strategy.Reconcile(tx, keepID, loserID)
				if err != nil {
					return fmt.Errorf("reconcile %s: %w", name, err)
				}
				if outcome.count > 0 {
					updates[name] = int(outcome.count)
				}
			}
		}

		err = tx.Model(&patient.Patient{}).Where("id = ?", loserID).Updates(map[string]interface{}{
			"deleted_at": now,
			"updated_at": now,
		}).Error
		if err != nil {
			return fmt.Errorf("soft delete merged patient: %w", err)
		}

		return s.appendMergeLog(tx, keepID, loserID, actor, updates)
	})
	if err != nil {
		return nil, err
	}

	s.publishMergeEvent(ctx, keepID, loserID, updates)
	return updates, nil
}

// MergeTarget resolves where a patient record now lives, following one
// level of merged_into_id. Merge chains resolve incrementally: a record
// merged twice reports its next hop, not the final survivor.
func (s *Service) MergeTarget(ctx context.Context, patientID string) (models.MergeTargetResponse, error) {
	var row patient.Patient
	err := s.db.WithContext(ctx).Take(&row, "id = ?", patientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.MergeTargetResponse{}, fmt.Errorf("%w: %s", ErrPatientNotFound, patientID)
	}
	if err != nil {
		return models.MergeTargetResponse{}, err
	}
	return models.MergeTargetResponse{
		PatientID:        row.ID,
		MergedIntoID:     row.MergedIntoID,
		VisibilityStatus: row.VisibilityStatus,
	}, nil
}

// EntitiesMissingMergeCoverage reports catalog entity types with a
// patient foreign key and no registered strategy. Intended for build-time
// checks; merge time does not re-verify coverage.
func (s *Service) EntitiesMissingMergeCoverage() ([]string, error) {
	return MissingCoverage(s.registry, patient.AllModels())
}

func (s *Service) ensurePatientExists(ctx context.Context, id string) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&patient.Patient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: patient %s does not exist", ErrInvalidMergeRequest, id)
	}
	return nil
}

func (s *Service) flagDependents(tx *gorm.DB, loserID string) error {
	for _, name := range s.registry.Names() {
		strategy, _ := s.registry.Get(name)
		if !strategy.ResyncSensitive {
			continue
		}
		var ids []string
		if err := tx.Table(strategy.Table).Where("patient_id = ?", loserID).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("list %s for resync: %w", name, err)
		}
		for _, id := range ids {
			if err := s.flagger.MarkForResync(tx, name, id); err != nil {
				return fmt.Errorf("flag %s %s for resync: %w", name, id, err)
			}
		}
	}
	return nil
}

func (s *Service) appendMergeLog(tx *gorm.DB, keepID, loserID, actor string, updates map[string]int) error {
	payload, err := json.Marshal(updates)
	if err != nil {
		return err
	}
	if actor == "" {
		actor = "system"
	}
	entry := patient.PatientMergeLog{
		ID:              uuid.New().String(),
		KeepPatientID:   keepID,
		MergedPatientID: loserID,
		Actor:           actor,
		Updates:         datatypes.JSON(payload),
		CreatedAt:       time.Now().UTC(),
	}
	return tx.Create(&entry).Error
}

func (s *Service) publishMergeEvent(ctx context.Context, keepID, loserID string, updates map[string]int) {
	if s.producer == nil {
		return
	}
	data := map[string]interface{}{
		"keep_patient_id":   keepID,
		"merged_patient_id": loserID,
		"updates":           updates,
	}
	if err := s.producer.PublishEvent(ctx, "patient.merged", "merge-service", data); err != nil {
		logger.Log.WithError(err).Warn("failed to publish merge event")
	}
}
