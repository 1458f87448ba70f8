package merge

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tidewell-health/platform/pkg/patient"
	"gorm.io/gorm"
)

// reconcileOutcome reports what a reconciler touched. Record ids are only
// collected for entity types with downstream sync implications.
type reconcileOutcome struct {
	count   int64
	records []string
}

type reconcilerFunc func(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error)

// reconcilerSet holds the per-entity-type merge strategies that need more
// than a column swap. Every reconciler is safe to re-invoke with the same
// arguments: the maintenance sweep calls them again for records that sync
// in after the original merge committed.
type reconcilerSet struct {
	resolver          *Resolver
	facilityBatchSize int
}

func newReconcilerSet(resolver *Resolver, facilityBatchSize int) *reconcilerSet {
	if facilityBatchSize <= 0 {
		facilityBatchSize = DefaultRules().FacilityBatchSize
	}
	return &reconcilerSet{resolver: resolver, facilityBatchSize: facilityBatchSize}
}

func (rs *reconcilerSet) additionalData(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	return rs.mergeSingleton(tx, &patient.PatientAdditionalData{}, keepID, loserID)
}

func (rs *reconcilerSet) birthData(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	return rs.mergeSingleton(tx, &patient.PatientBirthData{}, keepID, loserID)
}

// mergeSingleton collapses the one-row-per-patient satellites. Both rows
// are hard-deleted and a fresh row is inserted for the survivor: delete
// then insert cannot race a duplicate unique key, and the stale primary
// key is discarded with the old rows.
func (rs *reconcilerSet) mergeSingleton(tx *gorm.DB, model interface{}, keepID, loserID string) (reconcileOutcome, error) {
	loserRow := map[string]interface{}{}
	err := tx.Model(model).Where("patient_id = ?", loserID).Take(&loserRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return reconcileOutcome{}, nil
	}
	if err != nil {
		return reconcileOutcome{}, err
	}

	keepRow := map[string]interface{}{}
	err = tx.Model(model).Where("patient_id = ?", keepID).Take(&keepRow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		keepRow = nil
	} else if err != nil {
		return reconcileOutcome{}, err
	}

	merged := rs.resolver.Merge(keepRow, loserRow)

	if err := tx.Where("patient_id IN ?", []string{keepID, loserID}).Delete(model).Error; err != nil {
		return reconcileOutcome{}, err
	}

	now := time.Now().UTC()
	merged["id"] = uuid.New().String()
	merged["patient_id"] = keepID
	merged["created_at"] = now
	merged["updated_at"] = now
	if err := tx.Model(model).Create(merged).Error; err != nil {
		return reconcileOutcome{}, err
	}

	return reconcileOutcome{count: 1, records: []string{merged["id"].(string)}}, nil
}

// deathData reassigns every losing row and demotes a CURRENT row to
// MERGED on the way over, so the survivor never gains a second live death
// record. Nothing is deleted: every row is preserved as history.
func (rs *reconcilerSet) deathData(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	var rows []patient.PatientDeathData
	if err := tx.Where("patient_id = ?", loserID).Find(&rows).Error; err != nil {
		return reconcileOutcome{}, err
	}

	outcome := reconcileOutcome{}
	now := time.Now().UTC()
	for _, row := range rows {
		updates := map[string]interface{}{
			"patient_id": keepID,
			"updated_at": now,
		}
		if row.VisibilityStatus == patient.VisibilityCurrent {
			updates["visibility_status"] = patient.VisibilityMerged
		}
		if err := tx.Model(&patient.PatientDeathData{}).Where("id = ?", row.ID).Updates(updates).Error; err != nil {
			return reconcileOutcome{}, err
		}
		outcome.count++
		outcome.records = append(outcome.records, row.ID)
	}
	return outcome, nil
}

// programRegistrations transfers the loser's registrations. When the
// survivor already holds a live registration for the same registry, the
// loser's row is tombstoned where it sits instead of transferred, so the
// survivor never carries two live registrations for one registry. The
// transfer and the tombstone land in a single UPDATE so no reader in the
// same transaction can observe a transient duplicate. Composite ids are
// never regenerated on transfer.
func (rs *reconcilerSet) programRegistrations(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	var regs []patient.PatientProgramRegistration
	if err := tx.Where("patient_id = ?", loserID).Find(&regs).Error; err != nil {
		return reconcileOutcome{}, err
	}

	outcome := reconcileOutcome{}
	now := time.Now().UTC()
	for _, reg := range regs {
		var live int64
		err := tx.Model(&patient.PatientProgramRegistration{}).
			Where("patient_id = ? AND program_registry_id = ? AND deleted_at IS NULL", keepID, reg.ProgramRegistryID).
			Count(&live).Error
		if err != nil {
			return reconcileOutcome{}, err
		}

		if reg.DeletedAt == nil {
			updates := map[string]interface{}{
				"is_most_recent": false,
				"deleted_at":     now,
				"updated_at":     now,
			}
			if live == 0 {
				updates["patient_id"] = keepID
			}
			if err := tx.Model(&patient.PatientProgramRegistration{}).Where("id = ?", reg.ID).Updates(updates).Error; err != nil {
				return reconcileOutcome{}, err
			}
			outcome.count++
			continue
		}

		// Already tombstoned. A duplicate tombstone stays with the merged
		// patient; any other history follows the survivor.
		if live > 0 {
			continue
		}
		err = tx.Model(&patient.PatientProgramRegistration{}).Where("id = ?", reg.ID).Updates(map[string]interface{}{
			"patient_id": keepID,
			"updated_at": now,
		}).Error
		if err != nil {
			return reconcileOutcome{}, err
		}
		outcome.count++
	}
	return outcome, nil
}

// registrationConditions transfers every condition row and tombstones the
// live ones, so downstream sync consumers see the tombstone instead of a
// vanished record.
func (rs *reconcilerSet) registrationConditions(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	now := time.Now().UTC()

	live := tx.Model(&patient.PatientProgramRegistrationCondition{}).
		Where("patient_id = ? AND deleted_at IS NULL", loserID).
		Updates(map[string]interface{}{
			"patient_id": keepID,
			"deleted_at": now,
			"updated_at": now,
		})
	if live.Error != nil {
		return reconcileOutcome{}, live.Error
	}

	tombstoned := tx.Model(&patient.PatientProgramRegistrationCondition{}).
		Where("patient_id = ?", loserID).
		Updates(map[string]interface{}{
			"patient_id": keepID,
			"updated_at": now,
		})
	if tombstoned.Error != nil {
		return reconcileOutcome{}, tombstoned.Error
	}

	return reconcileOutcome{count: live.RowsAffected + tombstoned.RowsAffected}, nil
}

// fieldValues reconciles definition by definition over the full catalog
// of active definitions, so definitions present only on the loser are
// created on the survivor and definitions with no loser row are never
// touched. All loser rows are removed afterwards.
func (rs *reconcilerSet) fieldValues(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	var definitions []patient.PatientFieldDefinition
	err := tx.Where("state = ?", patient.FieldDefinitionStateCurrent).Find(&definitions).Error
	if err != nil {
		return reconcileOutcome{}, err
	}

	outcome := reconcileOutcome{}
	now := time.Now().UTC()
	for _, definition := range definitions {
		var loserValue patient.PatientFieldValue
		err := tx.Where("patient_id = ? AND definition_id = ?", loserID, definition.ID).Take(&loserValue).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return reconcileOutcome{}, err
		}

		var keepValue patient.PatientFieldValue
		err = tx.Where("patient_id = ? AND definition_id = ?", keepID, definition.ID).Take(&keepValue).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := patient.PatientFieldValue{
				ID:           uuid.New().String(),
				PatientID:    keepID,
				DefinitionID: definition.ID,
				Value:        loserValue.Value,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			if err := tx.Create(&created).Error; err != nil {
				return reconcileOutcome{}, err
			}
			outcome.count++
		case err != nil:
			return reconcileOutcome{}, err
		case keepValue.Value == "" && loserValue.Value != "":
			err := tx.Model(&patient.PatientFieldValue{}).Where("id = ?", keepValue.ID).Updates(map[string]interface{}{
				"value":      loserValue.Value,
				"updated_at": now,
			}).Error
			if err != nil {
				return reconcileOutcome{}, err
			}
			outcome.count++
		}
	}

	deleted := tx.Where("patient_id = ?", loserID).Delete(&patient.PatientFieldValue{})
	if deleted.Error != nil {
		return reconcileOutcome{}, deleted.Error
	}
	outcome.count += deleted.RowsAffected

	return outcome, nil
}

// facilities rebuilds the tracking set from scratch: union the facility
// ids over both patients, drop every old row and insert fresh rows for
// the survivor. Simpler to resync the merged identity everywhere than to
// reconcile per-facility history.
func (rs *reconcilerSet) facilities(tx *gorm.DB, keepID, loserID string) (reconcileOutcome, error) {
	var rows []patient.PatientFacility
	if err := tx.Where("patient_id IN ?", []string{keepID, loserID}).Find(&rows).Error; err != nil {
		return reconcileOutcome{}, err
	}

	merging := false
	for _, row := range rows {
		if row.PatientID == loserID {
			merging = true
			break
		}
	}
	if !merging {
		return reconcileOutcome{}, nil
	}

	seen := make(map[string]struct{}, len(rows))
	facilityIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row.FacilityID]; dup {
			continue
		}
		seen[row.FacilityID] = struct{}{}
		facilityIDs = append(facilityIDs, row.FacilityID)
	}

	if err := tx.Where("patient_id IN ?", []string{keepID, loserID}).Delete(&patient.PatientFacility{}).Error; err != nil {
		return reconcileOutcome{}, err
	}

	now := time.Now().UTC()
	fresh := make([]patient.PatientFacility, 0, len(facilityIDs))
	for _, facilityID := range facilityIDs {
		fresh = append(fresh, patient.PatientFacility{
			ID:         uuid.New().String(),
			PatientID:  keepID,
			FacilityID: facilityID,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	if err := tx.CreateInBatches(fresh, rs.facilityBatchSize).Error; err != nil {
		return reconcileOutcome{}, err
	}

	return reconcileOutcome{count: int64(len(fresh))}, nil
}
