package merge

import (
	"context"
	"testing"
	"time"

	"github.com/tidewell-health/platform/pkg/patient"
)

func TestRemergeSweepIsIdempotentWithNothingPending(t *testing.T) {
	service, db := newTestService(t)
	maintainer := newTestMaintainer(t, db)
	seedPatient(t, db, "keep")
	seedPatient(t, db, "loser")

	now := time.Now().UTC()
	keepReg := patient.PatientProgramRegistration{
		ID:                patient.MakeProgramRegistrationID("keep", "tb-program"),
		PatientID:         "keep",
		ProgramRegistryID: "tb-program",
		IsMostRecent:      true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	loserReg := patient.PatientProgramRegistration{
		ID:                patient.MakeProgramRegistrationID("loser", "tb-program"),
		PatientID:         "loser",
		ProgramRegistryID: "tb-program",
		IsMostRecent:      true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := db.Create(&keepReg).Error; err != nil {
		t.Fatalf("seed keep registration: %v", err)
	}
	if err := db.Create(&loserReg).Error; err != nil {
		t.Fatalf("seed loser registration: %v", err)
	}

	if _, err := service.MergePatients(context.Background(), "keep", "loser", "test"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	// The duplicate tombstone deliberately stays with the merged patient,
	// so consecutive sweeps keep finding it and must keep leaving it alone.
	for i := 0; i < 2; i++ {
		counts, err := maintainer.RemergePendingRecords(context.Background())
		if err != nil {
			t.Fatalf("sweep %d failed: %v", i, err)
		}
		if len(counts) != 0 {
			t.Fatalf("sweep %d: expected no repairs, got %v", i, counts)
		}
	}

	var duplicate patient.PatientProgramRegistration
	if err := db.Take(&duplicate, "id = ?", loserReg.ID).Error; err != nil {
		t.Fatalf("load duplicate registration: %v", err)
	}
	if duplicate.PatientID != "loser" {
		t.Fatalf("sweep must not move the duplicate tombstone, got %s", duplicate.PatientID)
	}
}

func TestRemergeSweepRepairsStragglers(t *testing.T) {
	service, db := newTestService(t)
	maintainer := newTestMaintainer(t, db)
	seedPatient(t, db, "keep")
	seedPatient(t, db, "loser")

	if _, err := service.MergePatients(context.Background(), "keep", "loser", "test"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	// Records sync in from a facility that had not yet seen the merge.
	now := time.Now().UTC()
	encounter := patient.Encounter{ID: newID(), PatientID: "loser", EncounterType: "clinic", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&encounter).Error; err != nil {
		t.Fatalf("seed straggler encounter: %v", err)
	}
	appointment := patient.Appointment{ID: newID(), PatientID: "loser", Status: "scheduled", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&appointment).Error; err != nil {
		t.Fatalf("seed straggler appointment: %v", err)
	}
	additional := patient.PatientAdditionalData{ID: newID(), PatientID: "loser", BloodType: strptr("O+"), CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&additional).Error; err != nil {
		t.Fatalf("seed straggler additional data: %v", err)
	}
	patientNote := patient.Note{ID: newID(), NoteType: "clinical", RecordID: "loser", RecordType: patient.RecordTypePatient, CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&patientNote).Error; err != nil {
		t.Fatalf("seed straggler note: %v", err)
	}
	encounterNote := patient.Note{ID: newID(), NoteType: "clinical", RecordID: "loser", RecordType: "Encounter", CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&encounterNote).Error; err != nil {
		t.Fatalf("seed encounter note: %v", err)
	}

	counts, err := maintainer.RemergePendingRecords(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	expected := map[string]int{"Encounter": 1, "Appointment": 1, "Note": 1, "PatientAdditionalData": 1}
	if len(counts) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, counts)
	}
	for name, count := range expected {
		if counts[name] != count {
			t.Fatalf("expected %v, got %v", expected, counts)
		}
	}

	var repaired patient.Encounter
	if err := db.Take(&repaired, "id = ?", encounter.ID).Error; err != nil {
		t.Fatalf("load encounter: %v", err)
	}
	if repaired.PatientID != "keep" {
		t.Fatalf("expected encounter repointed, got %s", repaired.PatientID)
	}

	var movedNote patient.Note
	if err := db.Take(&movedNote, "id = ?", patientNote.ID).Error; err != nil {
		t.Fatalf("load note: %v", err)
	}
	if movedNote.RecordID != "keep" {
		t.Fatalf("expected patient note repointed, got %s", movedNote.RecordID)
	}
	var otherNote patient.Note
	if err := db.Take(&otherNote, "id = ?", encounterNote.ID).Error; err != nil {
		t.Fatalf("load encounter note: %v", err)
	}
	if otherNote.RecordID != "loser" {
		t.Fatal("sweep must not repoint notes hanging off other record types")
	}

	var converged patient.PatientAdditionalData
	if err := db.Take(&converged, "patient_id = ?", "keep").Error; err != nil {
		t.Fatalf("load converged additional data: %v", err)
	}
	if converged.BloodType == nil || *converged.BloodType != "O+" {
		t.Fatalf("expected straggler data folded into the survivor, got %+v", converged)
	}

	// The repointed encounter must be queued for a fresh push to facility
	// copies.
	var queued int64
	err = db.Model(&patient.SyncRefreshQueue{}).
		Where("entity_type = ? AND entity_id = ?", "Encounter", encounter.ID).
		Count(&queued).Error
	if err != nil {
		t.Fatalf("count queue rows: %v", err)
	}
	if queued != 1 {
		t.Fatalf("expected repointed encounter flagged once, got %d", queued)
	}

	// The first sweep cleared everything the second one looks for.
	counts, err = maintainer.RemergePendingRecords(context.Background())
	if err != nil {
		t.Fatalf("second sweep failed: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("expected second sweep to find nothing, got %v", counts)
	}
}

func TestRemergeSweepRepairsMultipleMergesInOnePass(t *testing.T) {
	service, db := newTestService(t)
	maintainer := newTestMaintainer(t, db)
	seedPatient(t, db, "keep-1")
	seedPatient(t, db, "loser-1")
	seedPatient(t, db, "keep-2")
	seedPatient(t, db, "loser-2")

	if _, err := service.MergePatients(context.Background(), "keep-1", "loser-1", "test"); err != nil {
		t.Fatalf("first merge failed: %v", err)
	}
	if _, err := service.MergePatients(context.Background(), "keep-2", "loser-2", "test"); err != nil {
		t.Fatalf("second merge failed: %v", err)
	}

	now := time.Now().UTC()
	first := patient.PatientBirthData{ID: newID(), PatientID: "loser-1", DeliveryType: strptr("normal"), CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("seed birth data: %v", err)
	}
	second := patient.PatientBirthData{ID: newID(), PatientID: "loser-2", DeliveryType: strptr("caesarean"), CreatedAt: now, UpdatedAt: now}
	if err := db.Create(&second).Error; err != nil {
		t.Fatalf("seed birth data: %v", err)
	}

	counts, err := maintainer.RemergePendingRecords(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if counts["PatientBirthData"] != 2 {
		t.Fatalf("expected both merges repaired in one pass, got %v", counts)
	}

	for _, keepID := range []string{"keep-1", "keep-2"} {
		var row patient.PatientBirthData
		if err := db.Take(&row, "patient_id = ?", keepID).Error; err != nil {
			t.Fatalf("load birth data for %s: %v", keepID, err)
		}
	}
}

func TestEntitiesMissingSpecificHandling(t *testing.T) {
	db := newTestDB(t)
	maintainer := newTestMaintainer(t, db)

	if missing := maintainer.EntitiesMissingSpecificHandling(); len(missing) != 0 {
		t.Fatalf("every specific strategy must ship a reconciler, missing %v", missing)
	}
}
