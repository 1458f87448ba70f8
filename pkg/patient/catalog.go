package patient

import "gorm.io/gorm"

// AllModels is the single entity catalog. AutoMigrate, the merge coverage
// check and the tests all walk this list, so a new patient-referencing
// entity added here without a merge strategy fails the coverage test.
func AllModels() []interface{} {
	return []interface{}{
		&Patient{},
		&PatientAdditionalData{},
		&PatientBirthData{},
		&PatientDeathData{},
		&PatientProgramRegistration{},
		&PatientProgramRegistrationCondition{},
		&PatientFieldDefinition{},
		&PatientFieldValue{},
		&PatientFacility{},
		&Encounter{},
		&Appointment{},
		&PatientAllergy{},
		&PatientIssue{},
		&PatientCondition{},
		&PatientFamilyHistory{},
		&PatientSecondaryID{},
		&PatientCarePlan{},
		&PatientCommunication{},
		&DocumentMetadata{},
		&Note{},
		&SyncRefreshQueue{},
		&PatientMergeLog{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
