package patient

import (
	"time"

	"gorm.io/datatypes"
)

// Visibility lifecycle shared by patients and death data rows.
const (
	VisibilityCurrent    = "current"
	VisibilityMerged     = "merged"
	VisibilityHistorical = "historical"
)

const (
	FieldDefinitionStateCurrent    = "current"
	FieldDefinitionStateHistorical = "historical"
)

// RecordTypePatient is the discriminator value notes use when they hang
// off a patient rather than an encounter or lab request.
const RecordTypePatient = "Patient"

// Patient is the identity record. A merged patient keeps its row forever:
// merged_into_id points at the survivor, visibility flips to merged and
// deleted_at is set, so downstream facility copies learn of the merge
// instead of seeing the record vanish.
type Patient struct {
	ID               string     `gorm:"primaryKey;column:id"`
	DisplayID        string     `gorm:"column:display_id;index"`
	FirstName        *string    `gorm:"column:first_name"`
	MiddleName       *string    `gorm:"column:middle_name"`
	LastName         *string    `gorm:"column:last_name"`
	CulturalName     *string    `gorm:"column:cultural_name"`
	Sex              *string    `gorm:"column:sex"`
	DateOfBirth      *time.Time `gorm:"column:date_of_birth"`
	Email            *string    `gorm:"column:email"`
	VillageID        *string    `gorm:"column:village_id"`
	MergedIntoID     *string    `gorm:"column:merged_into_id;index"`
	VisibilityStatus string     `gorm:"column:visibility_status"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
	DeletedAt        *time.Time `gorm:"column:deleted_at"`
}

func (Patient) TableName() string { return "patients" }

// PatientAdditionalData holds one row of optional demographic detail per
// patient.
type PatientAdditionalData struct {
	ID                     string     `gorm:"primaryKey;column:id"`
	PatientID              string     `gorm:"column:patient_id;index"`
	PlaceOfBirth           *string    `gorm:"column:place_of_birth"`
	BloodType              *string    `gorm:"column:blood_type"`
	PrimaryContactNumber   *string    `gorm:"column:primary_contact_number"`
	SecondaryContactNumber *string    `gorm:"column:secondary_contact_number"`
	MaritalStatus          *string    `gorm:"column:marital_status"`
	CityTown               *string    `gorm:"column:city_town"`
	StreetVillage          *string    `gorm:"column:street_village"`
	EducationalLevel       *string    `gorm:"column:educational_level"`
	Occupation             *string    `gorm:"column:occupation"`
	PassportNumber         *string    `gorm:"column:passport_number"`
	DrivingLicense         *string    `gorm:"column:driving_license"`
	EmergencyContactName   *string    `gorm:"column:emergency_contact_name"`
	EmergencyContactNumber *string    `gorm:"column:emergency_contact_number"`
	CreatedAt              time.Time  `gorm:"column:created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at"`
	DeletedAt              *time.Time `gorm:"column:deleted_at"`
}

func (PatientAdditionalData) TableName() string { return "patient_additional_data" }

type PatientBirthData struct {
	ID                   string     `gorm:"primaryKey;column:id"`
	PatientID            string     `gorm:"column:patient_id;index"`
	BirthWeight          *float64   `gorm:"column:birth_weight"`
	BirthLength          *float64   `gorm:"column:birth_length"`
	GestationalAgeWeeks  *float64   `gorm:"column:gestational_age_weeks"`
	DeliveryType         *string    `gorm:"column:delivery_type"`
	TimeOfBirth          *string    `gorm:"column:time_of_birth"`
	BirthType            *string    `gorm:"column:birth_type"`
	AttendantAtBirth     *string    `gorm:"column:attendant_at_birth"`
	NameOfAttendant      *string    `gorm:"column:name_of_attendant"`
	BirthFacilityID      *string    `gorm:"column:birth_facility_id"`
	RegisteredBirthPlace *string    `gorm:"column:registered_birth_place"`
	CreatedAt            time.Time  `gorm:"column:created_at"`
	UpdatedAt            time.Time  `gorm:"column:updated_at"`
	DeletedAt            *time.Time `gorm:"column:deleted_at"`
}

func (PatientBirthData) TableName() string { return "patient_birth_data" }

// PatientDeathData is append-only. At most one row per patient may carry
// visibility_status = current; revisions demote the previous row to
// historical rather than deleting it.
type PatientDeathData struct {
	ID                    string     `gorm:"primaryKey;column:id"`
	PatientID             string     `gorm:"column:patient_id;index"`
	ClinicianID           *string    `gorm:"column:clinician_id"`
	FacilityID            *string    `gorm:"column:facility_id"`
	MannerOfDeath         *string    `gorm:"column:manner_of_death"`
	CauseOfDeathID        *string    `gorm:"column:cause_of_death_id"`
	AntecedentCauseID     *string    `gorm:"column:antecedent_cause_id"`
	ExternalCauseDate     *time.Time `gorm:"column:external_cause_date"`
	ExternalCauseLocation *string    `gorm:"column:external_cause_location"`
	WasPregnant           *bool      `gorm:"column:was_pregnant"`
	VisibilityStatus      string     `gorm:"column:visibility_status"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
	DeletedAt             *time.Time `gorm:"column:deleted_at"`
}

func (PatientDeathData) TableName() string { return "patient_death_data" }

// PatientProgramRegistration uses a composite string id derived from
// (patient_id, program_registry_id). The id is stable once created: it is
// never regenerated when a merge transfers the row to another patient.
type PatientProgramRegistration struct {
	ID                    string     `gorm:"primaryKey;column:id"`
	PatientID             string     `gorm:"column:patient_id;index"`
	ProgramRegistryID     string     `gorm:"column:program_registry_id;index"`
	ClinicalStatusID      *string    `gorm:"column:clinical_status_id"`
	ClinicianID           *string    `gorm:"column:clinician_id"`
	RegisteringFacilityID *string    `gorm:"column:registering_facility_id"`
	IsMostRecent          bool       `gorm:"column:is_most_recent"`
	Date                  *time.Time `gorm:"column:date"`
	CreatedAt             time.Time  `gorm:"column:created_at"`
	UpdatedAt             time.Time  `gorm:"column:updated_at"`
	DeletedAt             *time.Time `gorm:"column:deleted_at"`
}

func (PatientProgramRegistration) TableName() string { return "patient_program_registrations" }

type PatientProgramRegistrationCondition struct {
	ID                         string     `gorm:"primaryKey;column:id"`
	PatientID                  string     `gorm:"column:patient_id;index"`
	ProgramRegistryID          string     `gorm:"column:program_registry_id"`
	ProgramRegistryConditionID *string    `gorm:"column:program_registry_condition_id"`
	Date                       *time.Time `gorm:"column:date"`
	CreatedAt                  time.Time  `gorm:"column:created_at"`
	UpdatedAt                  time.Time  `gorm:"column:updated_at"`
	DeletedAt                  *time.Time `gorm:"column:deleted_at"`
}

func (PatientProgramRegistrationCondition) TableName() string {
	return "patient_program_registration_conditions"
}

// PatientFieldDefinition is the catalog of configurable per-patient
// fields. Values reference a definition; reconciliation iterates the
// definition catalog, not the value rows.
type PatientFieldDefinition struct {
	ID        string         `gorm:"primaryKey;column:id"`
	Name      string         `gorm:"column:name"`
	FieldType string         `gorm:"column:field_type"`
	State     string         `gorm:"column:state"`
	Options   datatypes.JSON `gorm:"column:options"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (PatientFieldDefinition) TableName() string { return "patient_field_definitions" }

type PatientFieldValue struct {
	ID           string    `gorm:"primaryKey;column:id"`
	PatientID    string    `gorm:"column:patient_id;index"`
	DefinitionID string    `gorm:"column:definition_id;index"`
	Value        string    `gorm:"column:value"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (PatientFieldValue) TableName() string { return "patient_field_values" }

// PatientFacility marks a patient for inclusion in a facility's sync set.
type PatientFacility struct {
	ID         string    `gorm:"primaryKey;column:id"`
	PatientID  string    `gorm:"column:patient_id;index"`
	FacilityID string    `gorm:"column:facility_id;index"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (PatientFacility) TableName() string { return "patient_facilities" }

type Encounter struct {
	ID                 string     `gorm:"primaryKey;column:id"`
	PatientID          string     `gorm:"column:patient_id;index"`
	EncounterType      string     `gorm:"column:encounter_type"`
	StartDate          *time.Time `gorm:"column:start_date"`
	EndDate            *time.Time `gorm:"column:end_date"`
	ReasonForEncounter *string    `gorm:"column:reason_for_encounter"`
	DepartmentID       *string    `gorm:"column:department_id"`
	LocationID         *string    `gorm:"column:location_id"`
	ExaminerID         *string    `gorm:"column:examiner_id"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
	DeletedAt          *time.Time `gorm:"column:deleted_at"`
}

func (Encounter) TableName() string { return "encounters" }

type Appointment struct {
	ID          string     `gorm:"primaryKey;column:id"`
	PatientID   string     `gorm:"column:patient_id;index"`
	StartTime   *time.Time `gorm:"column:start_time"`
	EndTime     *time.Time `gorm:"column:end_time"`
	Status      string     `gorm:"column:status"`
	ClinicianID *string    `gorm:"column:clinician_id"`
	LocationID  *string    `gorm:"column:location_id"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
}

func (Appointment) TableName() string { return "appointments" }

type PatientAllergy struct {
	ID             string     `gorm:"primaryKey;column:id"`
	PatientID      string     `gorm:"column:patient_id;index"`
	AllergyID      *string    `gorm:"column:allergy_id"`
	PractitionerID *string    `gorm:"column:practitioner_id"`
	Note           *string    `gorm:"column:note"`
	RecordedDate   *time.Time `gorm:"column:recorded_date"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
	DeletedAt      *time.Time `gorm:"column:deleted_at"`
}

func (PatientAllergy) TableName() string { return "patient_allergies" }

type PatientIssue struct {
	ID           string     `gorm:"primaryKey;column:id"`
	PatientID    string     `gorm:"column:patient_id;index"`
	IssueType    string     `gorm:"column:issue_type"`
	Note         *string    `gorm:"column:note"`
	RecordedDate *time.Time `gorm:"column:recorded_date"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (PatientIssue) TableName() string { return "patient_issues" }

type PatientCondition struct {
	ID           string     `gorm:"primaryKey;column:id"`
	PatientID    string     `gorm:"column:patient_id;index"`
	ConditionID  *string    `gorm:"column:condition_id"`
	Note         *string    `gorm:"column:note"`
	RecordedDate *time.Time `gorm:"column:recorded_date"`
	Resolved     bool       `gorm:"column:resolved"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (PatientCondition) TableName() string { return "patient_conditions" }

type PatientFamilyHistory struct {
	ID           string     `gorm:"primaryKey;column:id"`
	PatientID    string     `gorm:"column:patient_id;index"`
	DiagnosisID  *string    `gorm:"column:diagnosis_id"`
	Relationship *string    `gorm:"column:relationship"`
	Note         *string    `gorm:"column:note"`
	RecordedDate *time.Time `gorm:"column:recorded_date"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
	DeletedAt    *time.Time `gorm:"column:deleted_at"`
}

func (PatientFamilyHistory) TableName() string { return "patient_family_histories" }

type PatientSecondaryID struct {
	ID        string     `gorm:"primaryKey;column:id"`
	PatientID string     `gorm:"column:patient_id;index"`
	TypeID    string     `gorm:"column:type_id"`
	Value     string     `gorm:"column:value"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
	DeletedAt *time.Time `gorm:"column:deleted_at"`
}

func (PatientSecondaryID) TableName() string { return "patient_secondary_ids" }

type PatientCarePlan struct {
	ID         string     `gorm:"primaryKey;column:id"`
	PatientID  string     `gorm:"column:patient_id;index"`
	CarePlanID *string    `gorm:"column:care_plan_id"`
	Note       *string    `gorm:"column:note"`
	ExaminerID *string    `gorm:"column:examiner_id"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}

func (PatientCarePlan) TableName() string { return "patient_care_plans" }

type PatientCommunication struct {
	ID          string     `gorm:"primaryKey;column:id"`
	PatientID   string     `gorm:"column:patient_id;index"`
	Channel     string     `gorm:"column:channel"`
	Destination *string    `gorm:"column:destination"`
	Content     *string    `gorm:"column:content"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at"`
}

func (PatientCommunication) TableName() string { return "patient_communications" }

type DocumentMetadata struct {
	ID            string     `gorm:"primaryKey;column:id"`
	PatientID     string     `gorm:"column:patient_id;index"`
	Name          string     `gorm:"column:name"`
	Type          *string    `gorm:"column:type"`
	Source        *string    `gorm:"column:source"`
	DocumentOwner *string    `gorm:"column:document_owner"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
	DeletedAt     *time.Time `gorm:"column:deleted_at"`
}

func (DocumentMetadata) TableName() string { return "document_metadata" }

// Note attaches to any record through a (record_id, record_type) pair
// rather than a declared foreign key.
type Note struct {
	ID         string     `gorm:"primaryKey;column:id"`
	NoteType   string     `gorm:"column:note_type"`
	RecordID   string     `gorm:"column:record_id;index"`
	RecordType string     `gorm:"column:record_type;index"`
	Content    *string    `gorm:"column:content"`
	AuthorID   *string    `gorm:"column:author_id"`
	Date       *time.Time `gorm:"column:date"`
	CreatedAt  time.Time  `gorm:"column:created_at"`
	UpdatedAt  time.Time  `gorm:"column:updated_at"`
	DeletedAt  *time.Time `gorm:"column:deleted_at"`
}

func (Note) TableName() string { return "notes" }

// SyncRefreshQueue rows flag records whose facility copies must be
// refreshed on the next sync session. Written inside the merge
// transaction so the flag commits atomically with the merge itself.
type SyncRefreshQueue struct {
	ID         string    `gorm:"primaryKey;column:id"`
	EntityType string    `gorm:"column:entity_type;uniqueIndex:idx_sync_refresh_entity"`
	EntityID   string    `gorm:"column:entity_id;uniqueIndex:idx_sync_refresh_entity"`
	Reason     string    `gorm:"column:reason"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (SyncRefreshQueue) TableName() string { return "sync_refresh_queue" }

// PatientMergeLog is the audit trail: one row per committed merge.
type PatientMergeLog struct {
	ID              string         `gorm:"primaryKey;column:id"`
	KeepPatientID   string         `gorm:"column:keep_patient_id;index"`
	MergedPatientID string         `gorm:"column:merged_patient_id;index"`
	Actor           string         `gorm:"column:actor"`
	Updates         datatypes.JSON `gorm:"column:updates"`
	CreatedAt       time.Time      `gorm:"column:created_at"`
}

func (PatientMergeLog) TableName() string { return "patient_merge_logs" }
