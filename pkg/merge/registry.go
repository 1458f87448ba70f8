package merge

import (
	"github.com/tidewell-health/platform/pkg/patient"
)

type StrategyKind int

const (
	StrategyBulk StrategyKind = iota
	StrategySpecific
)

// Strategy declares how one entity type follows a patient merge: either a
// set-based foreign-key swap (bulk) or a dedicated reconciler (specific).
// ResyncSensitive entity types get their touched records flagged for
// fresh propagation to facility copies.
type Strategy struct {
	Kind            StrategyKind
	Model           interface{}
	Table           string
	FKColumn        string
	Discriminator   map[string]string
	Reconcile       reconcilerFunc
	ResyncSensitive bool
}

// Registry maps every patient-referencing entity type to exactly one
// strategy. It is built once at startup; the coverage check asserts its
// keys match the set of entities with a foreign key to the patient table,
// so wiring a new entity type cannot be forgotten silently.
type Registry struct {
	entries map[string]Strategy
	order   []string
}

func NewRegistry(resolver *Resolver, rules Rules) *Registry {
	rs := newReconcilerSet(resolver, rules.FacilityBatchSize)

	r := &Registry{entries: make(map[string]Strategy)}

	r.add("Encounter", Strategy{
		Kind: StrategyBulk, Model: &patient.Encounter{}, Table: patient.Encounter{}.TableName(),
		FKColumn: "patient_id", ResyncSensitive: true,
	})
	r.add("Appointment", Strategy{
		Kind: StrategyBulk, Model: &patient.Appointment{}, Table: patient.Appointment{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientAllergy", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientAllergy{}, Table: patient.PatientAllergy{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientIssue", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientIssue{}, Table: patient.PatientIssue{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientCondition", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientCondition{}, Table: patient.PatientCondition{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientFamilyHistory", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientFamilyHistory{}, Table: patient.PatientFamilyHistory{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientSecondaryID", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientSecondaryID{}, Table: patient.PatientSecondaryID{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("PatientCarePlan", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientCarePlan{}, Table: patient.PatientCarePlan{}.TableName(),
		FKColumn: "patient_id", ResyncSensitive: true,
	})
	r.add("PatientCommunication", Strategy{
		Kind: StrategyBulk, Model: &patient.PatientCommunication{}, Table: patient.PatientCommunication{}.TableName(),
		FKColumn: "patient_id",
	})
	r.add("DocumentMetadata", Strategy{
		Kind: StrategyBulk, Model: &patient.DocumentMetadata{}, Table: patient.DocumentMetadata{}.TableName(),
		FKColumn: "patient_id",
	})

	// Notes point at their owner through a (record_id, record_type) pair;
	// only rows hanging off the patient itself move.
	r.add("Note", Strategy{
		Kind: StrategyBulk, Model: &patient.Note{}, Table: patient.Note{}.TableName(),
		FKColumn:      "record_id",
		Discriminator: map[string]string{"record_type": patient.RecordTypePatient},
	})

	r.add("PatientAdditionalData", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientAdditionalData{}, Table: patient.PatientAdditionalData{}.TableName(),
		Reconcile: rs.additionalData,
	})
	r.add("PatientBirthData", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientBirthData{}, Table: patient.PatientBirthData{}.TableName(),
		Reconcile: rs.birthData,
	})
	r.add("PatientDeathData", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientDeathData{}, Table: patient.PatientDeathData{}.TableName(),
		Reconcile: rs.deathData, ResyncSensitive: true,
	})
	r.add("PatientProgramRegistration", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientProgramRegistration{}, Table: patient.PatientProgramRegistration{}.TableName(),
		Reconcile: rs.programRegistrations,
	})
	r.add("PatientProgramRegistrationCondition", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientProgramRegistrationCondition{}, Table: patient.PatientProgramRegistrationCondition{}.TableName(),
		Reconcile: rs.registrationConditions,
	})
	r.add("PatientFieldValue", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientFieldValue{}, Table: patient.PatientFieldValue{}.TableName(),
		Reconcile: rs.fieldValues,
	})
	r.add("PatientFacility", Strategy{
		Kind: StrategySpecific, Model: &patient.PatientFacility{}, Table: patient.PatientFacility{}.TableName(),
		Reconcile: rs.facilities,
	})

	return r
}

func (r *Registry) add(name string, strategy Strategy) {
	if _, exists := r.entries[name]; !exists {
		r.order = append(r.order, name)
	}
	r.entries[name] = strategy
}

func (r *Registry) Get(name string) (Strategy, bool) {
	strategy, ok := r.entries[name]
	return strategy, ok
}

// Names returns entity type names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

func (r *Registry) SpecificNames() []string {
	var names []string
	for _, name := range r.order {
		if r.entries[name].Kind == StrategySpecific {
			names = append(names, name)
		}
	}
	return names
}
