package merge

import (
	"sort"
	"sync"

	"gorm.io/gorm/schema"
)

var schemaCache sync.Map

// MissingCoverage introspects the entity catalog and returns every entity
// type that carries a foreign key to the patient table but has no merge
// strategy registered. An unregistered entity type would silently keep
// its rows pointing at a merged patient, so this is meant to run as an
// automated check, not at merge time.
func MissingCoverage(registry *Registry, catalog []interface{}) ([]string, error) {
	var missing []string
	for _, model := range catalog {
		sch, err := schema.Parse(model, &schemaCache, schema.NamingStrategy{})
		if err != nil {
			return nil, err
		}
		if sch.Name == "Patient" {
			continue
		}
		if !referencesPatient(sch) {
			continue
		}
		if _, covered := registry.Get(sch.Name); !covered {
			missing = append(missing, sch.Name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// PatientEntityNames lists every catalog entity type that references a
// patient, either through a patient_id column or through the polymorphic
// (record_id, record_type) pair.
func PatientEntityNames(catalog []interface{}) ([]string, error) {
	var names []string
	for _, model := range catalog {
		sch, err := schema.Parse(model, &schemaCache, schema.NamingStrategy{})
		if err != nil {
			return nil, err
		}
		if sch.Name == "Patient" {
			continue
		}
		if referencesPatient(sch) {
			names = append(names, sch.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func referencesPatient(sch *schema.Schema) bool {
	columns := make(map[string]struct{}, len(sch.Fields))
	for _, field := range sch.Fields {
		if field.DBName != "" {
			columns[field.DBName] = struct{}{}
		}
	}
	if _, ok := columns["patient_id"]; ok {
		return true
	}
	_, hasRecordID := columns["record_id"]
	_, hasRecordType := columns["record_type"]
	return hasRecordID && hasRecordType
}
