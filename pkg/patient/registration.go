package patient

import "strings"

// MakeProgramRegistrationID derives the composite registration id from its
// two parent keys. Literal separators inside either component are escaped
// so the id stays splittable. The id is derived at creation time only and
// is never recomputed when a merge moves the registration to another
// patient.
func MakeProgramRegistrationID(patientID, programRegistryID string) string {
	return escapeIDComponent(patientID) + ";" + escapeIDComponent(programRegistryID)
}

func escapeIDComponent(s string) string {
	return strings.ReplaceAll(s, ";", ":")
}
