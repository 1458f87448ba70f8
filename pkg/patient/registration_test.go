package patient

import "testing"

func TestMakeProgramRegistrationID(t *testing.T) {
	id := MakeProgramRegistrationID("patient-1", "registry-1")
	if id != "patient-1;registry-1" {
		t.Fatalf("unexpected composite id %q", id)
	}
}

func TestMakeProgramRegistrationIDEscapesSeparator(t *testing.T) {
	id := MakeProgramRegistrationID("pat;ient", "reg;istry")
	if id != "pat:ient;reg:istry" {
		t.Fatalf("expected separators escaped, got %q", id)
	}
}
