package models

import "time"

// Event bus models
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // patient.merged, sync.completed, remerge.completed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// Merge API models
type MergePatientsRequest struct {
	KeepPatientID     string `json:"keepPatientId"`
	UnwantedPatientID string `json:"unwantedPatientId"`
}

type MergePatientsResponse struct {
	Updates map[string]int `json:"updates"`
}

type MergeTargetResponse struct {
	PatientID        string  `json:"patient_id"`
	MergedIntoID     *string `json:"merged_into_id,omitempty"`
	VisibilityStatus string  `json:"visibility_status"`
}

// DuplicateCandidate is one suggested merge pair, scored 0..1.
type DuplicateCandidate struct {
	PatientID string  `json:"patient_id"`
	DisplayID string  `json:"display_id"`
	Score     float64 `json:"score"`
}

type DuplicateCandidatesResponse struct {
	PatientID  string               `json:"patient_id"`
	Candidates []DuplicateCandidate `json:"candidates"`
}

// Facility sync events consumed by the remerge worker. A session covers
// one facility's pull/push cycle; RecordCount is what the facility pushed.
type SyncSessionEvent struct {
	SessionID   string    `json:"session_id"`
	FacilityID  string    `json:"facility_id"`
	RecordCount int       `json:"record_count"`
	CompletedAt time.Time `json:"completed_at"`
}
