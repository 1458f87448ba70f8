package merge

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tidewell-health/platform/pkg/common/logger"
	"github.com/tidewell-health/platform/pkg/common/models"
	"github.com/tidewell-health/platform/pkg/observability/metrics"
)

type Handler struct {
	service *Service
	finder  *CandidateFinder
}

func NewHandler(service *Service, finder *CandidateFinder) *Handler {
	return &Handler{service: service, finder: finder}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/patients/merge", h.handleMergePatients).Methods(http.MethodPost)
	r.HandleFunc("/patients/{id}/merge-target", h.handleMergeTarget).Methods(http.MethodGet)
	r.HandleFunc("/patients/{id}/duplicate-candidates", h.handleDuplicateCandidates).Methods(http.MethodGet)
}

func (h *Handler) handleMergePatients(w http.ResponseWriter, r *http.Request) {
	var req models.MergePatientsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.KeepPatientID == "" || req.UnwantedPatientID == "" {
		http.Error(w, "keepPatientId and unwantedPatientId are required", http.StatusBadRequest)
		return
	}

	updates, err := h.service.MergePatients(r.Context(), req.KeepPatientID, req.UnwantedPatientID, resolveActor(r))
	if err != nil {
		if errors.Is(err, ErrInvalidMergeRequest) {
			metrics.ObserveMergeRejected()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		metrics.ObserveMergeFailed()
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"keep_patient_id":     req.KeepPatientID,
			"unwanted_patient_id": req.UnwantedPatientID,
		}).Error("failed to merge patients")
		http.Error(w, "failed to merge patients", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, count := range updates {
		total += count
	}
	metrics.ObserveMerge(total)

	writeJSON(w, http.StatusOK, models.MergePatientsResponse{Updates: updates})
}

func (h *Handler) handleMergeTarget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	target, err := h.service.MergeTarget(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to resolve merge target")
		http.Error(w, "failed to resolve merge target", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (h *Handler) handleDuplicateCandidates(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	candidates, err := h.finder.FindDuplicates(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to find duplicate candidates")
		http.Error(w, "failed to find duplicate candidates", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.DuplicateCandidatesResponse{PatientID: id, Candidates: candidates})
}

func resolveActor(r *http.Request) string {
	if actor := r.Header.Get("X-Actor"); actor != "" {
		return actor
	}
	return "system"
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
