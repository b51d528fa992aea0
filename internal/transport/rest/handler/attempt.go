package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sigquiz/internal/service"
)

// AttemptHandler handles cooldown eligibility lookups.
type AttemptHandler struct {
	attemptSvc *service.AttemptService
}

// NewAttemptHandler creates an attempt handler.
func NewAttemptHandler(attemptSvc *service.AttemptService) *AttemptHandler {
	return &AttemptHandler{attemptSvc: attemptSvc}
}

// Eligibility handles GET /v1/attempts/{roll}/eligibility.
func (h *AttemptHandler) Eligibility(w http.ResponseWriter, r *http.Request) {
	roll := mux.Vars(r)["roll"]
	if roll == "" {
		writeServiceError(w, &service.ValidationError{Field: "roll", Reason: "required"})
		return
	}

	elig, err := h.attemptSvc.CheckEligibility(r.Context(), roll, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if elig.Allowed {
		writeJSON(w, http.StatusOK, map[string]interface{}{"allowed": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"allowed":       false,
		"retryAfterSec": int(elig.RetryAfter.Seconds()),
		"message":       fmt.Sprintf("try again in %s", elig.RetryAfter.Round(time.Minute)),
	})
}

// History handles GET /v1/attempts/{roll}: the student's ledger rows,
// newest first.
func (h *AttemptHandler) History(w http.ResponseWriter, r *http.Request) {
	roll := mux.Vars(r)["roll"]
	if roll == "" {
		writeServiceError(w, &service.ValidationError{Field: "roll", Reason: "required"})
		return
	}

	records, err := h.attemptSvc.History(r.Context(), roll)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"roll":     roll,
		"attempts": records,
	})
}
