package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"sigquiz/internal/model"
	"sigquiz/internal/service"
	"sigquiz/internal/transport/rest/middleware"
)

// QuizHandler handles quiz generation and submission.
type QuizHandler struct {
	quizSvc    *service.QuizService
	gradingSvc *service.GradingService
	attemptSvc *service.AttemptService
}

// NewQuizHandler creates a quiz handler.
func NewQuizHandler(quizSvc *service.QuizService, gradingSvc *service.GradingService, attemptSvc *service.AttemptService) *QuizHandler {
	return &QuizHandler{
		quizSvc:    quizSvc,
		gradingSvc: gradingSvc,
		attemptSvc: attemptSvc,
	}
}

// GenerateRequest is the body for quiz generation.
type GenerateRequest struct {
	Name string `json:"name"`
	Roll string `json:"roll"`
}

// Generate handles GET|POST /v1/quiz: cooldown pre-check, pool fetch,
// selection, session creation. The response never carries answer keys.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		req.Name = r.URL.Query().Get("name")
		req.Roll = r.URL.Query().Get("roll")
	}

	if err := validateIdentity(req.Name, req.Roll); err != nil {
		writeServiceError(w, err)
		return
	}

	// Advisory check; the authoritative one runs again at submit.
	elig, err := h.attemptSvc.CheckEligibility(r.Context(), req.Roll, time.Now())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if !elig.Allowed {
		writeServiceError(w, &service.CooldownError{RetryAfter: elig.RetryAfter})
		return
	}

	resp, err := h.quizSvc.CreateSession(r.Context(), req.Name, req.Roll)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitResponse is the graded outcome returned to the student.
type SubmitResponse struct {
	Score   string               `json:"score"` // "n/total"
	Correct int                  `json:"correct"`
	Total   int                  `json:"total"`
	Details []model.GradedDetail `json:"details"`
}

// Submit handles POST /v1/quiz/submit. Grading is entirely server-side
// against the stored session; the cooldown gate is re-checked
// authoritatively before the attempt is persisted.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := validateSubmit(&req); err != nil {
		writeServiceError(w, err)
		return
	}

	// The attempt token must be the one issued for this quiz and roll.
	if middleware.GetQuizID(r.Context()) != req.QuizID ||
		middleware.GetStudentID(r.Context()) != req.Roll {
		writeError(w, http.StatusUnauthorized, "token does not match submission")
		return
	}

	session, err := h.quizSvc.GetSession(r.Context(), req.QuizID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if session.StudentID != req.Roll {
		writeError(w, http.StatusUnauthorized, "token does not match submission")
		return
	}

	result := h.gradingSvc.Grade(session, req.Answers)

	record := &model.AttemptRecord{
		StudentID:       req.Roll,
		StudentName:     req.Name,
		Timestamp:       time.Now(),
		DurationSeconds: req.DurationSeconds,
		Score:           result.ScoreString(),
	}
	err = h.attemptSvc.RecordAttempt(r.Context(), record, result.Details)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrPersist):
		// The student keeps their score; only the audit record is lost.
		log.Printf("ledger append failed for %s: %v", req.Roll, err)
	default:
		writeServiceError(w, err)
		return
	}

	h.quizSvc.CloseSession(r.Context(), req.QuizID)

	writeJSON(w, http.StatusOK, SubmitResponse{
		Score:   result.ScoreString(),
		Correct: result.Score,
		Total:   result.Total,
		Details: result.Details,
	})
}

func validateIdentity(name, roll string) error {
	if name == "" {
		return &service.ValidationError{Field: "name", Reason: "required"}
	}
	if roll == "" {
		return &service.ValidationError{Field: "roll", Reason: "required"}
	}
	return nil
}

func validateSubmit(req *model.SubmitQuizRequest) error {
	if err := validateIdentity(req.Name, req.Roll); err != nil {
		return err
	}
	if req.QuizID == "" {
		return &service.ValidationError{Field: "quizId", Reason: "required"}
	}
	if req.Answers == nil {
		return &service.ValidationError{Field: "answers", Reason: "required"}
	}
	if req.DurationSeconds < 0 {
		return &service.ValidationError{Field: "durationSeconds", Reason: "must not be negative"}
	}
	return nil
}
