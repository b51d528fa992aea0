package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sigquiz/internal/model"
	"sigquiz/internal/service"
	"sigquiz/internal/session"
)

// Handler runs live quiz sessions over WebSocket: the server owns the
// per-question countdown, pushes questions and time-up events, and the
// client only sends answers. A question that expires is auto-submitted
// as unanswered.
type Handler struct {
	quizSvc     *service.QuizService
	gradingSvc  *service.GradingService
	attemptSvc  *service.AttemptService
	perQuestion time.Duration
	upgrader    websocket.Upgrader
}

// NewHandler creates a live-session handler.
func NewHandler(quizSvc *service.QuizService, gradingSvc *service.GradingService, attemptSvc *service.AttemptService, perQuestion time.Duration) *Handler {
	return &Handler{
		quizSvc:     quizSvc,
		gradingSvc:  gradingSvc,
		attemptSvc:  attemptSvc,
		perQuestion: perQuestion,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// answerMessage is what the client sends for the current question.
type answerMessage struct {
	Type     string `json:"type"` // "answer"
	ID       int    `json:"id"`
	Selected *int   `json:"selected"`
}

// resultMessage closes a completed live session.
type resultMessage struct {
	Type    string               `json:"type"` // "result"
	Score   string               `json:"score"`
	Correct int                  `json:"correct"`
	Total   int                  `json:"total"`
	Details []model.GradedDetail `json:"details"`
}

type errorMessage struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

// Live handles GET /v1/quiz/live?name=...&roll=...
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	roll := r.URL.Query().Get("roll")
	if name == "" || roll == "" {
		http.Error(w, `{"error":"name and roll are required"}`, http.StatusBadRequest)
		return
	}

	startedAt := time.Now()
	elig, err := h.attemptSvc.CheckEligibility(r.Context(), roll, startedAt)
	if err != nil {
		http.Error(w, `{"error":"upstream service unavailable"}`, http.StatusBadGateway)
		return
	}
	if !elig.Allowed {
		http.Error(w, `{"error":"cooldown active"}`, http.StatusForbidden)
		return
	}

	created, err := h.quizSvc.CreateSession(r.Context(), name, roll)
	if err != nil {
		http.Error(w, `{"error":"quiz generation failed"}`, http.StatusBadGateway)
		return
	}
	quiz, err := h.quizSvc.GetSession(r.Context(), created.QuizID)
	if err != nil {
		http.Error(w, `{"error":"quiz generation failed"}`, http.StatusBadGateway)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed for %s: %v", roll, err)
		return
	}
	defer conn.Close()

	runner := session.NewRunner(quiz, h.perQuestion)
	events := runner.Start()

	// Reader: answers in, runner transitions out. The runner is the
	// only writer-side state; this goroutine never writes to the conn.
	go h.readAnswers(conn, runner)

	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			runner.Stop()
			return
		}
	}

	if !runner.Finished() {
		// Client went away mid-quiz; no attempt is recorded.
		return
	}
	h.finish(r.Context(), conn, quiz, runner, startedAt)
}

func (h *Handler) readAnswers(conn *websocket.Conn, runner *session.Runner) {
	for {
		var msg answerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			runner.Stop()
			return
		}
		if msg.Type != "answer" {
			continue
		}
		if err := runner.Answer(msg.ID, msg.Selected); err != nil {
			log.Printf("rejected live answer for question %d: %v", msg.ID, err)
		}
	}
}

func (h *Handler) finish(ctx context.Context, conn *websocket.Conn, quiz *model.QuizSession, runner *session.Runner, startedAt time.Time) {
	result := h.gradingSvc.Grade(quiz, runner.Answers())

	record := &model.AttemptRecord{
		StudentID:       quiz.StudentID,
		StudentName:     quiz.StudentName,
		Timestamp:       time.Now(),
		DurationSeconds: int(time.Since(startedAt).Seconds()),
		Score:           result.ScoreString(),
	}
	err := h.attemptSvc.RecordAttempt(ctx, record, result.Details)
	var cErr *service.CooldownError
	if errors.As(err, &cErr) {
		// The gate closed between session start and completion.
		writeErrorMessage(conn, "cooldown active")
		h.quizSvc.CloseSession(ctx, quiz.ID)
		return
	}
	if err != nil {
		// Grading already happened; the score is still reported.
		log.Printf("live session ledger append failed for %s: %v", quiz.StudentID, err)
	}
	h.quizSvc.CloseSession(ctx, quiz.ID)

	msg := resultMessage{
		Type:    "result",
		Score:   result.ScoreString(),
		Correct: result.Score,
		Total:   result.Total,
		Details: result.Details,
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("failed to deliver live result to %s: %v", quiz.StudentID, err)
	}
}

// writeErrorMessage sends a typed error frame; used before closing.
func writeErrorMessage(conn *websocket.Conn, text string) {
	data, _ := json.Marshal(errorMessage{Type: "error", Error: text})
	conn.WriteMessage(websocket.TextMessage, data)
}
