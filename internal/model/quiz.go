package model

import (
	"strconv"
	"time"
)

// QuizSession is a drawn quiz held server-side until submission. The
// questions here still carry their answer keys; grading reads them from
// this snapshot, never from anything the client sends back.
type QuizSession struct {
	ID          string     `json:"id"`
	StudentID   string     `json:"studentId"`
	StudentName string     `json:"studentName"`
	Questions   []Question `json:"questions"`
	StartedAt   time.Time  `json:"startedAt"`
}

// PublicQuestions returns the session's questions without answer keys,
// in session order.
func (s *QuizSession) PublicQuestions() []PublicQuestion {
	out := make([]PublicQuestion, len(s.Questions))
	for i := range s.Questions {
		out[i] = s.Questions[i].Public()
	}
	return out
}

// SubmittedAnswer references a session question by id. Selected is nil
// when the student gave no answer (including the timed-out case).
type SubmittedAnswer struct {
	ID       int  `json:"id"`
	Selected *int `json:"selected"`
}

// SubmitQuizRequest is the body of POST /v1/quiz/submit.
type SubmitQuizRequest struct {
	QuizID          string            `json:"quizId"`
	Name            string            `json:"name"`
	Roll            string            `json:"roll"`
	Answers         []SubmittedAnswer `json:"answers"`
	DurationSeconds int               `json:"durationSeconds"`
}

// Verdict is the per-question grading outcome.
type Verdict string

const (
	VerdictCorrect Verdict = "CORRECT"
	VerdictWrong   Verdict = "WRONG"
)

// NotAnswered is the chosen-text placeholder for unanswered questions.
const NotAnswered = "Not Answered"

// GradedDetail is one audit row per question, persisted alongside the
// attempt record.
type GradedDetail struct {
	Question string  `json:"question" bson:"question"`
	Chosen   string  `json:"chosen" bson:"chosen"`
	Correct  string  `json:"correct" bson:"correct"`
	Verdict  Verdict `json:"verdict" bson:"verdict"`
}

// GradeResult is what the grading engine returns for a session.
type GradeResult struct {
	Score   int            `json:"score"`
	Total   int            `json:"total"`
	Details []GradedDetail `json:"details"`
}

// ScoreString renders the "n/total" form used by the ledger and the API.
func (r *GradeResult) ScoreString() string {
	return strconv.Itoa(r.Score) + "/" + strconv.Itoa(r.Total)
}
