package service

import (
	"sigquiz/internal/model"
)

// GradingService scores submitted answers against the session's
// authoritative questions. The client never supplies correctness; it
// only references questions by id with a chosen option index or nil.
type GradingService struct{}

// NewGradingService creates a grading service.
func NewGradingService() *GradingService {
	return &GradingService{}
}

// Grade walks the session's questions in order. A question with no
// submitted answer, or an explicit nil selection (the timed-out case),
// is WRONG with chosen text "Not Answered". Total is always the number
// of questions in the session. Answers referencing ids outside the
// session are ignored.
func (g *GradingService) Grade(session *model.QuizSession, answers []model.SubmittedAnswer) *model.GradeResult {
	byID := make(map[int]*int, len(answers))
	for _, a := range answers {
		byID[a.ID] = a.Selected
	}

	result := &model.GradeResult{
		Total:   len(session.Questions),
		Details: make([]model.GradedDetail, 0, len(session.Questions)),
	}

	for i := range session.Questions {
		q := &session.Questions[i]
		detail := model.GradedDetail{
			Question: q.Text,
			Correct:  q.Options[q.Correct],
			Chosen:   model.NotAnswered,
			Verdict:  model.VerdictWrong,
		}

		selected, ok := byID[q.ID]
		if ok && selected != nil && *selected >= 0 && *selected < len(q.Options) {
			detail.Chosen = q.Options[*selected]
			if *selected == q.Correct {
				detail.Verdict = model.VerdictCorrect
				result.Score++
			}
		}

		result.Details = append(result.Details, detail)
	}

	return result
}
