package session

import (
	"errors"
	"sync"
	"time"

	"sigquiz/internal/model"
)

// EventType labels runner events.
type EventType string

const (
	// EventQuestion presents the next question with its deadline.
	EventQuestion EventType = "question"
	// EventTimeUp reports that the current question expired and was
	// recorded as unanswered.
	EventTimeUp EventType = "time_up"
	// EventFinished closes the run; every question has an outcome.
	EventFinished EventType = "finished"
)

// Event is one runner transition, delivered on the events channel.
type Event struct {
	Type     EventType             `json:"type"`
	Index    int                   `json:"index"`
	Question *model.PublicQuestion `json:"question,omitempty"`
	Deadline time.Time             `json:"deadline,omitempty"`
}

var (
	// ErrRunOver means the run already finished or was stopped.
	ErrRunOver = errors.New("quiz run is over")
	// ErrWrongQuestion means the answer references a question other
	// than the current one.
	ErrWrongQuestion = errors.New("answer does not match the current question")
	// ErrBadOption means the chosen option index is out of range.
	ErrBadOption = errors.New("selected option out of range")
)

// Runner walks a quiz session one question at a time with a
// server-owned countdown. At most one timer is live; every transition
// that ends a question cancels and replaces it, and a generation
// counter keeps a stale timer from firing after navigation. Expiry
// records the current question as unanswered and advances.
type Runner struct {
	session     *model.QuizSession
	perQuestion time.Duration

	mu      sync.Mutex
	idx     int
	gen     int
	timer   *time.Timer
	answers []model.SubmittedAnswer
	events  chan Event
	done    bool
	started bool
}

// NewRunner creates a runner over a drawn session.
func NewRunner(session *model.QuizSession, perQuestion time.Duration) *Runner {
	return &Runner{
		session:     session,
		perQuestion: perQuestion,
		// Buffered past the worst case so transitions never block on
		// a slow consumer.
		events: make(chan Event, 2*len(session.Questions)+2),
	}
}

// Start emits the first question and arms its countdown. The returned
// channel closes after the finished event.
func (r *Runner) Start() <-chan Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.done {
		return r.events
	}
	r.started = true
	r.emitQuestionLocked()
	return r.events
}

// Answer records the student's choice for the current question and
// advances. selected may be nil for an explicit skip.
func (r *Runner) Answer(questionID int, selected *int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done || !r.started {
		return ErrRunOver
	}
	current := &r.session.Questions[r.idx]
	if questionID != current.ID {
		return ErrWrongQuestion
	}
	if selected != nil && (*selected < 0 || *selected >= len(current.Options)) {
		return ErrBadOption
	}

	r.cancelTimerLocked()
	r.answers = append(r.answers, model.SubmittedAnswer{ID: current.ID, Selected: selected})
	r.advanceLocked()
	return nil
}

// Stop abandons the run, cancelling any live timer. Safe to call more
// than once; a finished run is left as-is.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.cancelTimerLocked()
	r.done = true
	close(r.events)
}

// Answers returns the outcomes recorded so far, in question order.
func (r *Runner) Answers() []model.SubmittedAnswer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.SubmittedAnswer, len(r.answers))
	copy(out, r.answers)
	return out
}

// Finished reports whether every question has an outcome.
func (r *Runner) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done && len(r.answers) == len(r.session.Questions)
}

func (r *Runner) emitQuestionLocked() {
	q := r.session.Questions[r.idx].Public()
	deadline := time.Now().Add(r.perQuestion)
	r.events <- Event{
		Type:     EventQuestion,
		Index:    r.idx,
		Question: &q,
		Deadline: deadline,
	}
	r.armTimerLocked()
}

func (r *Runner) armTimerLocked() {
	r.gen++
	gen := r.gen
	r.timer = time.AfterFunc(r.perQuestion, func() {
		r.onTimeout(gen)
	})
}

func (r *Runner) cancelTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	// Invalidate any timeout already scheduled but not yet run.
	r.gen++
}

func (r *Runner) onTimeout(gen int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done || gen != r.gen {
		return
	}
	current := &r.session.Questions[r.idx]
	r.timer = nil
	r.answers = append(r.answers, model.SubmittedAnswer{ID: current.ID, Selected: nil})
	r.events <- Event{Type: EventTimeUp, Index: r.idx}
	r.advanceLocked()
}

func (r *Runner) advanceLocked() {
	r.idx++
	if r.idx >= len(r.session.Questions) {
		r.done = true
		r.events <- Event{Type: EventFinished}
		close(r.events)
		return
	}
	r.emitQuestionLocked()
}
