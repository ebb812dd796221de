// Package session is the state machine of one quiz attempt. It performs no
// I/O; callers persist snapshots and talk to the backend.
package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lshigami/quizsync/internal/model"
)

var (
	ErrInvalidTransition = errors.New("invalid attempt state transition")
	ErrUnknownQuestion   = errors.New("question does not belong to the quiz")
	ErrUnknownOption     = errors.New("option does not belong to the question")
	ErrInvalidSelection  = errors.New("single choice question takes exactly one option")
)

// UnansweredError rejects a completion request while questions have no selection.
type UnansweredError struct {
	QuestionIDs []uint
}

func (e *UnansweredError) Error() string {
	return fmt.Sprintf("%d question(s) unanswered", len(e.QuestionIDs))
}

var transitions = map[model.AttemptState][]model.AttemptState{
	model.AttemptStateNotStarted: {model.AttemptStateStarting},
	model.AttemptStateStarting:   {model.AttemptStateInProgress},
	model.AttemptStateInProgress: {model.AttemptStateSubmitting, model.AttemptStateAborted},
	model.AttemptStateSubmitting: {model.AttemptStateCompleted, model.AttemptStateInProgress},
	model.AttemptStateAborted:    {model.AttemptStateInProgress},
}

func canTransition(from, to model.AttemptState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Result is the outcome of a completed attempt.
type Result struct {
	Score          int
	CorrectAnswers int
	TotalQuestions int
	Passed         bool
	// Optimistic is true while the score is the local estimate.
	Optimistic bool
}

type Snapshot struct {
	AttemptID   int64
	TemporaryID *int64
	QuizID      uint
	State       model.AttemptState
	Cursor      int
	Answers     model.AnswerMap
	Result      *Result
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Session is not safe for concurrent use.
type Session struct {
	quiz        *model.Quiz
	attemptID   int64
	temporaryID *int64
	state       model.AttemptState
	cursor      int
	answers     model.AnswerMap
	result      *Result
	startedAt   time.Time
	completedAt *time.Time
	now         func() time.Time
}

func New(quiz *model.Quiz) *Session {
	return &Session{
		quiz:    quiz,
		state:   model.AttemptStateNotStarted,
		answers: model.AnswerMap{},
		now:     time.Now,
	}
}

// Restore rebuilds a session from a persisted snapshot.
func Restore(quiz *model.Quiz, snap Snapshot) *Session {
	s := New(quiz)
	s.attemptID = snap.AttemptID
	s.temporaryID = snap.TemporaryID
	s.state = snap.State
	s.cursor = snap.Cursor
	s.answers = copyAnswers(snap.Answers)
	if snap.Result != nil {
		r := *snap.Result
		s.result = &r
	}
	s.startedAt = snap.StartedAt
	s.completedAt = snap.CompletedAt
	s.clampCursor()
	return s
}

func (s *Session) Quiz() *model.Quiz { return s.quiz }
func (s *Session) AttemptID() int64 { return s.attemptID }
func (s *Session) State() model.AttemptState { return s.state }
func (s *Session) Cursor() int { return s.cursor }
func (s *Session) QuestionCount() int { return len(s.quiz.Questions) }

// CurrentQuestion is nil for a quiz without questions.
func (s *Session) CurrentQuestion() *model.Question {
	if len(s.quiz.Questions) == 0 {
		return nil
	}
	return &s.quiz.Questions[s.cursor]
}

func (s *Session) transition(to model.AttemptState) error {
	if !canTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.state, to)
	}
	s.state = to
	return nil
}

func (s *Session) Begin() error {
	return s.transition(model.AttemptStateStarting)
}

// Started records the attempt id and moves to InProgress. answers seeds the
// selections of a resumed attempt.
func (s *Session) Started(attemptID int64, answers model.AnswerMap) error {
	if err := s.transition(model.AttemptStateInProgress); err != nil {
		return err
	}
	s.attemptID = attemptID
	s.answers = copyAnswers(answers)
	s.startedAt = s.now().UTC()
	return nil
}

// SelectAnswer records a selection and returns the resulting selection of the
// question. Single choice replaces the selection. Multiple choice toggles
// each given option.
func (s *Session) SelectAnswer(questionID uint, optionIDs ...uint) ([]uint, error) {
	if s.state != model.AttemptStateInProgress {
		return nil, fmt.Errorf("%w: cannot answer in state %s", ErrInvalidTransition, s.state)
	}
	q, ok := s.quiz.QuestionByID(questionID)
	if !ok {
		return nil, ErrUnknownQuestion
	}
	if len(optionIDs) == 0 {
		return nil, ErrInvalidSelection
	}
	for _, id := range optionIDs {
		if !q.HasOption(id) {
			return nil, ErrUnknownOption
		}
	}

	switch q.Type {
	case model.QuestionTypeMultipleChoice:
		selected := map[uint]bool{}
		for _, id := range s.answers[questionID] {
			selected[id] = true
		}
		seen := map[uint]bool{}
		for _, id := range optionIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			selected[id] = !selected[id]
		}
		var next []uint
		for id, on := range selected {
			if on {
				next = append(next, id)
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
		if len(next) == 0 {
			delete(s.answers, questionID)
			return []uint{}, nil
		}
		s.answers[questionID] = next
		return append([]uint{}, next...), nil
	default:
		if len(optionIDs) != 1 {
			return nil, ErrInvalidSelection
		}
		s.answers[questionID] = []uint{optionIDs[0]}
		return []uint{optionIDs[0]}, nil
	}
}

// Selection returns the current selection of a question, nil when unanswered.
func (s *Session) Selection(questionID uint) []uint {
	if opts, ok := s.answers[questionID]; ok {
		return append([]uint{}, opts...)
	}
	return nil
}

// RestoreSelection puts back a selection returned by Selection, undoing a
// SelectAnswer the backend refused.
func (s *Session) RestoreSelection(questionID uint, previous []uint) error {
	if s.state != model.AttemptStateInProgress {
		return fmt.Errorf("%w: cannot answer in state %s", ErrInvalidTransition, s.state)
	}
	if _, ok := s.quiz.QuestionByID(questionID); !ok {
		return ErrUnknownQuestion
	}
	if len(previous) == 0 {
		delete(s.answers, questionID)
		return nil
	}
	s.answers[questionID] = append([]uint{}, previous...)
	return nil
}

func (s *Session) clampCursor() {
	last := len(s.quiz.Questions) - 1
	if last < 0 {
		last = 0
	}
	if s.cursor > last {
		s.cursor = last
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

func (s *Session) GoNext() int {
	s.cursor++
	s.clampCursor()
	return s.cursor
}

func (s *Session) GoPrevious() int {
	s.cursor--
	s.clampCursor()
	return s.cursor
}

func (s *Session) JumpTo(index int) int {
	s.cursor = index
	s.clampCursor()
	return s.cursor
}

// Unanswered lists questions without a selection, in quiz order.
func (s *Session) Unanswered() []uint {
	missing := []uint{}
	for _, q := range s.quiz.Questions {
		if len(s.answers[q.ID]) == 0 {
			missing = append(missing, q.ID)
		}
	}
	return missing
}

func (s *Session) RequestCompletion() error {
	if s.state != model.AttemptStateInProgress {
		return fmt.Errorf("%w: cannot complete in state %s", ErrInvalidTransition, s.state)
	}
	if missing := s.Unanswered(); len(missing) > 0 {
		return &UnansweredError{QuestionIDs: missing}
	}
	return s.transition(model.AttemptStateSubmitting)
}

func (s *Session) Complete(result Result) error {
	if err := s.transition(model.AttemptStateCompleted); err != nil {
		return err
	}
	s.result = &result
	completedAt := s.now().UTC()
	s.completedAt = &completedAt
	return nil
}

// CancelSubmission returns to InProgress after the backend rejected completion.
func (s *Session) CancelSubmission() error {
	if s.state != model.AttemptStateSubmitting {
		return fmt.Errorf("%w: nothing to cancel in state %s", ErrInvalidTransition, s.state)
	}
	return s.transition(model.AttemptStateInProgress)
}

func (s *Session) Abort() error {
	return s.transition(model.AttemptStateAborted)
}

func (s *Session) Resume() error {
	if s.state != model.AttemptStateAborted {
		return fmt.Errorf("%w: cannot resume in state %s", ErrInvalidTransition, s.state)
	}
	return s.transition(model.AttemptStateInProgress)
}

// Remap replaces a placeholder attempt id with the one the backend issued.
func (s *Session) Remap(temporaryID, attemptID int64) bool {
	if s.attemptID != temporaryID {
		return false
	}
	tmp := temporaryID
	s.temporaryID = &tmp
	s.attemptID = attemptID
	return true
}

// ApplyServerResult overwrites the optimistic score with the authoritative
// one and reports whether score or pass flag changed.
func (s *Session) ApplyServerResult(result Result) (changed bool, err error) {
	if s.state != model.AttemptStateCompleted || s.result == nil {
		return false, fmt.Errorf("%w: no result to reconcile in state %s", ErrInvalidTransition, s.state)
	}
	changed = s.result.Score != result.Score || s.result.Passed != result.Passed
	result.Optimistic = false
	s.result = &result
	return changed, nil
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		AttemptID: s.attemptID,
		QuizID:    s.quiz.ID,
		State:     s.state,
		Cursor:    s.cursor,
		Answers:   copyAnswers(s.answers),
		StartedAt: s.startedAt,
	}
	if s.temporaryID != nil {
		tmp := *s.temporaryID
		snap.TemporaryID = &tmp
	}
	if s.result != nil {
		r := *s.result
		snap.Result = &r
	}
	if s.completedAt != nil {
		c := *s.completedAt
		snap.CompletedAt = &c
	}
	return snap
}

func copyAnswers(in model.AnswerMap) model.AnswerMap {
	out := make(model.AnswerMap, len(in))
	for k, v := range in {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]uint{}, v...)
	}
	return out
}
