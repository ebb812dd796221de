// Package backendtest provides an in-memory backend.Client for tests.
package backendtest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/dto"
)

const (
	MethodStart    = "start"
	MethodSubmit   = "submit"
	MethodComplete = "complete"
	MethodProgress = "progress"
	MethodAttempt  = "attempt"
	MethodQuiz     = "quiz"
	MethodPing     = "ping"
)

type Call struct {
	Method         string
	AttemptID      int64
	QuizID         uint
	QuestionID     uint
	OptionIDs      []uint
	IdempotencyKey string
}

// Fake records every call. Fail, when set, can turn any call into an error
// before it is applied.
type Fake struct {
	mu sync.Mutex

	Calls         []Call
	NextAttemptID int64
	Fail          func(call Call) error
	// Score is returned by CompleteAttempt for each attempt; missing entries
	// complete with a zero score.
	Score    map[int64]dto.CompleteAttemptResponse
	Attempts map[int64]*dto.AttemptStateResponse
	Quizzes  map[uint]*dto.BackendQuiz
}

func New() *Fake {
	return &Fake{
		NextAttemptID: 1000,
		Score:         map[int64]dto.CompleteAttemptResponse{},
		Attempts:      map[int64]*dto.AttemptStateResponse{},
		Quizzes:       map[uint]*dto.BackendQuiz{},
	}
}

// Transient is a network-level failure.
func Transient() error {
	return &backend.TransportError{Method: http.MethodPost, Path: "/", Err: fmt.Errorf("connection refused")}
}

// Status is an HTTP error answer.
func Status(code int, body string) error {
	return &backend.APIError{Method: http.MethodPost, Path: "/", StatusCode: code, Body: []byte(body)}
}

func (f *Fake) record(call Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, call)
	if f.Fail != nil {
		return f.Fail(call)
	}
	return nil
}

// CallsOf returns the recorded calls of one method.
func (f *Fake) CallsOf(method string) []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Call
	for _, c := range f.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

func (f *Fake) SetFail(fn func(call Call) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Fail = fn
}

func (f *Fake) StartAttempt(_ context.Context, req dto.StartAttemptRequest, key string) (*dto.StartAttemptResponse, error) {
	if err := f.record(Call{Method: MethodStart, QuizID: req.QuizID, IdempotencyKey: key}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.NextAttemptID
	f.NextAttemptID++
	f.Attempts[id] = &dto.AttemptStateResponse{AttemptID: id, QuizID: req.QuizID, Status: "in_progress", Answers: map[uint][]uint{}}
	return &dto.StartAttemptResponse{AttemptID: id}, nil
}

func (f *Fake) SubmitAnswer(_ context.Context, req dto.SubmitAnswerRequest, key string) error {
	call := Call{Method: MethodSubmit, AttemptID: req.AttemptID, QuestionID: req.QuestionID, OptionIDs: req.SelectedOptionIDs, IdempotencyKey: key}
	if err := f.record(call); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.Attempts[req.AttemptID]; ok {
		a.Answers[req.QuestionID] = append([]uint{}, req.SelectedOptionIDs...)
	}
	return nil
}

func (f *Fake) CompleteAttempt(_ context.Context, req dto.CompleteAttemptRequest, key string) (*dto.CompleteAttemptResponse, error) {
	if err := f.record(Call{Method: MethodComplete, AttemptID: req.AttemptID, IdempotencyKey: key}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := f.Score[req.AttemptID]
	return &resp, nil
}

func (f *Fake) RecordProgress(_ context.Context, req dto.UserProgressRequest, key string) (*dto.UserProgressResponse, error) {
	if err := f.record(Call{Method: MethodProgress, QuizID: req.QuizID, IdempotencyKey: key}); err != nil {
		return nil, err
	}
	completedAt := req.CompletedAt
	return &dto.UserProgressResponse{QuizID: req.QuizID, Score: req.Score, Completed: true, CompletedAt: &completedAt}, nil
}

func (f *Fake) GetAttempt(_ context.Context, attemptID int64) (*dto.AttemptStateResponse, error) {
	if err := f.record(Call{Method: MethodAttempt, AttemptID: attemptID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.Attempts[attemptID]
	if !ok {
		return nil, Status(http.StatusNotFound, `{"error":"attempt not found"}`)
	}
	cp := *a
	return &cp, nil
}

func (f *Fake) GetQuiz(_ context.Context, quizID uint) (*dto.BackendQuiz, error) {
	if err := f.record(Call{Method: MethodQuiz, QuizID: quizID}); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	q, ok := f.Quizzes[quizID]
	if !ok {
		return nil, Status(http.StatusNotFound, `{"error":"quiz not found"}`)
	}
	return q, nil
}

func (f *Fake) Ping(context.Context) error {
	return f.record(Call{Method: MethodPing})
}

var _ backend.Client = (*Fake)(nil)
