package session

import (
	"testing"

	"github.com/lshigami/quizsync/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuiz() *model.Quiz {
	return &model.Quiz{
		ID:    1,
		Title: "Go basics",
		Questions: []model.Question{
			{
				ID:   10,
				Type: model.QuestionTypeSingleChoice,
				Options: []model.AnswerOption{
					{ID: 101, QuestionID: 10, IsCorrect: true},
					{ID: 102, QuestionID: 10},
				},
			},
			{
				ID:   20,
				Type: model.QuestionTypeMultipleChoice,
				Options: []model.AnswerOption{
					{ID: 201, QuestionID: 20, IsCorrect: true},
					{ID: 202, QuestionID: 20, IsCorrect: true},
					{ID: 203, QuestionID: 20},
				},
			},
			{
				ID:   30,
				Type: model.QuestionTypeSingleChoice,
				Options: []model.AnswerOption{
					{ID: 301, QuestionID: 30},
					{ID: 302, QuestionID: 30, IsCorrect: true},
				},
			},
		},
	}
}

func started(t *testing.T) *Session {
	t.Helper()
	s := New(testQuiz())
	require.NoError(t, s.Begin())
	require.NoError(t, s.Started(55, nil))
	return s
}

func TestSession_Lifecycle(t *testing.T) {
	s := New(testQuiz())
	assert.Equal(t, model.AttemptStateNotStarted, s.State())

	require.NoError(t, s.Begin())
	assert.Equal(t, model.AttemptStateStarting, s.State())
	require.NoError(t, s.Started(55, model.AnswerMap{10: {101}}))
	assert.Equal(t, model.AttemptStateInProgress, s.State())
	assert.Equal(t, int64(55), s.AttemptID())

	_, err := s.SelectAnswer(20, 201, 202)
	require.NoError(t, err)
	_, err = s.SelectAnswer(30, 302)
	require.NoError(t, err)

	require.NoError(t, s.RequestCompletion())
	assert.Equal(t, model.AttemptStateSubmitting, s.State())
	require.NoError(t, s.Complete(Result{Score: 100, CorrectAnswers: 3, TotalQuestions: 3, Passed: true, Optimistic: true}))
	assert.Equal(t, model.AttemptStateCompleted, s.State())

	snap := s.Snapshot()
	require.NotNil(t, snap.Result)
	require.NotNil(t, snap.CompletedAt)
	assert.True(t, snap.Result.Optimistic)
}

func TestSession_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Session) error
	}{
		{name: "complete before start", run: func(s *Session) error { return s.RequestCompletion() }},
		{name: "started without begin", run: func(s *Session) error { return s.Started(1, nil) }},
		{name: "abort before start", run: func(s *Session) error { return s.Abort() }},
		{name: "resume when not aborted", run: func(s *Session) error { return s.Resume() }},
		{name: "cancel when not submitting", run: func(s *Session) error { return s.CancelSubmission() }},
		{name: "answer before start", run: func(s *Session) error { _, err := s.SelectAnswer(10, 101); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(New(testQuiz())), ErrInvalidTransition)
		})
	}
}

func TestSession_CompletedIsTerminal(t *testing.T) {
	s := started(t)
	for _, q := range []struct {
		id  uint
		opt uint
	}{{10, 101}, {20, 201}, {30, 301}} {
		_, err := s.SelectAnswer(q.id, q.opt)
		require.NoError(t, err)
	}
	require.NoError(t, s.RequestCompletion())
	require.NoError(t, s.Complete(Result{Score: 33}))

	assert.ErrorIs(t, s.Abort(), ErrInvalidTransition)
	assert.ErrorIs(t, s.Resume(), ErrInvalidTransition)
	_, err := s.SelectAnswer(10, 102)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSession_SingleChoiceOverwrites(t *testing.T) {
	s := started(t)
	_, err := s.SelectAnswer(10, 101)
	require.NoError(t, err)
	got, err := s.SelectAnswer(10, 102)
	require.NoError(t, err)
	assert.Equal(t, []uint{102}, got)
	assert.Equal(t, []uint{102}, s.Snapshot().Answers[10])

	_, err = s.SelectAnswer(10, 101, 102)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestSession_MultipleChoiceToggles(t *testing.T) {
	s := started(t)
	got, err := s.SelectAnswer(20, 201)
	require.NoError(t, err)
	assert.Equal(t, []uint{201}, got)

	got, err = s.SelectAnswer(20, 203)
	require.NoError(t, err)
	assert.Equal(t, []uint{201, 203}, got)

	got, err = s.SelectAnswer(20, 201)
	require.NoError(t, err)
	assert.Equal(t, []uint{203}, got)

	got, err = s.SelectAnswer(20, 203)
	require.NoError(t, err)
	assert.Empty(t, got)
	_, present := s.Snapshot().Answers[20]
	assert.False(t, present)
}

func TestSession_MultipleChoiceIgnoresRepeatedOption(t *testing.T) {
	s := started(t)
	got, err := s.SelectAnswer(20, 201, 201)
	require.NoError(t, err)
	assert.Equal(t, []uint{201}, got)

	got, err = s.SelectAnswer(20, 202, 201, 202)
	require.NoError(t, err)
	assert.Equal(t, []uint{202}, got)
}

func TestSession_RestoreSelection(t *testing.T) {
	s := started(t)
	_, err := s.SelectAnswer(10, 101)
	require.NoError(t, err)

	previous := s.Selection(10)
	_, err = s.SelectAnswer(10, 102)
	require.NoError(t, err)
	require.NoError(t, s.RestoreSelection(10, previous))
	assert.Equal(t, []uint{101}, s.Snapshot().Answers[10])

	assert.Nil(t, s.Selection(30))
	_, err = s.SelectAnswer(30, 302)
	require.NoError(t, err)
	require.NoError(t, s.RestoreSelection(30, nil))
	_, present := s.Snapshot().Answers[30]
	assert.False(t, present)

	assert.ErrorIs(t, s.RestoreSelection(99, nil), ErrUnknownQuestion)
}

func TestSession_SelectAnswerKeepsCursor(t *testing.T) {
	s := started(t)
	s.JumpTo(2)
	_, err := s.SelectAnswer(10, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Cursor())
}

func TestSession_SelectAnswerRejectsUnknown(t *testing.T) {
	s := started(t)
	_, err := s.SelectAnswer(99, 101)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
	_, err = s.SelectAnswer(10, 201)
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestSession_NavigationClamps(t *testing.T) {
	s := started(t)
	assert.Equal(t, 0, s.GoPrevious())
	assert.Equal(t, 1, s.GoNext())
	assert.Equal(t, 2, s.GoNext())
	assert.Equal(t, 2, s.GoNext(), "no wrap past the last question")
	assert.Equal(t, 0, s.JumpTo(-4))
	assert.Equal(t, 2, s.JumpTo(17))
	assert.Equal(t, uint(30), s.CurrentQuestion().ID)
}

func TestSession_RequestCompletionListsUnanswered(t *testing.T) {
	s := started(t)
	_, err := s.SelectAnswer(20, 202)
	require.NoError(t, err)

	err = s.RequestCompletion()
	var unanswered *UnansweredError
	require.ErrorAs(t, err, &unanswered)
	assert.Equal(t, []uint{10, 30}, unanswered.QuestionIDs)
	assert.Equal(t, model.AttemptStateInProgress, s.State())
}

func TestSession_CancelSubmission(t *testing.T) {
	s := started(t)
	for _, a := range [][2]uint{{10, 101}, {20, 201}, {30, 302}} {
		_, err := s.SelectAnswer(a[0], a[1])
		require.NoError(t, err)
	}
	require.NoError(t, s.RequestCompletion())
	require.NoError(t, s.CancelSubmission())
	assert.Equal(t, model.AttemptStateInProgress, s.State())
}

func TestSession_AbortAndResume(t *testing.T) {
	s := started(t)
	_, err := s.SelectAnswer(10, 102)
	require.NoError(t, err)
	require.NoError(t, s.Abort())
	assert.Equal(t, model.AttemptStateAborted, s.State())

	restored := Restore(testQuiz(), s.Snapshot())
	require.NoError(t, restored.Resume())
	assert.Equal(t, []uint{102}, restored.Snapshot().Answers[10])
}

func TestSession_Remap(t *testing.T) {
	s := New(testQuiz())
	require.NoError(t, s.Begin())
	require.NoError(t, s.Started(-3, nil))

	assert.False(t, s.Remap(-9, 400))
	assert.True(t, s.Remap(-3, 400))
	snap := s.Snapshot()
	assert.Equal(t, int64(400), snap.AttemptID)
	require.NotNil(t, snap.TemporaryID)
	assert.Equal(t, int64(-3), *snap.TemporaryID)
}

func TestSession_ApplyServerResult(t *testing.T) {
	s := started(t)
	for _, a := range [][2]uint{{10, 101}, {20, 201}, {30, 302}} {
		_, err := s.SelectAnswer(a[0], a[1])
		require.NoError(t, err)
	}
	require.NoError(t, s.RequestCompletion())
	require.NoError(t, s.Complete(Result{Score: 67, CorrectAnswers: 2, TotalQuestions: 3, Optimistic: true}))

	changed, err := s.ApplyServerResult(Result{Score: 67, CorrectAnswers: 2, TotalQuestions: 3})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = s.ApplyServerResult(Result{Score: 100, CorrectAnswers: 3, TotalQuestions: 3, Passed: true})
	require.NoError(t, err)
	assert.True(t, changed)
	snap := s.Snapshot()
	assert.Equal(t, 100, snap.Result.Score)
	assert.False(t, snap.Result.Optimistic)
}
