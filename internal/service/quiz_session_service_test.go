package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/database"
	"github.com/lshigami/quizsync/internal/backend/backendtest"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/lshigami/quizsync/internal/monitor"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/lshigami/quizsync/internal/reconcile"
	"github.com/lshigami/quizsync/internal/repository"
	"github.com/lshigami/quizsync/internal/session"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const learner = "learner-1"

func backendQuiz() *dto.BackendQuiz {
	return &dto.BackendQuiz{
		ID:    1,
		Title: "Fractions",
		Questions: []dto.BackendQuestion{
			{ID: 10, Text: "1/2 + 1/2", Type: "single_choice", Options: []dto.BackendOption{
				{ID: 100, QuestionID: 10, Text: "1", IsCorrect: true},
				{ID: 101, QuestionID: 10, Text: "2"},
			}},
			{ID: 20, Text: "Equal to 1/2", Type: "multiple_choice", Options: []dto.BackendOption{
				{ID: 200, QuestionID: 20, Text: "2/4", IsCorrect: true},
				{ID: 201, QuestionID: 20, Text: "3/6", IsCorrect: true},
				{ID: 202, QuestionID: 20, Text: "2/3"},
			}},
		},
	}
}

type harness struct {
	db      *gorm.DB
	cfg     *config.Config
	fake    *backendtest.Fake
	monitor *monitor.Monitor
	queue   *queue.Queue
	sync    *reconcile.Synchronizer
	svc     QuizSessionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "quizsync.db")
	cfg.Sync.Workers = 2
	db, err := database.NewDatabase(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	fake := backendtest.New()
	fake.Quizzes[1] = backendQuiz()
	return newHarnessOn(t, db, cfg, fake)
}

// newHarnessOn builds a fresh service over an existing database, as after a
// restart.
func newHarnessOn(t *testing.T, db *gorm.DB, cfg *config.Config, fake *backendtest.Fake) *harness {
	t.Helper()
	q := queue.New(queue.NewGormStore(db))
	m := monitor.NewMonitor(true, 0)
	catalog := NewQuizCatalogService(fake, repository.NewQuizRepository(db), cfg)
	svc := NewQuizSessionService(
		catalog,
		repository.NewAttemptRepository(db),
		gateway.New(fake, q, m),
		q,
		fake,
		NewScoreCalculatorService(),
	)
	s := reconcile.New(fake, q, cfg)
	s.SetLedger(svc)
	s.SetConnectivity(m)
	return &harness{db: db, cfg: cfg, fake: fake, monitor: m, queue: q, sync: s, svc: svc}
}

func (h *harness) pending(t *testing.T, attemptID int64) []queue.Entry {
	t.Helper()
	entries, _, err := h.queue.PeekOrdered(context.Background(), queue.AttemptLane(attemptID))
	require.NoError(t, err)
	return entries
}

func answerAll(t *testing.T, svc QuizSessionService, attemptID int64) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.SelectAnswer(ctx, attemptID, 10, []uint{100})
	require.NoError(t, err)
	_, err = svc.SelectAnswer(ctx, attemptID, 20, []uint{200, 201})
	require.NoError(t, err)
}

func TestQuizSession_OnlineAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Score[1000] = dto.CompleteAttemptResponse{Score: 100, CorrectAnswers: 2, TotalQuestions: 2, Passed: true}

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), snap.AttemptID)
	assert.Equal(t, string(model.AttemptStateInProgress), snap.State)
	require.NotNil(t, snap.CurrentQuestion)
	assert.Equal(t, uint(10), snap.CurrentQuestion.ID)
	assert.Equal(t, []uint{10, 20}, snap.Unanswered)

	answerAll(t, h.svc, 1000)
	assert.Len(t, h.fake.CallsOf(backendtest.MethodSubmit), 2)

	result, err := h.svc.CompleteAttempt(ctx, 1000)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)
	assert.False(t, result.Optimistic)
	assert.Equal(t, "server", result.Source)
	assert.Empty(t, h.pending(t, 1000))
}

func TestQuizSession_CompletesOfflineAndReconcilesOnSync(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	attemptID := snap.AttemptID
	answerAll(t, h.svc, attemptID)

	h.monitor.SetOnline(false)
	result, err := h.svc.CompleteAttempt(ctx, attemptID)
	require.NoError(t, err)
	assert.True(t, result.Optimistic)
	assert.Equal(t, "local", result.Source)
	assert.Equal(t, 100, result.Score)
	assert.True(t, result.Passed)

	current, err := h.svc.GetAttempt(ctx, attemptID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStateCompleted), current.State)

	entries := h.pending(t, attemptID)
	require.Len(t, entries, 1)
	assert.Equal(t, queue.IntentCompleteAttempt, entries[0].IntentType)
	assert.Empty(t, h.fake.CallsOf(backendtest.MethodComplete))

	h.fake.Score[attemptID] = dto.CompleteAttemptResponse{Score: 50, CorrectAnswers: 1, TotalQuestions: 2, Passed: false}
	reconnects := 0
	h.monitor.OnReconnect(func() { reconnects++ })
	h.monitor.SetOnline(true)
	assert.Equal(t, 1, reconnects)
	report, err := h.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Replayed)
	require.Len(t, report.Discrepancies, 1)
	assert.Equal(t, 100, report.Discrepancies[0].LocalScore)
	assert.Equal(t, 50, report.Discrepancies[0].ServerScore)
	assert.Empty(t, h.pending(t, attemptID))
	assert.Len(t, h.fake.CallsOf(backendtest.MethodComplete), 1)

	current, err = h.svc.GetAttempt(ctx, attemptID)
	require.NoError(t, err)
	require.NotNil(t, current.Result)
	assert.Equal(t, 50, current.Result.Score)
	assert.False(t, current.Result.Passed)
	assert.False(t, current.Result.Optimistic)
}

func TestQuizSession_OfflineStartIsRemapped(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// another learner's attempt takes 1000 and caches the quiz
	_, err := h.svc.StartAttempt(ctx, "warmup", 1)
	require.NoError(t, err)

	h.monitor.SetOnline(false)
	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	require.Less(t, snap.AttemptID, int64(0))
	temporaryID := snap.AttemptID

	answerAll(t, h.svc, temporaryID)
	result, err := h.svc.CompleteAttempt(ctx, temporaryID)
	require.NoError(t, err)
	assert.True(t, result.Optimistic)

	entries := h.pending(t, temporaryID)
	require.Len(t, entries, 4)
	assert.Equal(t, queue.IntentStartAttempt, entries[0].IntentType)
	assert.Equal(t, queue.IntentCompleteAttempt, entries[3].IntentType)

	h.fake.Score[1001] = dto.CompleteAttemptResponse{Score: 100, CorrectAnswers: 2, TotalQuestions: 2, Passed: true}
	h.monitor.SetOnline(true)
	report, err := h.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Replayed)
	assert.Empty(t, report.Discrepancies)
	assert.Empty(t, h.pending(t, temporaryID))
	assert.Empty(t, h.pending(t, 1001))

	for _, c := range h.fake.CallsOf(backendtest.MethodSubmit) {
		assert.Equal(t, int64(1001), c.AttemptID)
	}

	// the placeholder id keeps resolving
	byTemp, err := h.svc.GetAttempt(ctx, temporaryID)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), byTemp.AttemptID)
	require.NotNil(t, byTemp.Result)
	assert.Equal(t, "server", byTemp.Result.Source)
}

func TestQuizSession_StartConflictMergesAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Attempts[77] = &dto.AttemptStateResponse{AttemptID: 77, QuizID: 1, Status: "in_progress", Answers: map[uint][]uint{10: {101}}}
	h.fake.SetFail(func(c backendtest.Call) error {
		if c.Method == backendtest.MethodStart {
			return backendtest.Status(http.StatusConflict, `{"error":"attempt open","attemptId":77}`)
		}
		return nil
	})

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(77), snap.AttemptID)
	assert.Equal(t, string(model.AttemptStateInProgress), snap.State)
	assert.Equal(t, []uint{101}, snap.Answers[10])
	assert.Equal(t, []uint{20}, snap.Unanswered)
}

func TestQuizSession_StartConflictWithUnreadableLocalAnswers(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = previous })

	h := newHarness(t)
	ctx := context.Background()
	require.NoError(t, repository.NewAttemptRepository(h.db).Create(&model.LocalAttempt{
		AttemptID: 77,
		QuizID:    1,
		UserID:    "other-device",
		State:     model.AttemptStateAborted,
		Answers:   datatypes.JSON(`{"10":`),
	}))
	h.fake.Attempts[77] = &dto.AttemptStateResponse{AttemptID: 77, QuizID: 1, Status: "in_progress", Answers: map[uint][]uint{20: {200}}}
	h.fake.SetFail(func(c backendtest.Call) error {
		if c.Method == backendtest.MethodStart {
			return backendtest.Status(http.StatusConflict, `{"error":"attempt open","attemptId":77}`)
		}
		return nil
	})

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(77), snap.AttemptID)
	assert.Equal(t, []uint{200}, snap.Answers[20])
	assert.Equal(t, []uint{10}, snap.Unanswered)
	assert.Contains(t, buf.String(), "cached answers unreadable")
}

func TestMergeAnswers(t *testing.T) {
	tests := []struct {
		name   string
		local  model.AnswerMap
		remote model.AnswerMap
		want   model.AnswerMap
	}{
		{"local wins per question", model.AnswerMap{1: {2}}, model.AnswerMap{1: {3}}, model.AnswerMap{1: {2}}},
		{"remote fills gaps", model.AnswerMap{1: {2}}, model.AnswerMap{5: {6, 7}}, model.AnswerMap{1: {2}, 5: {6, 7}}},
		{"empty selections ignored", model.AnswerMap{1: {}}, model.AnswerMap{1: {3}}, model.AnswerMap{1: {3}}},
		{"both empty", nil, nil, model.AnswerMap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeAnswers(tt.local, tt.remote))
		})
	}
}

func TestQuizSession_SecondStartIsRefused(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	_, err = h.svc.StartAttempt(ctx, learner, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAttemptAlreadyOpen))
	var open *AttemptOpenError
	require.ErrorAs(t, err, &open)
	assert.Equal(t, first.AttemptID, open.AttemptID)
	assert.Len(t, h.fake.CallsOf(backendtest.MethodStart), 1)
}

func TestQuizSession_AbortedAttemptResumes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 10, []uint{101})
	require.NoError(t, err)
	aborted, err := h.svc.AbortAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStateAborted), aborted.State)

	resumed, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	assert.Equal(t, snap.AttemptID, resumed.AttemptID)
	assert.Equal(t, string(model.AttemptStateInProgress), resumed.State)
	assert.Equal(t, []uint{101}, resumed.Answers[10])
}

func TestQuizSession_CompletionNeedsEveryAnswer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 10, []uint{100})
	require.NoError(t, err)

	_, err = h.svc.CompleteAttempt(ctx, snap.AttemptID)
	var unanswered *session.UnansweredError
	require.ErrorAs(t, err, &unanswered)
	assert.Equal(t, []uint{20}, unanswered.QuestionIDs)

	current, err := h.svc.GetAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStateInProgress), current.State)
	assert.Empty(t, h.fake.CallsOf(backendtest.MethodComplete))
}

func TestQuizSession_RejectedCompletionReopensAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	answerAll(t, h.svc, snap.AttemptID)
	h.fake.SetFail(func(c backendtest.Call) error {
		if c.Method == backendtest.MethodComplete {
			return backendtest.Status(http.StatusBadRequest, `{"error":"attempt expired"}`)
		}
		return nil
	})

	_, err = h.svc.CompleteAttempt(ctx, snap.AttemptID)
	require.Error(t, err)
	current, err := h.svc.GetAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStateInProgress), current.State)
	assert.Empty(t, h.pending(t, snap.AttemptID))
}

func TestQuizSession_RefusedAnswerIsNotKept(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "session expired", status: http.StatusUnauthorized},
		{name: "validation", status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()

			snap, err := h.svc.StartAttempt(ctx, learner, 1)
			require.NoError(t, err)
			_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 10, []uint{100})
			require.NoError(t, err)

			h.fake.SetFail(func(c backendtest.Call) error {
				if c.Method == backendtest.MethodSubmit {
					return backendtest.Status(tt.status, `{"error":"refused"}`)
				}
				return nil
			})
			_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 10, []uint{101})
			require.Error(t, err)
			_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 20, []uint{200})
			require.Error(t, err)

			current, err := h.svc.GetAttempt(ctx, snap.AttemptID)
			require.NoError(t, err)
			assert.Equal(t, []uint{100}, current.Answers[10])
			_, answered := current.Answers[20]
			assert.False(t, answered)
			assert.Equal(t, []uint{20}, current.Unanswered)
			assert.Empty(t, h.pending(t, snap.AttemptID))

			h.fake.SetFail(nil)
			restarted := newHarnessOn(t, h.db, h.cfg, h.fake)
			reloaded, err := restarted.svc.GetAttempt(ctx, snap.AttemptID)
			require.NoError(t, err)
			assert.Equal(t, []uint{100}, reloaded.Answers[10])
			_, answered = reloaded.Answers[20]
			assert.False(t, answered)
		})
	}
}

func TestQuizSession_Navigate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)

	tests := []struct {
		action string
		index  int
		want   int
	}{
		{NavigateNext, 0, 1},
		{NavigateNext, 0, 1},
		{NavigatePrevious, 0, 0},
		{NavigatePrevious, 0, 0},
		{NavigateJump, 1, 1},
		{NavigateJump, 9, 1},
		{NavigateJump, -3, 0},
	}
	for _, tt := range tests {
		got, err := h.svc.Navigate(ctx, snap.AttemptID, tt.action, tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.Cursor, "%s %d", tt.action, tt.index)
	}

	_, err = h.svc.Navigate(ctx, snap.AttemptID, "sideways", 0)
	assert.Error(t, err)
}

func TestQuizSession_Review(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.Score[1000] = dto.CompleteAttemptResponse{Score: 50, CorrectAnswers: 1, TotalQuestions: 2, Passed: false}

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	_, err = h.svc.ReviewAttempt(ctx, snap.AttemptID)
	assert.ErrorIs(t, err, ErrReviewUnavailable)

	_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 10, []uint{100})
	require.NoError(t, err)
	_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 20, []uint{200})
	require.NoError(t, err)
	_, err = h.svc.CompleteAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)

	review, err := h.svc.ReviewAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)
	require.Len(t, review.Questions, 2)
	assert.True(t, review.Questions[0].IsCorrect)
	assert.False(t, review.Questions[1].IsCorrect)
	assert.Equal(t, []uint{200, 201}, review.Questions[1].Correct)
	assert.Equal(t, []uint{200}, review.Questions[1].Selected)
	assert.Equal(t, 50, review.Result.Score)
}

func TestQuizSession_SurvivesRestart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	snap, err := h.svc.StartAttempt(ctx, learner, 1)
	require.NoError(t, err)
	_, err = h.svc.SelectAnswer(ctx, snap.AttemptID, 20, []uint{201})
	require.NoError(t, err)
	_, err = h.svc.Navigate(ctx, snap.AttemptID, NavigateNext, 0)
	require.NoError(t, err)

	restarted := newHarnessOn(t, h.db, h.cfg, h.fake)
	got, err := restarted.svc.GetAttempt(ctx, snap.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, string(model.AttemptStateInProgress), got.State)
	assert.Equal(t, 1, got.Cursor)
	assert.Equal(t, []uint{201}, got.Answers[20])

	_, err = restarted.svc.StartAttempt(ctx, learner, 1)
	assert.ErrorIs(t, err, ErrAttemptAlreadyOpen)
}

func TestQuizSession_UnknownAttempt(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.GetAttempt(context.Background(), 4242)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}
