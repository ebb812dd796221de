package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/lshigami/quizsync/internal/repository"
	"github.com/lshigami/quizsync/internal/session"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	NavigateNext     = "next"
	NavigatePrevious = "previous"
	NavigateJump     = "jump"
)

// QuizSessionService runs the quiz attempts of the learner. It also acts as
// the attempt ledger of the synchronizer.
type QuizSessionService interface {
	StartAttempt(ctx context.Context, userID string, quizID uint) (*dto.AttemptSnapshotDTO, error)
	GetAttempt(ctx context.Context, attemptID int64) (*dto.AttemptSnapshotDTO, error)
	SelectAnswer(ctx context.Context, attemptID int64, questionID uint, optionIDs []uint) (*dto.AttemptSnapshotDTO, error)
	Navigate(ctx context.Context, attemptID int64, action string, index int) (*dto.AttemptSnapshotDTO, error)
	CompleteAttempt(ctx context.Context, attemptID int64) (*dto.AttemptResultDTO, error)
	AbortAttempt(ctx context.Context, attemptID int64) (*dto.AttemptSnapshotDTO, error)
	ReviewAttempt(ctx context.Context, attemptID int64) (*dto.AttemptReviewDTO, error)

	RemapAttempt(ctx context.Context, temporaryID, attemptID int64) error
	ApplyServerResult(ctx context.Context, attemptID int64, result dto.CompleteAttemptResponse) (*dto.CompleteAttemptResponse, error)
}

// liveSession guards one attempt. stateMu covers the state machine and the
// record; sendMu is held from a mutation until its submission has been handed
// to the gateway, so submissions leave in the order they were made.
type liveSession struct {
	stateMu sync.Mutex
	sendMu  sync.Mutex
	sess    *session.Session
	record  *model.LocalAttempt
}

type quizSessionService struct {
	catalog  QuizCatalogService
	attempts repository.AttemptRepository
	gateway  *gateway.Gateway
	queue    *queue.Queue
	client   backend.Client
	scorer   ScoreCalculatorService

	startMu  sync.Mutex
	mu       sync.Mutex
	sessions map[int64]*liveSession
	aliases  map[int64]int64
}

func NewQuizSessionService(
	catalog QuizCatalogService,
	attempts repository.AttemptRepository,
	gw *gateway.Gateway,
	q *queue.Queue,
	client backend.Client,
	scorer ScoreCalculatorService,
) QuizSessionService {
	return &quizSessionService{
		catalog:  catalog,
		attempts: attempts,
		gateway:  gw,
		queue:    q,
		client:   client,
		scorer:   scorer,
		sessions: map[int64]*liveSession{},
		aliases:  map[int64]int64{},
	}
}

func (s *quizSessionService) StartAttempt(ctx context.Context, userID string, quizID uint) (*dto.AttemptSnapshotDTO, error) {
	quiz, err := s.catalog.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	s.startMu.Lock()
	defer s.startMu.Unlock()

	existing, err := s.attempts.FindUnfinished(userID, quizID)
	switch {
	case err == nil && existing.State == model.AttemptStateAborted:
		return s.resume(ctx, existing.AttemptID)
	case err == nil:
		return nil, &AttemptOpenError{AttemptID: existing.AttemptID}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	temporaryID, err := s.attempts.NextTemporaryID()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate attempt id: %w", err)
	}
	sess := session.New(quiz)
	if err := sess.Begin(); err != nil {
		return nil, err
	}
	record := &model.LocalAttempt{
		AttemptID:      temporaryID,
		QuizID:         quizID,
		UserID:         userID,
		State:          model.AttemptStateStarting,
		Answers:        []byte("{}"),
		TotalQuestions: len(quiz.Questions),
		StartedAt:      time.Now().UTC(),
	}
	if err := s.attempts.Create(record); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	attemptID := temporaryID
	answers := model.AnswerMap{}
	res, err := s.gateway.Submit(ctx, queue.StartIntent(temporaryID, quizID))
	switch {
	case err == nil && res.Status == gateway.StatusAcked:
		attemptID = res.Start.AttemptID
	case err == nil:
		log.Info().Int64("attemptID", temporaryID).Uint("quizID", quizID).Msg("StartAttempt: started offline")
	default:
		existingID, ok := backend.ExistingAttemptID(err)
		if !ok {
			if delErr := s.attempts.Delete(record); delErr != nil {
				log.Warn().Err(delErr).Int64("attemptID", temporaryID).Msg("StartAttempt: failed to drop attempt record")
			}
			return nil, err
		}
		var cached *model.LocalAttempt
		answers, cached = s.resumeServerAttempt(ctx, existingID)
		if cached != nil {
			if delErr := s.attempts.Delete(record); delErr != nil {
				log.Warn().Err(delErr).Int64("attemptID", temporaryID).Msg("StartAttempt: failed to drop attempt record")
			}
			record = cached
		}
		attemptID = existingID
		log.Info().Int64("attemptID", existingID).Uint("quizID", quizID).Msg("StartAttempt: resumed attempt already open on the backend")
	}

	if err := sess.Started(attemptID, answers); err != nil {
		return nil, err
	}
	ls := &liveSession{sess: sess, record: record}
	ls.stateMu.Lock()
	err = s.persistLocked(ls)
	out := toSnapshotDTO(ls.sess)
	ls.stateMu.Unlock()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sessions[attemptID] = ls
	s.mu.Unlock()
	log.Info().Int64("attemptID", attemptID).Uint("quizID", quizID).Str("userID", userID).Msg("Attempt started")
	return out, nil
}

// resumeServerAttempt merges the answers the backend holds for an attempt with
// the ones cached locally. Local selections win; the backend fills gaps. When
// the backend cannot be asked, the local answers are trusted.
func (s *quizSessionService) resumeServerAttempt(ctx context.Context, attemptID int64) (model.AnswerMap, *model.LocalAttempt) {
	local := model.AnswerMap{}
	cached, err := s.attempts.FindByAttemptID(attemptID)
	if err == nil {
		if err := json.Unmarshal(cached.Answers, &local); err != nil {
			log.Warn().Err(err).Int64("attemptID", attemptID).Msg("resumeServerAttempt: cached answers unreadable, using backend answers only")
			local = model.AnswerMap{}
		}
	} else {
		cached = nil
	}

	remote, err := s.client.GetAttempt(ctx, attemptID)
	if err != nil {
		log.Warn().Err(err).Int64("attemptID", attemptID).Msg("resumeServerAttempt: backend state unavailable, trusting local answers")
		return local, cached
	}
	return mergeAnswers(local, remote.Answers), cached
}

func mergeAnswers(local, remote model.AnswerMap) model.AnswerMap {
	merged := model.AnswerMap{}
	for questionID, options := range remote {
		if len(options) > 0 {
			merged[questionID] = append([]uint{}, options...)
		}
	}
	for questionID, options := range local {
		if len(options) > 0 {
			merged[questionID] = append([]uint{}, options...)
		}
	}
	return merged
}

func (s *quizSessionService) resume(ctx context.Context, attemptID int64) (*dto.AttemptSnapshotDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()
	if err := ls.sess.Resume(); err != nil {
		return nil, err
	}
	if err := s.persistLocked(ls); err != nil {
		return nil, err
	}
	log.Info().Int64("attemptID", ls.sess.AttemptID()).Msg("Attempt resumed")
	return toSnapshotDTO(ls.sess), nil
}

func (s *quizSessionService) GetAttempt(ctx context.Context, attemptID int64) (*dto.AttemptSnapshotDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()
	return toSnapshotDTO(ls.sess), nil
}

func (s *quizSessionService) SelectAnswer(ctx context.Context, attemptID int64, questionID uint, optionIDs []uint) (*dto.AttemptSnapshotDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.sendMu.Lock()
	defer ls.sendMu.Unlock()

	ls.stateMu.Lock()
	previous := ls.sess.Selection(questionID)
	selection, err := ls.sess.SelectAnswer(questionID, optionIDs...)
	if err != nil {
		ls.stateMu.Unlock()
		return nil, err
	}
	if err := s.persistLocked(ls); err != nil {
		ls.stateMu.Unlock()
		return nil, err
	}
	intent := queue.AnswerIntent(ls.sess.AttemptID(), questionID, selection)
	ls.stateMu.Unlock()

	_, submitErr := s.gateway.Submit(ctx, intent)

	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()
	if submitErr != nil {
		log.Warn().Err(submitErr).Int64("attemptID", intent.AttemptID).Uint("questionID", questionID).Msg("SelectAnswer: submission rejected, restoring previous selection")
		if err := ls.sess.RestoreSelection(questionID, previous); err != nil {
			log.Error().Err(err).Int64("attemptID", intent.AttemptID).Msg("SelectAnswer: failed to restore selection")
		} else if err := s.persistLocked(ls); err != nil {
			log.Error().Err(err).Int64("attemptID", intent.AttemptID).Msg("SelectAnswer: failed to persist restored selection")
		}
		return nil, submitErr
	}
	return toSnapshotDTO(ls.sess), nil
}

func (s *quizSessionService) Navigate(ctx context.Context, attemptID int64, action string, index int) (*dto.AttemptSnapshotDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()

	switch action {
	case NavigateNext:
		ls.sess.GoNext()
	case NavigatePrevious:
		ls.sess.GoPrevious()
	case NavigateJump:
		ls.sess.JumpTo(index)
	default:
		return nil, fmt.Errorf("unknown navigation action %q", action)
	}
	if err := s.persistLocked(ls); err != nil {
		return nil, err
	}
	return toSnapshotDTO(ls.sess), nil
}

// CompleteAttempt grades the attempt locally and submits it. When the backend
// confirms, its result is returned; when the submission was queued, the local
// result is returned flagged as optimistic.
func (s *quizSessionService) CompleteAttempt(ctx context.Context, attemptID int64) (*dto.AttemptResultDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.sendMu.Lock()
	defer ls.sendMu.Unlock()

	ls.stateMu.Lock()
	if err := ls.sess.RequestCompletion(); err != nil {
		ls.stateMu.Unlock()
		return nil, err
	}
	local := s.scorer.Calculate(ls.sess.Quiz(), ls.sess.Snapshot().Answers)
	if err := s.persistLocked(ls); err != nil {
		ls.stateMu.Unlock()
		return nil, err
	}
	intent := queue.CompleteIntent(ls.sess.AttemptID())
	ls.stateMu.Unlock()

	res, submitErr := s.gateway.Submit(ctx, intent)

	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()
	if submitErr != nil {
		if err := ls.sess.CancelSubmission(); err != nil {
			log.Error().Err(err).Int64("attemptID", intent.AttemptID).Msg("CompleteAttempt: failed to reopen attempt")
		}
		if err := s.persistLocked(ls); err != nil {
			log.Error().Err(err).Int64("attemptID", intent.AttemptID).Msg("CompleteAttempt: failed to persist attempt")
		}
		return nil, submitErr
	}

	score, passed := local.Score, local.Passed
	ls.record.LocalScore = &score
	ls.record.LocalPassed = &passed

	result := session.Result{
		Score:          local.Score,
		CorrectAnswers: local.CorrectCount,
		TotalQuestions: local.TotalQuestions,
		Passed:         local.Passed,
		Optimistic:     true,
	}
	if res.Status == gateway.StatusAcked && res.Complete != nil {
		result = session.Result{
			Score:          res.Complete.Score,
			CorrectAnswers: res.Complete.CorrectAnswers,
			TotalQuestions: res.Complete.TotalQuestions,
			Passed:         res.Complete.Passed,
		}
	}
	if err := ls.sess.Complete(result); err != nil {
		return nil, err
	}
	if err := s.persistLocked(ls); err != nil {
		return nil, err
	}

	log.Info().
		Int64("attemptID", intent.AttemptID).
		Int("score", result.Score).
		Bool("passed", result.Passed).
		Bool("optimistic", result.Optimistic).
		Msg("Attempt completed")
	snap := ls.sess.Snapshot()
	return toResultDTO(snap.AttemptID, snap.Result), nil
}

func (s *quizSessionService) AbortAttempt(ctx context.Context, attemptID int64) (*dto.AttemptSnapshotDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()
	if err := ls.sess.Abort(); err != nil {
		return nil, err
	}
	if err := s.persistLocked(ls); err != nil {
		return nil, err
	}
	return toSnapshotDTO(ls.sess), nil
}

func (s *quizSessionService) ReviewAttempt(ctx context.Context, attemptID int64) (*dto.AttemptReviewDTO, error) {
	ls, err := s.lookup(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()

	snap := ls.sess.Snapshot()
	if snap.State != model.AttemptStateCompleted || snap.Result == nil {
		return nil, ErrReviewUnavailable
	}
	quiz := ls.sess.Quiz()
	review := &dto.AttemptReviewDTO{
		AttemptID: snap.AttemptID,
		QuizID:    quiz.ID,
		Result:    *toResultDTO(snap.AttemptID, snap.Result),
		Questions: make([]dto.QuestionReviewDTO, 0, len(quiz.Questions)),
	}
	for i := range quiz.Questions {
		q := &quiz.Questions[i]
		selected := snap.Answers[q.ID]
		if selected == nil {
			selected = []uint{}
		}
		item := dto.QuestionReviewDTO{
			ID:          q.ID,
			Text:        q.Text,
			Type:        string(q.Type),
			Selected:    selected,
			Correct:     q.CorrectOptionIDs(),
			IsCorrect:   isCorrect(q, selected),
			Explanation: q.Explanation,
		}
		for _, o := range q.Options {
			item.Options = append(item.Options, dto.OptionReviewDTO{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect})
		}
		review.Questions = append(review.Questions, item)
	}
	return review, nil
}

// RemapAttempt moves a placeholder attempt onto the id issued by the backend:
// the stored record first, then the queued mutations, then the live session.
func (s *quizSessionService) RemapAttempt(ctx context.Context, temporaryID, attemptID int64) error {
	s.mu.Lock()
	ls := s.sessions[temporaryID]
	s.mu.Unlock()
	if ls != nil {
		ls.sendMu.Lock()
		defer ls.sendMu.Unlock()
	}

	if err := s.attempts.Remap(temporaryID, attemptID); err != nil {
		return fmt.Errorf("failed to remap attempt record: %w", err)
	}
	if _, err := s.queue.Remap(ctx, temporaryID, attemptID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.aliases[temporaryID] = attemptID
	if ls != nil {
		ls.stateMu.Lock()
		ls.sess.Remap(temporaryID, attemptID)
		ls.record.AttemptID = attemptID
		tmp := temporaryID
		ls.record.TemporaryID = &tmp
		ls.stateMu.Unlock()
		delete(s.sessions, temporaryID)
		s.sessions[attemptID] = ls
	}
	return nil
}

// ApplyServerResult replaces the optimistic result with the confirmed one and
// returns the optimistic result that was shown, if any.
func (s *quizSessionService) ApplyServerResult(ctx context.Context, attemptID int64, result dto.CompleteAttemptResponse) (*dto.CompleteAttemptResponse, error) {
	ls, err := s.lookup(ctx, attemptID)
	if errors.Is(err, ErrAttemptNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()

	confirmed := session.Result{
		Score:          result.Score,
		CorrectAnswers: result.CorrectAnswers,
		TotalQuestions: result.TotalQuestions,
		Passed:         result.Passed,
	}
	snap := ls.sess.Snapshot()
	var shown *dto.CompleteAttemptResponse
	if snap.Result != nil && snap.Result.Optimistic {
		shown = &dto.CompleteAttemptResponse{
			Score:          snap.Result.Score,
			CorrectAnswers: snap.Result.CorrectAnswers,
			TotalQuestions: snap.Result.TotalQuestions,
			Passed:         snap.Result.Passed,
		}
	}

	switch snap.State {
	case model.AttemptStateCompleted:
		if _, err := ls.sess.ApplyServerResult(confirmed); err != nil {
			return nil, err
		}
	case model.AttemptStateSubmitting:
		if err := ls.sess.Complete(confirmed); err != nil {
			return nil, err
		}
	default:
		log.Warn().Int64("attemptID", attemptID).Str("state", string(snap.State)).Msg("ApplyServerResult: backend completed an attempt that is not completed locally")
	}
	score, passed := result.Score, result.Passed
	ls.record.ServerScore = &score
	ls.record.ServerPassed = &passed
	if err := s.persistLocked(ls); err != nil {
		return nil, err
	}
	return shown, nil
}

// lookup returns the live session of an attempt, restoring it from the
// attempt record after a restart.
func (s *quizSessionService) lookup(ctx context.Context, attemptID int64) (*liveSession, error) {
	s.mu.Lock()
	if real, ok := s.aliases[attemptID]; ok {
		attemptID = real
	}
	ls, ok := s.sessions[attemptID]
	s.mu.Unlock()
	if ok {
		return ls, nil
	}

	record, err := s.attempts.FindByAttemptID(attemptID)
	if errors.Is(err, gorm.ErrRecordNotFound) && attemptID < 0 {
		record, err = s.attempts.FindByTemporaryID(attemptID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrAttemptNotFound, attemptID)
	}
	if err != nil {
		return nil, err
	}
	quiz, err := s.catalog.GetQuiz(ctx, record.QuizID)
	if err != nil {
		return nil, err
	}

	restored := &liveSession{sess: session.Restore(quiz, snapshotFromRecord(record)), record: record}
	if err := s.recover(ctx, restored); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ls, ok := s.sessions[record.AttemptID]; ok {
		return ls, nil
	}
	s.sessions[record.AttemptID] = restored
	return restored, nil
}

// recover settles attempts that were interrupted between two states.
func (s *quizSessionService) recover(ctx context.Context, ls *liveSession) error {
	ls.stateMu.Lock()
	defer ls.stateMu.Unlock()

	snap := ls.sess.Snapshot()
	switch snap.State {
	case model.AttemptStateStarting:
		pending, err := s.queue.HasPending(ctx, queue.AttemptLane(snap.AttemptID))
		if err != nil {
			return err
		}
		if snap.AttemptID < 0 && !pending {
			if _, err := s.queue.Enqueue(ctx, queue.StartIntent(snap.AttemptID, snap.QuizID)); err != nil {
				return err
			}
		}
		restarted := session.New(ls.sess.Quiz())
		_ = restarted.Begin()
		if err := restarted.Started(snap.AttemptID, snap.Answers); err != nil {
			return err
		}
		ls.sess = restarted
	case model.AttemptStateSubmitting:
		entries, _, err := s.queue.PeekOrdered(ctx, queue.AttemptLane(snap.AttemptID))
		if err != nil {
			return err
		}
		queued := false
		for _, e := range entries {
			if e.IntentType == queue.IntentCompleteAttempt {
				queued = true
			}
		}
		if !queued {
			if err := ls.sess.CancelSubmission(); err != nil {
				return err
			}
			break
		}
		local := s.scorer.Calculate(ls.sess.Quiz(), snap.Answers)
		if err := ls.sess.Complete(session.Result{
			Score:          local.Score,
			CorrectAnswers: local.CorrectCount,
			TotalQuestions: local.TotalQuestions,
			Passed:         local.Passed,
			Optimistic:     true,
		}); err != nil {
			return err
		}
	default:
		return nil
	}
	log.Info().Int64("attemptID", snap.AttemptID).Str("from", string(snap.State)).Str("to", string(ls.sess.State())).Msg("Recovered interrupted attempt")
	return s.persistLocked(ls)
}

func (s *quizSessionService) persistLocked(ls *liveSession) error {
	snap := ls.sess.Snapshot()
	record := ls.record
	answers, err := json.Marshal(snap.Answers)
	if err != nil {
		return err
	}
	record.AttemptID = snap.AttemptID
	if snap.TemporaryID != nil {
		record.TemporaryID = snap.TemporaryID
	}
	record.State = snap.State
	record.Cursor = snap.Cursor
	record.Answers = answers
	if !snap.StartedAt.IsZero() {
		record.StartedAt = snap.StartedAt
	}
	record.CompletedAt = snap.CompletedAt
	if r := snap.Result; r != nil {
		correct := r.CorrectAnswers
		record.CorrectAnswers = &correct
		record.Optimistic = r.Optimistic
		score, passed := r.Score, r.Passed
		if r.Optimistic {
			record.LocalScore, record.LocalPassed = &score, &passed
		} else {
			record.ServerScore, record.ServerPassed = &score, &passed
		}
	}
	if err := s.attempts.Save(record); err != nil {
		return fmt.Errorf("failed to persist attempt %d: %w", snap.AttemptID, err)
	}
	return nil
}

func snapshotFromRecord(record *model.LocalAttempt) session.Snapshot {
	answers := model.AnswerMap{}
	if len(record.Answers) > 0 {
		if err := json.Unmarshal(record.Answers, &answers); err != nil {
			log.Warn().Err(err).Int64("attemptID", record.AttemptID).Msg("snapshotFromRecord: unreadable answers")
		}
	}
	snap := session.Snapshot{
		AttemptID:   record.AttemptID,
		TemporaryID: record.TemporaryID,
		QuizID:      record.QuizID,
		State:       record.State,
		Cursor:      record.Cursor,
		Answers:     answers,
		StartedAt:   record.StartedAt,
		CompletedAt: record.CompletedAt,
	}
	correct := 0
	if record.CorrectAnswers != nil {
		correct = *record.CorrectAnswers
	}
	switch {
	case record.ServerScore != nil && !record.Optimistic:
		snap.Result = &session.Result{Score: *record.ServerScore, CorrectAnswers: correct, TotalQuestions: record.TotalQuestions, Passed: derefBool(record.ServerPassed)}
	case record.LocalScore != nil && record.State == model.AttemptStateCompleted:
		snap.Result = &session.Result{Score: *record.LocalScore, CorrectAnswers: correct, TotalQuestions: record.TotalQuestions, Passed: derefBool(record.LocalPassed), Optimistic: true}
	}
	return snap
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func toResultDTO(attemptID int64, r *session.Result) *dto.AttemptResultDTO {
	if r == nil {
		return nil
	}
	source := "server"
	if r.Optimistic {
		source = "local"
	}
	return &dto.AttemptResultDTO{
		AttemptID:      attemptID,
		Score:          r.Score,
		CorrectAnswers: r.CorrectAnswers,
		TotalQuestions: r.TotalQuestions,
		Passed:         r.Passed,
		Optimistic:     r.Optimistic,
		Source:         source,
	}
}

func toSnapshotDTO(sess *session.Session) *dto.AttemptSnapshotDTO {
	snap := sess.Snapshot()
	quiz := sess.Quiz()
	out := &dto.AttemptSnapshotDTO{
		AttemptID:     snap.AttemptID,
		QuizID:        quiz.ID,
		QuizTitle:     quiz.Title,
		State:         string(snap.State),
		Cursor:        snap.Cursor,
		QuestionCount: sess.QuestionCount(),
		Answers:       snap.Answers,
		Unanswered:    sess.Unanswered(),
		Result:        toResultDTO(snap.AttemptID, snap.Result),
		StartedAt:     snap.StartedAt,
		CompletedAt:   snap.CompletedAt,
	}
	if q := sess.CurrentQuestion(); q != nil {
		view := &dto.QuestionViewDTO{ID: q.ID, Text: q.Text, Type: string(q.Type)}
		for _, o := range q.Options {
			view.Options = append(view.Options, dto.OptionViewDTO{ID: o.ID, Text: o.Text})
		}
		out.CurrentQuestion = view
	}
	return out
}
