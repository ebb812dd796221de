package service

import (
	"context"
	"time"

	"github.com/lshigami/quizsync/internal/dto"
	"github.com/lshigami/quizsync/internal/gateway"
	"github.com/lshigami/quizsync/internal/queue"
	"github.com/rs/zerolog/log"
)

// ProgressService records finished quizzes on the user-progress path. Writes
// that cannot reach the backend wait in the offlineQuizUpdates lane.
type ProgressService interface {
	RecordProgress(ctx context.Context, req dto.RecordProgressDTO) (*dto.SubmissionDTO, error)
}

type progressService struct {
	gateway *gateway.Gateway
	now     func() time.Time
}

func NewProgressService(gw *gateway.Gateway) ProgressService {
	return &progressService{gateway: gw, now: time.Now}
}

func (s *progressService) RecordProgress(ctx context.Context, req dto.RecordProgressDTO) (*dto.SubmissionDTO, error) {
	body := dto.UserProgressRequest{QuizID: req.QuizID, Score: req.Score}
	body.Answers = make([]dto.ProgressAnswer, 0, len(req.Answers))
	for _, a := range req.Answers {
		body.Answers = append(body.Answers, dto.ProgressAnswer{QuestionID: a.QuestionID, SelectedOptionIDs: a.SelectedOptionIDs})
	}
	if req.CompletedAt != nil {
		body.CompletedAt = req.CompletedAt.UTC()
	} else {
		body.CompletedAt = s.now().UTC()
	}

	res, err := s.gateway.Submit(ctx, queue.ProgressIntent(body))
	if err != nil {
		log.Error().Err(err).Uint("quizID", req.QuizID).Msg("RecordProgress: backend rejected progress")
		return nil, err
	}
	log.Info().Uint("quizID", req.QuizID).Int("score", req.Score).Str("status", string(res.Status)).Msg("Progress recorded")
	return &dto.SubmissionDTO{Status: string(res.Status), Progress: res.Progress}, nil
}
