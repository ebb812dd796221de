package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/quizsync/config"
	"github.com/lshigami/quizsync/internal/backend"
	"github.com/lshigami/quizsync/internal/model"
	"github.com/lshigami/quizsync/internal/repository"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type QuizCatalogService interface {
	// GetQuiz returns the quiz definition, from memory, the backend, or the
	// copy persisted by an earlier fetch, in that order.
	GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error)
}

type quizCatalogService struct {
	client backend.Client
	repo   repository.QuizRepository
	cache  *cache.Cache
}

func NewQuizCatalogService(client backend.Client, repo repository.QuizRepository, cfg *config.Config) QuizCatalogService {
	ttl := cfg.Quiz.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &quizCatalogService{
		client: client,
		repo:   repo,
		cache:  cache.New(ttl, 2*ttl),
	}
}

func cacheKey(quizID uint) string {
	return "quiz:" + strconv.FormatUint(uint64(quizID), 10)
}

func (s *quizCatalogService) GetQuiz(ctx context.Context, quizID uint) (*model.Quiz, error) {
	if cached, ok := s.cache.Get(cacheKey(quizID)); ok {
		return cached.(*model.Quiz), nil
	}

	remote, err := s.client.GetQuiz(ctx, quizID)
	if err == nil {
		var quiz model.Quiz
		if err := copier.CopyWithOption(&quiz, remote, copier.Option{DeepCopy: true}); err != nil {
			return nil, fmt.Errorf("failed to map quiz %d: %w", quizID, err)
		}
		if definition, err := json.Marshal(&quiz); err == nil {
			if err := s.repo.Upsert(quizID, definition); err != nil {
				log.Warn().Err(err).Uint("quizID", quizID).Msg("GetQuiz: failed to persist quiz definition")
			}
		}
		s.cache.SetDefault(cacheKey(quizID), &quiz)
		return &quiz, nil
	}

	switch backend.Classify(err) {
	case backend.KindValidation:
		return nil, fmt.Errorf("%w: %d", ErrQuizNotFound, quizID)
	case backend.KindAuthentication:
		return nil, err
	}

	stored, repoErr := s.repo.FindByQuizID(quizID)
	if repoErr != nil {
		if errors.Is(repoErr, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: quiz %d: %v", ErrQuizUnavailable, quizID, err)
		}
		return nil, repoErr
	}
	var quiz model.Quiz
	if err := json.Unmarshal(stored.Definition, &quiz); err != nil {
		return nil, fmt.Errorf("%w: stored quiz %d is unreadable", ErrQuizUnavailable, quizID)
	}
	log.Info().Err(err).Uint("quizID", quizID).Time("fetchedAt", stored.FetchedAt).Msg("GetQuiz: using stored quiz definition")
	s.cache.SetDefault(cacheKey(quizID), &quiz)
	return &quiz, nil
}
