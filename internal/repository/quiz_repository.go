package repository

import (
	"time"

	"github.com/lshigami/quizsync/internal/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuizRepository stores the last definition fetched for each quiz so that an
// attempt can be started while offline.
type QuizRepository interface {
	Upsert(quizID uint, definition datatypes.JSON) error
	FindByQuizID(quizID uint) (*model.CachedQuiz, error)
}

type quizRepository struct {
	db *gorm.DB
}

func NewQuizRepository(db *gorm.DB) QuizRepository {
	return &quizRepository{db: db}
}

func (r *quizRepository) Upsert(quizID uint, definition datatypes.JSON) error {
	cached := model.CachedQuiz{
		QuizID:     quizID,
		Definition: definition,
		FetchedAt:  time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quiz_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"definition", "fetched_at", "updated_at"}),
	}).Create(&cached).Error
}

func (r *quizRepository) FindByQuizID(quizID uint) (*model.CachedQuiz, error) {
	var cached model.CachedQuiz
	if err := r.db.First(&cached, "quiz_id = ?", quizID).Error; err != nil {
		return nil, err
	}
	return &cached, nil
}
