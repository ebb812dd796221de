package repository

import (
	"errors"

	"github.com/lshigami/quizsync/internal/model"
	"gorm.io/gorm"
)

var unfinishedStates = []model.AttemptState{
	model.AttemptStateStarting,
	model.AttemptStateInProgress,
	model.AttemptStateSubmitting,
	model.AttemptStateAborted,
}

type AttemptRepository interface {
	Create(attempt *model.LocalAttempt) error
	Save(attempt *model.LocalAttempt) error
	Delete(attempt *model.LocalAttempt) error
	FindByAttemptID(attemptID int64) (*model.LocalAttempt, error)
	FindByTemporaryID(temporaryID int64) (*model.LocalAttempt, error)
	// FindUnfinished returns the latest attempt of the user on the quiz that
	// is open or aborted, or gorm.ErrRecordNotFound.
	FindUnfinished(userID string, quizID uint) (*model.LocalAttempt, error)
	NextTemporaryID() (int64, error)
	Remap(temporaryID, attemptID int64) error
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.LocalAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) Save(attempt *model.LocalAttempt) error {
	return r.db.Save(attempt).Error
}

func (r *attemptRepository) Delete(attempt *model.LocalAttempt) error {
	return r.db.Delete(attempt).Error
}

func (r *attemptRepository) FindByAttemptID(attemptID int64) (*model.LocalAttempt, error) {
	var attempt model.LocalAttempt
	if err := r.db.Where("attempt_id = ?", attemptID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByTemporaryID(temporaryID int64) (*model.LocalAttempt, error) {
	var attempt model.LocalAttempt
	if err := r.db.Where("temporary_id = ?", temporaryID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindUnfinished(userID string, quizID uint) (*model.LocalAttempt, error) {
	var attempt model.LocalAttempt
	err := r.db.Where("user_id = ? AND quiz_id = ? AND state IN ?", userID, quizID, unfinishedStates).
		Order("created_at desc").
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// NextTemporaryID hands out a negative placeholder id below every attempt id
// and every remapped placeholder on record.
func (r *attemptRepository) NextTemporaryID() (int64, error) {
	var lowest struct {
		Attempt   *int64
		Temporary *int64
	}
	err := r.db.Model(&model.LocalAttempt{}).
		Select("MIN(attempt_id) AS attempt, MIN(temporary_id) AS temporary").
		Scan(&lowest).Error
	if err != nil {
		return 0, err
	}
	next := int64(-1)
	for _, v := range []*int64{lowest.Attempt, lowest.Temporary} {
		if v != nil && *v <= next {
			next = *v - 1
		}
	}
	return next, nil
}

func (r *attemptRepository) Remap(temporaryID, attemptID int64) error {
	if temporaryID == attemptID {
		return errors.New("remap onto the same attempt id")
	}
	return r.db.Model(&model.LocalAttempt{}).
		Where("attempt_id = ?", temporaryID).
		Updates(map[string]interface{}{
			"attempt_id":   attemptID,
			"temporary_id": temporaryID,
		}).Error
}
