package model

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultPassingScore applies when a quiz does not carry its own threshold.
const DefaultPassingScore = 70

type Quiz struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	PassingScore *int       `json:"passing_score,omitempty"` // percentage
	Questions    []Question `json:"questions"`
}

// PassingThreshold returns the quiz threshold, falling back to DefaultPassingScore.
func (q *Quiz) PassingThreshold() int {
	if q.PassingScore == nil {
		return DefaultPassingScore
	}
	return *q.PassingScore
}

func (q *Quiz) QuestionByID(id uint) (*Question, bool) {
	for i := range q.Questions {
		if q.Questions[i].ID == id {
			return &q.Questions[i], true
		}
	}
	return nil, false
}

// CachedQuiz is the persisted copy of a quiz definition so that an attempt can
// be opened while the backend is unreachable.
type CachedQuiz struct {
	QuizID     uint           `gorm:"primarykey" json:"quiz_id"`
	Definition datatypes.JSON `gorm:"not null" json:"definition"`
	FetchedAt  time.Time      `json:"fetched_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
