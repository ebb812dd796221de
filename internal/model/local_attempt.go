package model

import (
	"time"

	"gorm.io/datatypes"
)

type AttemptState string

const (
	AttemptStateNotStarted AttemptState = "not_started"
	AttemptStateStarting   AttemptState = "starting"
	AttemptStateInProgress AttemptState = "in_progress"
	AttemptStateSubmitting AttemptState = "submitting"
	AttemptStateCompleted  AttemptState = "completed"
	AttemptStateAborted    AttemptState = "aborted"
)

// IsOpen reports whether the state blocks a new attempt for the same quiz.
func (s AttemptState) IsOpen() bool {
	return s == AttemptStateStarting || s == AttemptStateInProgress || s == AttemptStateSubmitting
}

// AnswerMap maps a question id to the selected option ids.
type AnswerMap map[uint][]uint

// LocalAttempt is the persisted snapshot of a quiz attempt. AttemptID is the
// backend id, or a negative placeholder until the queued start is replayed.
type LocalAttempt struct {
	ID             uint           `gorm:"primarykey" json:"-"`
	AttemptID      int64          `gorm:"not null;uniqueIndex" json:"attempt_id"`
	TemporaryID    *int64         `gorm:"index" json:"temporary_id,omitempty"`
	QuizID         uint           `gorm:"not null;index:idx_user_quiz" json:"quiz_id"`
	UserID         string         `gorm:"not null;index:idx_user_quiz" json:"user_id"`
	State          AttemptState   `gorm:"not null;default:'not_started'" json:"state"`
	Answers        datatypes.JSON `json:"answers"`
	Cursor         int            `json:"cursor"`
	LocalScore     *int           `json:"local_score,omitempty"`
	LocalPassed    *bool          `json:"local_passed,omitempty"`
	ServerScore    *int           `json:"server_score,omitempty"`
	ServerPassed   *bool          `json:"server_passed,omitempty"`
	CorrectAnswers *int           `json:"correct_answers,omitempty"`
	TotalQuestions int            `json:"total_questions"`
	Optimistic     bool           `json:"optimistic"`
	StartedAt      time.Time      `json:"started_at"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}
