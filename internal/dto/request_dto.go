package dto

import "time"

// SelectAnswerDTO carries the option(s) picked for one question. For
// multiple-choice questions every listed option is toggled.
type SelectAnswerDTO struct {
	OptionIDs []uint `json:"option_ids" binding:"required,min=1"`
}

// NavigationDTO moves the question cursor. Index is required for "jump".
type NavigationDTO struct {
	Action string `json:"action" binding:"required,oneof=next previous jump"`
	Index  *int   `json:"index"`
}

// ConnectivityDTO forwards the presentation layer's online/offline events.
type ConnectivityDTO struct {
	Online *bool `json:"online" binding:"required"`
}

type ProgressAnswerDTO struct {
	QuestionID        uint   `json:"question_id" binding:"required"`
	SelectedOptionIDs []uint `json:"selected_option_ids" binding:"required,min=1"`
}

// RecordProgressDTO is the legacy lesson-quiz progress record.
type RecordProgressDTO struct {
	QuizID      uint                `json:"quiz_id" binding:"required"`
	Score       int                 `json:"score" binding:"min=0,max=100"`
	Answers     []ProgressAnswerDTO `json:"answers" binding:"dive"`
	CompletedAt *time.Time          `json:"completed_at"`
}
