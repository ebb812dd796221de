package dto

import "time"

// Wire types of the platform backend REST surface.

type StartAttemptRequest struct {
	QuizID uint `json:"quizId"`
}

type StartAttemptResponse struct {
	AttemptID int64 `json:"attemptId"`
}

type SubmitAnswerRequest struct {
	AttemptID         int64  `json:"attemptId"`
	QuestionID        uint   `json:"questionId"`
	SelectedOptionIDs []uint `json:"selectedOptionId"`
}

type CompleteAttemptRequest struct {
	AttemptID int64 `json:"attemptId"`
}

type CompleteAttemptResponse struct {
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correctAnswers"`
	TotalQuestions int  `json:"totalQuestions"`
	Passed         bool `json:"passed"`
}

// ProgressAnswer is one answered question on the legacy progress path.
type ProgressAnswer struct {
	QuestionID        uint   `json:"questionId"`
	SelectedOptionIDs []uint `json:"selectedOptionId"`
}

// UserProgressRequest is the body of PATCH /user-progress and the payload of
// the offlineQuizUpdates lane.
type UserProgressRequest struct {
	QuizID      uint             `json:"quizId"`
	Score       int              `json:"score"`
	Answers     []ProgressAnswer `json:"answers"`
	CompletedAt time.Time        `json:"completedAt"`
}

type UserProgressResponse struct {
	ID          uint       `json:"id"`
	UserID      string     `json:"userId"`
	QuizID      uint       `json:"quizId"`
	Score       int        `json:"score"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// AttemptStateResponse is the server-side view of an attempt, used to merge
// answers when a start call conflicts with an attempt that is already open.
type AttemptStateResponse struct {
	AttemptID int64           `json:"attemptId"`
	QuizID    uint            `json:"quizId"`
	Status    string          `json:"status"`
	Answers   map[uint][]uint `json:"answers"`
	Score     *int            `json:"score,omitempty"`
	Passed    *bool           `json:"passed,omitempty"`
}

// ConflictResponse is returned with 409 by the start endpoint.
type ConflictResponse struct {
	AttemptID int64  `json:"attemptId"`
	Message   string `json:"message"`
}

type BackendOption struct {
	ID         uint   `json:"id"`
	QuestionID uint   `json:"questionId"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"isCorrect"`
}

type BackendQuestion struct {
	ID          uint            `json:"id"`
	Text        string          `json:"text"`
	Type        string          `json:"type"`
	Explanation *string         `json:"explanation,omitempty"`
	Options     []BackendOption `json:"options"`
}

type BackendQuiz struct {
	ID           uint              `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	PassingScore *int              `json:"passingScore,omitempty"`
	Questions    []BackendQuestion `json:"questions"`
}
