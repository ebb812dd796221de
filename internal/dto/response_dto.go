package dto

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

// OpenAttemptResponse names the attempt that blocks a new start.
type OpenAttemptResponse struct {
	Error     string `json:"error"`
	AttemptID int64  `json:"attempt_id"`
}

// UnansweredResponse is returned when completion is requested too early.
type UnansweredResponse struct {
	Error      string `json:"error"`
	Unanswered []uint `json:"unanswered_question_ids"`
}

type OptionViewDTO struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// QuestionViewDTO never carries correctness information.
type QuestionViewDTO struct {
	ID      uint            `json:"id"`
	Text    string          `json:"text"`
	Type    string          `json:"type"`
	Options []OptionViewDTO `json:"options"`
}

type AttemptResultDTO struct {
	AttemptID      int64  `json:"attempt_id"`
	Score          int    `json:"score"`
	CorrectAnswers int    `json:"correct_answers"`
	TotalQuestions int    `json:"total_questions"`
	Passed         bool   `json:"passed"`
	Optimistic     bool   `json:"optimistic"`
	Source         string `json:"source"` // "local" or "server"
}

type AttemptSnapshotDTO struct {
	AttemptID       int64             `json:"attempt_id"`
	QuizID          uint              `json:"quiz_id"`
	QuizTitle       string            `json:"quiz_title"`
	State           string            `json:"state"`
	Cursor          int               `json:"cursor"`
	QuestionCount   int               `json:"question_count"`
	CurrentQuestion *QuestionViewDTO  `json:"current_question,omitempty"`
	Answers         map[uint][]uint   `json:"answers"`
	Unanswered      []uint            `json:"unanswered_question_ids"`
	Result          *AttemptResultDTO `json:"result,omitempty"`
	StartedAt       time.Time         `json:"started_at"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

type OptionReviewDTO struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionReviewDTO struct {
	ID          uint              `json:"id"`
	Text        string            `json:"text"`
	Type        string            `json:"type"`
	Options     []OptionReviewDTO `json:"options"`
	Selected    []uint            `json:"selected_option_ids"`
	Correct     []uint            `json:"correct_option_ids"`
	IsCorrect   bool              `json:"is_correct"`
	Explanation *string           `json:"explanation,omitempty"`
}

type AttemptReviewDTO struct {
	AttemptID int64               `json:"attempt_id"`
	QuizID    uint                `json:"quiz_id"`
	Result    AttemptResultDTO    `json:"result"`
	Questions []QuestionReviewDTO `json:"questions"`
}

// SubmissionDTO tells the caller whether the backend confirmed the call or it
// was queued for later replay.
type SubmissionDTO struct {
	Status   string                `json:"status"` // "acked" or "queued"
	Progress *UserProgressResponse `json:"progress,omitempty"`
}

type ScoreDiscrepancyDTO struct {
	AttemptID    int64 `json:"attempt_id"`
	LocalScore   int   `json:"local_score"`
	ServerScore  int   `json:"server_score"`
	LocalPassed  bool  `json:"local_passed"`
	ServerPassed bool  `json:"server_passed"`
}

type LaneReportDTO struct {
	Lane       string `json:"lane"`
	Replayed   int    `json:"replayed"`
	Rejected   int    `json:"rejected"`
	Dropped    int    `json:"dropped"`
	Remaining  int    `json:"remaining"`
	RemappedTo int64  `json:"remapped_to,omitempty"`
	Error      string `json:"error,omitempty"`
}

type SyncReportDTO struct {
	StartedAt            time.Time             `json:"started_at"`
	FinishedAt           time.Time             `json:"finished_at"`
	Replayed             int                   `json:"replayed"`
	Rejected             int                   `json:"rejected"`
	Dropped              int                   `json:"dropped"`
	AuthenticationFailed bool                  `json:"authentication_failed"`
	Lanes                []LaneReportDTO       `json:"lanes"`
	Discrepancies        []ScoreDiscrepancyDTO `json:"discrepancies"`
}

type SyncStatusDTO struct {
	Online     bool           `json:"online"`
	Pending    int64          `json:"pending"`
	LastChange time.Time      `json:"last_change"`
	Passes     uint64         `json:"passes"`
	LastReport *SyncReportDTO `json:"last_report,omitempty"`
}
