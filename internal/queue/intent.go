package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lshigami/quizsync/internal/dto"
)

type IntentType string

const (
	IntentStartAttempt    IntentType = "start_attempt"
	IntentSubmitAnswer    IntentType = "submit_answer"
	IntentCompleteAttempt IntentType = "complete_attempt"
	IntentRecordProgress  IntentType = "record_progress"
)

// LegacyLane holds lesson-quiz progress records that do not belong to an attempt.
const LegacyLane = "offlineQuizUpdates"

const attemptLanePrefix = "attempt:"

var ErrCorruptEntry = errors.New("queue: corrupt entry")

// AttemptLane is the lane all mutations of one attempt are appended to.
func AttemptLane(attemptID int64) string {
	return attemptLanePrefix + strconv.FormatInt(attemptID, 10)
}

// LaneAttemptID parses an attempt lane name. ok is false for the legacy lane.
func LaneAttemptID(lane string) (int64, bool) {
	if !strings.HasPrefix(lane, attemptLanePrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(lane, attemptLanePrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Intent is a mutation the backend has to see. Exactly one of the payload
// pointers matching Type is set.
type Intent struct {
	Type           IntentType
	AttemptID      int64
	IdempotencyKey string

	Start    *dto.StartAttemptRequest
	Answer   *dto.SubmitAnswerRequest
	Complete *dto.CompleteAttemptRequest
	Progress *dto.UserProgressRequest
}

func StartIntent(attemptID int64, quizID uint) Intent {
	return Intent{Type: IntentStartAttempt, AttemptID: attemptID, Start: &dto.StartAttemptRequest{QuizID: quizID}}
}

func AnswerIntent(attemptID int64, questionID uint, optionIDs []uint) Intent {
	return Intent{
		Type:      IntentSubmitAnswer,
		AttemptID: attemptID,
		Answer: &dto.SubmitAnswerRequest{
			AttemptID:         attemptID,
			QuestionID:        questionID,
			SelectedOptionIDs: append([]uint{}, optionIDs...),
		},
	}
}

func CompleteIntent(attemptID int64) Intent {
	return Intent{Type: IntentCompleteAttempt, AttemptID: attemptID, Complete: &dto.CompleteAttemptRequest{AttemptID: attemptID}}
}

func ProgressIntent(progress dto.UserProgressRequest) Intent {
	return Intent{Type: IntentRecordProgress, Progress: &progress}
}

func (i Intent) Lane() string {
	if i.Type == IntentRecordProgress {
		return LegacyLane
	}
	return AttemptLane(i.AttemptID)
}

// CoalesceKey identifies entries that a newer intent supersedes within a lane.
func (i Intent) CoalesceKey() string {
	switch i.Type {
	case IntentStartAttempt:
		return "start"
	case IntentCompleteAttempt:
		return "complete"
	case IntentSubmitAnswer:
		if i.Answer != nil {
			return fmt.Sprintf("answer:%d", i.Answer.QuestionID)
		}
	case IntentRecordProgress:
		if i.Progress != nil {
			return fmt.Sprintf("progress:%d", i.Progress.QuizID)
		}
	}
	return ""
}

// Validate checks that the payload matching Type is present.
func (i Intent) Validate() error {
	_, err := i.payload()
	return err
}

func (i Intent) payload() (interface{}, error) {
	missing := fmt.Errorf("intent %s has no payload", i.Type)
	switch i.Type {
	case IntentStartAttempt:
		if i.Start == nil {
			return nil, missing
		}
		return i.Start, nil
	case IntentSubmitAnswer:
		if i.Answer == nil {
			return nil, missing
		}
		return i.Answer, nil
	case IntentCompleteAttempt:
		if i.Complete == nil {
			return nil, missing
		}
		return i.Complete, nil
	case IntentRecordProgress:
		if i.Progress == nil {
			return nil, missing
		}
		return i.Progress, nil
	}
	return nil, fmt.Errorf("unknown intent type %q", i.Type)
}

// Entry is a persisted intent.
type Entry struct {
	Lane           string          `json:"lane"`
	SequenceNumber uint64          `json:"sequenceNumber"`
	IntentType     IntentType      `json:"intentType"`
	CoalesceKey    string          `json:"coalesceKey,omitempty"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// Intent decodes the entry payload. It fails with ErrCorruptEntry when the
// stored record cannot be turned back into an intent.
func (e Entry) Intent() (Intent, error) {
	intent := Intent{Type: e.IntentType, IdempotencyKey: e.IdempotencyKey}
	if attemptID, ok := LaneAttemptID(e.Lane); ok {
		intent.AttemptID = attemptID
	}

	var err error
	switch e.IntentType {
	case IntentStartAttempt:
		intent.Start = &dto.StartAttemptRequest{}
		err = json.Unmarshal(e.Payload, intent.Start)
	case IntentSubmitAnswer:
		intent.Answer = &dto.SubmitAnswerRequest{}
		err = json.Unmarshal(e.Payload, intent.Answer)
		if err == nil {
			intent.Answer.AttemptID = intent.AttemptID
		}
	case IntentCompleteAttempt:
		intent.Complete = &dto.CompleteAttemptRequest{}
		err = json.Unmarshal(e.Payload, intent.Complete)
		if err == nil {
			intent.Complete.AttemptID = intent.AttemptID
		}
	case IntentRecordProgress:
		intent.Progress = &dto.UserProgressRequest{}
		err = json.Unmarshal(e.Payload, intent.Progress)
	default:
		return Intent{}, fmt.Errorf("%w: unknown intent type %q", ErrCorruptEntry, e.IntentType)
	}
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %s #%d: %v", ErrCorruptEntry, e.Lane, e.SequenceNumber, err)
	}
	return intent, nil
}
