package service

import (
	"errors"
	"fmt"
)

var (
	ErrAttemptNotFound    = errors.New("attempt not found")
	ErrAttemptAlreadyOpen = errors.New("an attempt for this quiz is already open")
	ErrReviewUnavailable  = errors.New("review is only available once the attempt is completed")
	ErrQuizNotFound       = errors.New("quiz not found")
	ErrQuizUnavailable    = errors.New("quiz definition unavailable offline")
	ErrQueueEntryNotFound = errors.New("queue entry not found")
)

// AttemptOpenError names the attempt that blocks a new start.
type AttemptOpenError struct {
	AttemptID int64
}

func (e *AttemptOpenError) Error() string {
	return fmt.Sprintf("attempt %d for this quiz is still open", e.AttemptID)
}

func (e *AttemptOpenError) Is(target error) bool {
	return target == ErrAttemptAlreadyOpen
}
