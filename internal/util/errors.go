package util

import (
	"errors"
	"fmt"
)

var (
	ErrAssessmentNotFound      = errors.New("assessment not found")
	ErrAttemptNotFound         = errors.New("attempt not found")
	ErrLevelNotFound           = errors.New("level not found")
	ErrAttemptLimitExceeded    = errors.New("attempt limit exceeded")
	ErrNotAttemptOwner         = errors.New("attempt belongs to another student")
	ErrQuestionNotInAssessment = errors.New("question does not belong to this assessment")
	ErrAnswerTypeMismatch      = errors.New("answer does not match the question type")
	ErrInvalidAssessment       = errors.New("assessment definition is invalid")
	ErrPromotionFailed         = errors.New("level promotion failed")
	ErrUnsupportedMedia        = errors.New("unsupported media type")
)

// PersistenceError wraps any failure at a storage boundary. Callers may retry the operation that
// produced it: attempts are only marked submitted after a successful write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Retryable() bool {
	return true
}

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// InvalidAssessmentError names the rule an authored assessment breaks.
type InvalidAssessmentError struct {
	AssessmentID uint
	QuestionID   uint
	Reason       string
}

func (e *InvalidAssessmentError) Error() string {
	if e.QuestionID > 0 {
		return fmt.Sprintf("assessment %d question %d: %s", e.AssessmentID, e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("assessment %d: %s", e.AssessmentID, e.Reason)
}

func (e *InvalidAssessmentError) Unwrap() error {
	return ErrInvalidAssessment
}
