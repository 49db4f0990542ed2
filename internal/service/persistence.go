package service

import (
	"context"
	"errors"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"

	"gorm.io/gorm"
)

// PersistenceGateway is the storage boundary of the attempt engine. repository.Gateway implements it over gorm.
// Lookups report a missing row with gorm.ErrRecordNotFound.
type PersistenceGateway interface {
	// FindAssessment loads the assessment with its questions ordered by Order.
	FindAssessment(ctx context.Context, id uint) (*model.Assessment, error)
	// ListAttempts returns the student's attempts on the assessment ordered by attempt number.
	ListAttempts(ctx context.Context, studentID, assessmentID uint) ([]model.Attempt, error)
	CreateAttempt(ctx context.Context, attempt *model.Attempt) error
	FindAttempt(ctx context.Context, id string) (*model.Attempt, error)
	// SaveDraftAnswer upserts an answer for an in-progress attempt. It reports accepted=false, and writes
	// nothing, once the attempt is submitted.
	SaveDraftAnswer(ctx context.Context, answer *model.AttemptAnswer) (accepted bool, err error)
	ListAnswers(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error)
	// FinalizeAttempt writes the graded answers and the terminal attempt fields atomically, only if the
	// attempt is still unsubmitted. finalized=false means another submission got there first.
	FinalizeAttempt(ctx context.Context, attempt *model.Attempt, answers []model.AttemptAnswer) (finalized bool, err error)
	Promoter
	FindLevel(ctx context.Context, id uint) (*model.Level, error)
	OpenTimedAttemptLister
}

// Promoter advances a student past currentLevelID. A nil level id with a nil error means there is no
// next level. Calls for the same attemptID are idempotent.
type Promoter interface {
	PromoteStudentToNextLevel(ctx context.Context, studentID, currentLevelID uint, attemptID string) (*uint, error)
}

// OpenTimedAttemptLister returns unsubmitted attempts on timed assessments with Assessment preloaded.
type OpenTimedAttemptLister interface {
	ListOpenTimedAttempts(ctx context.Context) ([]model.Attempt, error)
}

func gatewayError(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return util.NewPersistenceError(op, err)
}
