package repository

import (
	"context"
	"lingo_edu_backend/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Gateway is the persistence boundary of the attempt engine, built from the entity repositories.
type Gateway struct {
	DB          *gorm.DB
	Assessments *AssessmentRepository
	Attempts    *AttemptRepository
	Levels      *LevelRepository
	Users       *UserRepository
}

func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{
		DB:          db,
		Assessments: NewAssessmentRepository(db),
		Attempts:    NewAttemptRepository(db),
		Levels:      NewLevelRepository(db),
		Users:       NewUserRepository(db),
	}
}

// withTx returns a gateway whose repositories run inside tx.
func (g *Gateway) withTx(tx *gorm.DB) *Gateway {
	return &Gateway{
		DB:          tx,
		Assessments: NewAssessmentRepository(tx),
		Attempts:    NewAttemptRepository(tx),
		Levels:      NewLevelRepository(tx),
		Users:       NewUserRepository(tx),
	}
}

func (g *Gateway) FindAssessment(ctx context.Context, id uint) (*model.Assessment, error) {
	a, err := g.Assessments.FindByIDWithQuestions(ctx, id)
	return a, errors.Wrapf(err, "find assessment %d", id)
}

func (g *Gateway) ListAttempts(ctx context.Context, studentID, assessmentID uint) ([]model.Attempt, error) {
	attempts, err := g.Attempts.ListByStudentAndAssessment(ctx, studentID, assessmentID)
	return attempts, errors.Wrap(err, "list attempts")
}

func (g *Gateway) CreateAttempt(ctx context.Context, attempt *model.Attempt) error {
	return errors.Wrap(g.Attempts.Create(ctx, attempt), "create attempt")
}

func (g *Gateway) FindAttempt(ctx context.Context, id string) (*model.Attempt, error) {
	a, err := g.Attempts.FindByID(ctx, id)
	return a, errors.Wrapf(err, "find attempt %s", id)
}

func (g *Gateway) SaveDraftAnswer(ctx context.Context, answer *model.AttemptAnswer) (bool, error) {
	accepted := false
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txg := g.withTx(tx)
		submitted, err := txg.Attempts.LockSubmission(ctx, answer.AttemptID)
		if err != nil || submitted {
			return err
		}
		if err := txg.Attempts.UpsertAnswers(ctx, []model.AttemptAnswer{*answer}, "value", "review_status"); err != nil {
			return err
		}
		accepted = true
		return nil
	})
	return accepted, errors.Wrap(err, "save draft answer")
}

func (g *Gateway) ListAnswers(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error) {
	answers, err := g.Attempts.ListAnswers(ctx, attemptID)
	return answers, errors.Wrap(err, "list answers")
}

// FinalizeAttempt marks the attempt submitted and writes its graded answers in one transaction. When
// the attempt was already submitted nothing is written and finalized is false.
func (g *Gateway) FinalizeAttempt(ctx context.Context, attempt *model.Attempt, answers []model.AttemptAnswer) (bool, error) {
	finalized := false
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txg := g.withTx(tx)
		won, err := txg.Attempts.MarkSubmitted(ctx, attempt)
		if err != nil || !won {
			return err
		}
		if err := txg.Attempts.UpsertAnswers(ctx, answers, "value", "is_correct", "earned", "score", "review_status"); err != nil {
			return err
		}
		finalized = true
		return nil
	})
	return finalized, errors.Wrap(err, "finalize attempt")
}

// PromoteStudentToNextLevel moves the student to the level after currentLevelID. A repeated call for
// the same attempt returns the level recorded the first time.
func (g *Gateway) PromoteStudentToNextLevel(ctx context.Context, studentID, currentLevelID uint, attemptID string) (*uint, error) {
	var promotedTo *uint
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txg := g.withTx(tx)

		prior, err := txg.Levels.FindPromotionByAttempt(ctx, attemptID)
		if err == nil {
			promotedTo = &prior.ToLevelID
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		current, err := txg.Levels.FindByID(ctx, currentLevelID)
		if err != nil {
			return errors.Wrapf(err, "level %d", currentLevelID)
		}
		next, err := txg.Levels.FindNext(ctx, current.Sequence)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		user, err := txg.Users.FindByID(ctx, studentID)
		if err != nil {
			return errors.Wrapf(err, "student %d", studentID)
		}
		if advance, err := txg.isBelow(ctx, user.CurrentLevelID, next.Sequence); err != nil {
			return err
		} else if advance {
			if err := txg.Users.UpdateCurrentLevel(ctx, studentID, next.ID); err != nil {
				return err
			}
		}

		if err := txg.Levels.CreatePromotion(ctx, &model.LevelPromotion{
			StudentID:   studentID,
			FromLevelID: current.ID,
			ToLevelID:   next.ID,
			AttemptID:   attemptID,
		}); err != nil {
			return err
		}
		promotedTo = &next.ID
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "promote student")
	}
	return promotedTo, nil
}

// isBelow reports whether levelID sits under sequence on the ladder. A student without a level is below every level.
func (g *Gateway) isBelow(ctx context.Context, levelID *uint, sequence int) (bool, error) {
	if levelID == nil {
		return true, nil
	}
	level, err := g.Levels.FindByID(ctx, *levelID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return level.Sequence < sequence, nil
}

func (g *Gateway) FindLevel(ctx context.Context, id uint) (*model.Level, error) {
	level, err := g.Levels.FindByID(ctx, id)
	return level, errors.Wrapf(err, "find level %d", id)
}

func (g *Gateway) ListOpenTimedAttempts(ctx context.Context) ([]model.Attempt, error) {
	attempts, err := g.Attempts.ListOpenTimed(ctx)
	return attempts, errors.Wrap(err, "list open timed attempts")
}
