package service

import (
	"context"
	"fmt"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
)

type ResolveContext struct {
	StudentID uint
	LevelID   *uint // level the exam certifies
	AttemptID string
}

type Outcome struct {
	Passed            bool
	PromotedToLevelID *uint
	PromotionStatus   model.PromotionStatus
	// PromotionErr is set when a passed exam could not be promoted. The outcome still counts as passed.
	PromotionErr error
}

// OutcomeResolver turns a score into pass/fail and, for passed final exams, a promotion.
type OutcomeResolver struct {
	promoter  Promoter
	tolerance float64
}

func NewOutcomeResolver(promoter Promoter, tolerance float64) *OutcomeResolver {
	return &OutcomeResolver{promoter: promoter, tolerance: tolerance}
}

// Passed applies the inclusive threshold. tolerance absorbs float noise from weighted sums.
func (r *OutcomeResolver) Passed(scorePercent, passingScorePercent float64) bool {
	return scorePercent+r.tolerance >= passingScorePercent
}

func (r *OutcomeResolver) Resolve(ctx context.Context, scorePercent, passingScorePercent float64, kind model.AssessmentKind, rc ResolveContext) Outcome {
	out := Outcome{Passed: r.Passed(scorePercent, passingScorePercent)}
	if kind != model.KindFinalExam || !out.Passed {
		return out
	}

	if rc.LevelID == nil {
		out.PromotionStatus = model.PromotionSkipped
		monitoring.Promotions.WithLabelValues(string(out.PromotionStatus)).Inc()
		return out
	}

	next, err := r.promoter.PromoteStudentToNextLevel(ctx, rc.StudentID, *rc.LevelID, rc.AttemptID)
	switch {
	case err != nil:
		out.PromotionStatus = model.PromotionFailed
		out.PromotionErr = fmt.Errorf("%w: %v", util.ErrPromotionFailed, err)
		logger.Log.Warn("Level promotion failed, attempt stays passed",
			zap.String("attemptId", rc.AttemptID),
			zap.Uint("studentId", rc.StudentID),
			zap.Uint("levelId", *rc.LevelID),
			zap.Error(err))
	case next == nil:
		out.PromotionStatus = model.PromotionTopLevel
	default:
		out.PromotionStatus = model.PromotionApplied
		out.PromotedToLevelID = next
	}

	monitoring.Promotions.WithLabelValues(string(out.PromotionStatus)).Inc()
	return out
}
