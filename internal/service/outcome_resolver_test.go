package service

import (
	"context"
	"errors"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPromoter struct {
	next  *uint
	err   error
	calls int
	last  struct {
		studentID, levelID uint
		attemptID          string
	}
}

func (p *stubPromoter) PromoteStudentToNextLevel(_ context.Context, studentID, currentLevelID uint, attemptID string) (*uint, error) {
	p.calls++
	p.last.studentID, p.last.levelID, p.last.attemptID = studentID, currentLevelID, attemptID
	return p.next, p.err
}

func levelPtr(id uint) *uint { return &id }

func TestResolveThresholdIsInclusive(t *testing.T) {
	r := NewOutcomeResolver(&stubPromoter{}, 0)

	assert.True(t, r.Resolve(context.Background(), 60, 60, model.KindExercise, ResolveContext{}).Passed)
	assert.False(t, r.Resolve(context.Background(), 59.99, 60, model.KindExercise, ResolveContext{}).Passed)
	assert.True(t, r.Resolve(context.Background(), 0, 0, model.KindExercise, ResolveContext{}).Passed)
}

func TestResolveToleranceAbsorbsFloatNoise(t *testing.T) {
	earned, max := 2.3, 2.5
	score := 100 * earned / max // 91.99999999999999

	assert.False(t, NewOutcomeResolver(&stubPromoter{}, 0).Passed(score, 92))
	assert.True(t, NewOutcomeResolver(&stubPromoter{}, 1e-9).Passed(score, 92))
}

func TestResolveExerciseNeverPromotes(t *testing.T) {
	p := &stubPromoter{next: levelPtr(2)}
	r := NewOutcomeResolver(p, 0)

	out := r.Resolve(context.Background(), 100, 50, model.KindExercise, ResolveContext{StudentID: 1, LevelID: levelPtr(1)})

	assert.True(t, out.Passed)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, model.PromotionNone, out.PromotionStatus)
}

func TestResolveExamExactlyAtThresholdPromotes(t *testing.T) {
	p := &stubPromoter{next: levelPtr(4)}
	r := NewOutcomeResolver(p, 0)

	out := r.Resolve(context.Background(), 70, 70, model.KindFinalExam, ResolveContext{StudentID: 9, LevelID: levelPtr(3), AttemptID: "att-1"})

	assert.True(t, out.Passed)
	require.NotNil(t, out.PromotedToLevelID)
	assert.Equal(t, uint(4), *out.PromotedToLevelID)
	assert.Equal(t, model.PromotionApplied, out.PromotionStatus)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, uint(9), p.last.studentID)
	assert.Equal(t, uint(3), p.last.levelID)
	assert.Equal(t, "att-1", p.last.attemptID)
}

func TestResolveExamAtTopLevel(t *testing.T) {
	r := NewOutcomeResolver(&stubPromoter{}, 0)

	out := r.Resolve(context.Background(), 80, 70, model.KindFinalExam, ResolveContext{LevelID: levelPtr(6)})

	assert.True(t, out.Passed)
	assert.Nil(t, out.PromotedToLevelID)
	assert.Equal(t, model.PromotionTopLevel, out.PromotionStatus)
}

func TestResolvePromotionFailureKeepsPass(t *testing.T) {
	r := NewOutcomeResolver(&stubPromoter{err: errors.New("rpc down")}, 0)

	out := r.Resolve(context.Background(), 90, 70, model.KindFinalExam, ResolveContext{LevelID: levelPtr(1)})

	assert.True(t, out.Passed)
	assert.Nil(t, out.PromotedToLevelID)
	assert.Equal(t, model.PromotionFailed, out.PromotionStatus)
	assert.ErrorIs(t, out.PromotionErr, util.ErrPromotionFailed)
}

func TestResolveFailedExamSkipsPromotion(t *testing.T) {
	p := &stubPromoter{next: levelPtr(2)}
	r := NewOutcomeResolver(p, 0)

	out := r.Resolve(context.Background(), 40, 70, model.KindFinalExam, ResolveContext{LevelID: levelPtr(1)})

	assert.False(t, out.Passed)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, model.PromotionNone, out.PromotionStatus)
}

func TestResolveExamWithoutLevelIsSkipped(t *testing.T) {
	p := &stubPromoter{next: levelPtr(2)}
	r := NewOutcomeResolver(p, 0)

	out := r.Resolve(context.Background(), 100, 70, model.KindFinalExam, ResolveContext{})

	assert.True(t, out.Passed)
	assert.Equal(t, 0, p.calls)
	assert.Equal(t, model.PromotionSkipped, out.PromotionStatus)
}
