package repository

import (
	"context"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/testutil"
	"lingo_edu_backend/internal/util"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var _ service.PersistenceGateway = (*Gateway)(nil)

type GatewaySuite struct {
	suite.Suite
	ctx context.Context
	db  *gorm.DB
	gw  *Gateway
}

func TestGatewaySuite(t *testing.T) {
	suite.Run(t, new(GatewaySuite))
}

func (s *GatewaySuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.OpenTestDB(s.T())
	s.gw = NewGateway(s.db)
}

func (s *GatewaySuite) exercise() *model.Assessment {
	return testutil.CreateAssessment(s.T(), s.db, &model.Assessment{
		Kind:                model.KindExercise,
		Title:               "Numbers",
		PassingScorePercent: 60,
		TimeLimitSeconds:    util.IntPtr(120),
		Questions: []model.AssessmentQuestion{
			testutil.Manual(3, model.QuestionOpenText, 1),
			testutil.Choice(1, model.QuestionMultipleChoice, 1, "a"),
			testutil.Choice(2, model.QuestionCheckbox, 2, "b", "c"),
		},
	})
}

func (s *GatewaySuite) newAttempt(studentID, assessmentID uint, number int) *model.Attempt {
	a := &model.Attempt{
		StudentID:     studentID,
		AssessmentID:  assessmentID,
		AttemptNumber: number,
		Status:        model.AttemptInProgress,
		StartedAt:     time.Now(),
	}
	s.Require().NoError(s.gw.CreateAttempt(s.ctx, a))
	return a
}

func (s *GatewaySuite) TestFindAssessmentOrdersQuestions() {
	a := s.exercise()

	got, err := s.gw.FindAssessment(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Questions, 3)
	s.Equal([]int{1, 2, 3}, []int{got.Questions[0].Order, got.Questions[1].Order, got.Questions[2].Order})
	s.Equal([]string{"b", "c"}, got.Questions[1].CorrectValues())
	s.Equal("Elige", got.Questions[0].Prompt.Data()["es"])
	s.NoError(service.ValidateAssessment(got))
}

func (s *GatewaySuite) TestMissingRowsAreNotFound() {
	_, err := s.gw.FindAssessment(s.ctx, 404)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
	_, err = s.gw.FindAttempt(s.ctx, "nope")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *GatewaySuite) TestAttemptNumberIsUniquePerStudentAndAssessment() {
	a := s.exercise()
	s.newAttempt(1, a.ID, 1)
	s.newAttempt(2, a.ID, 1)

	dup := &model.Attempt{StudentID: 1, AssessmentID: a.ID, AttemptNumber: 1, StartedAt: time.Now()}
	s.Error(s.gw.CreateAttempt(s.ctx, dup))

	attempts, err := s.gw.ListAttempts(s.ctx, 1, a.ID)
	s.Require().NoError(err)
	s.Len(attempts, 1)
	s.Len(attempts[0].ID, 36)
}

func (s *GatewaySuite) TestDraftAnswersOverwriteUntilSubmitted() {
	a := s.exercise()
	att := s.newAttempt(1, a.ID, 1)
	q := a.Questions[1].ID

	for _, v := range []string{"b", "a"} {
		ok, err := s.gw.SaveDraftAnswer(s.ctx, &model.AttemptAnswer{
			AttemptID: att.ID, QuestionID: q, StudentID: 1,
			Value: datatypes.NewJSONType(model.AnswerValue{Selected: v}), ReviewStatus: model.ReviewDraft,
		})
		s.Require().NoError(err)
		s.True(ok)
	}

	answers, err := s.gw.ListAnswers(s.ctx, att.ID)
	s.Require().NoError(err)
	s.Require().Len(answers, 1)
	s.Equal("a", answers[0].Value.Data().Selected)

	now := time.Now()
	att.Status = model.AttemptSubmitted
	att.SubmittedAt = &now
	ok, err := s.gw.FinalizeAttempt(s.ctx, att, nil)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.gw.SaveDraftAnswer(s.ctx, &model.AttemptAnswer{
		AttemptID: att.ID, QuestionID: q, StudentID: 1,
		Value: datatypes.NewJSONType(model.AnswerValue{Selected: "d"}), ReviewStatus: model.ReviewDraft,
	})
	s.Require().NoError(err)
	s.False(ok)

	answers, err = s.gw.ListAnswers(s.ctx, att.ID)
	s.Require().NoError(err)
	s.Equal("a", answers[0].Value.Data().Selected)
}

func (s *GatewaySuite) TestFinalizeOnlyOnce() {
	a := s.exercise()
	att := s.newAttempt(1, a.ID, 1)

	now := time.Now()
	score := 50.0
	att.Status = model.AttemptSubmitted
	att.SubmittedAt = &now
	att.TotalScorePercent = &score
	att.Passed = util.BoolPtr(false)
	att.Trigger = model.TriggerTimer

	correct := true
	earned := 1.0
	rows := []model.AttemptAnswer{
		{AttemptID: att.ID, QuestionID: a.Questions[1].ID, StudentID: 1, Value: datatypes.NewJSONType(model.AnswerValue{Selected: "a"}),
			IsCorrect: &correct, Earned: &earned, Score: &earned, ReviewStatus: model.ReviewAutoGraded},
		{AttemptID: att.ID, QuestionID: a.Questions[0].ID, StudentID: 1, ReviewStatus: model.ReviewPendingReview},
	}

	ok, err := s.gw.FinalizeAttempt(s.ctx, att, rows)
	s.Require().NoError(err)
	s.True(ok)

	later := now.Add(time.Minute)
	att.SubmittedAt = &later
	att.Trigger = model.TriggerManual
	ok, err = s.gw.FinalizeAttempt(s.ctx, att, rows[:1])
	s.Require().NoError(err)
	s.False(ok)

	stored, err := s.gw.FindAttempt(s.ctx, att.ID)
	s.Require().NoError(err)
	s.Equal(model.AttemptSubmitted, stored.Status)
	s.Equal(model.TriggerTimer, stored.Trigger)
	s.Require().NotNil(stored.TotalScorePercent)
	s.InDelta(50.0, *stored.TotalScorePercent, 1e-9)

	answers, err := s.gw.ListAnswers(s.ctx, att.ID)
	s.Require().NoError(err)
	s.Require().Len(answers, 2)
	for _, ans := range answers {
		if ans.QuestionID == a.Questions[0].ID {
			s.Equal(model.ReviewPendingReview, ans.ReviewStatus)
			s.Nil(ans.IsCorrect)
			s.Nil(ans.Score)
		} else {
			s.Equal(model.ReviewAutoGraded, ans.ReviewStatus)
			s.Require().NotNil(ans.IsCorrect)
			s.True(*ans.IsCorrect)
		}
	}
}

func (s *GatewaySuite) TestLateDraftLeavesGradedAnswer() {
	a := s.exercise()
	att := s.newAttempt(1, a.ID, 1)
	q := a.Questions[1].ID

	now := time.Now()
	att.Status = model.AttemptSubmitted
	att.SubmittedAt = &now
	correct := true
	earned := 1.0
	ok, err := s.gw.FinalizeAttempt(s.ctx, att, []model.AttemptAnswer{
		{AttemptID: att.ID, QuestionID: q, StudentID: 1, Value: datatypes.NewJSONType(model.AnswerValue{Selected: "a"}),
			IsCorrect: &correct, Earned: &earned, Score: &earned, ReviewStatus: model.ReviewAutoGraded},
	})
	s.Require().NoError(err)
	s.Require().True(ok)

	ok, err = s.gw.SaveDraftAnswer(s.ctx, &model.AttemptAnswer{
		AttemptID: att.ID, QuestionID: q, StudentID: 1,
		Value: datatypes.NewJSONType(model.AnswerValue{Selected: "c"}), ReviewStatus: model.ReviewDraft,
	})
	s.Require().NoError(err)
	s.False(ok)

	answers, err := s.gw.ListAnswers(s.ctx, att.ID)
	s.Require().NoError(err)
	s.Require().Len(answers, 1)
	s.Equal("a", answers[0].Value.Data().Selected)
	s.Equal(model.ReviewAutoGraded, answers[0].ReviewStatus)
	s.Require().NotNil(answers[0].IsCorrect)
	s.True(*answers[0].IsCorrect)
}

func (s *GatewaySuite) TestPromotionAdvancesAndIsIdempotent() {
	a1 := testutil.LevelByCode(s.T(), s.db, "A1")
	a2 := testutil.LevelByCode(s.T(), s.db, "A2")
	student := testutil.CreateStudent(s.T(), s.db, "ana@example.com", &a1.ID)

	next, err := s.gw.PromoteStudentToNextLevel(s.ctx, student.ID, a1.ID, "attempt-1")
	s.Require().NoError(err)
	s.Require().NotNil(next)
	s.Equal(a2.ID, *next)

	again, err := s.gw.PromoteStudentToNextLevel(s.ctx, student.ID, a1.ID, "attempt-1")
	s.Require().NoError(err)
	s.Equal(a2.ID, *again)

	user, err := s.gw.Users.FindByID(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Equal(a2.ID, *user.CurrentLevelID)

	var count int64
	s.db.Model(&model.LevelPromotion{}).Where("student_id = ?", student.ID).Count(&count)
	s.Equal(int64(1), count)
}

func (s *GatewaySuite) TestPromotionAtTopLevelReturnsNil() {
	c2 := testutil.LevelByCode(s.T(), s.db, "C2")
	student := testutil.CreateStudent(s.T(), s.db, "top@example.com", &c2.ID)

	next, err := s.gw.PromoteStudentToNextLevel(s.ctx, student.ID, c2.ID, "attempt-top")
	s.Require().NoError(err)
	s.Nil(next)
}

func (s *GatewaySuite) TestPromotionNeverDemotes() {
	a1 := testutil.LevelByCode(s.T(), s.db, "A1")
	b2 := testutil.LevelByCode(s.T(), s.db, "B2")
	student := testutil.CreateStudent(s.T(), s.db, "ahead@example.com", &b2.ID)

	_, err := s.gw.PromoteStudentToNextLevel(s.ctx, student.ID, a1.ID, "attempt-old")
	s.Require().NoError(err)

	user, err := s.gw.Users.FindByID(s.ctx, student.ID)
	s.Require().NoError(err)
	s.Equal(b2.ID, *user.CurrentLevelID)
}

func (s *GatewaySuite) TestPromotionUnknownStudentFails() {
	a1 := testutil.LevelByCode(s.T(), s.db, "A1")

	_, err := s.gw.PromoteStudentToNextLevel(s.ctx, 9999, a1.ID, "attempt-x")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *GatewaySuite) TestListOpenTimedAttempts() {
	timed := s.exercise()
	untimed := testutil.CreateAssessment(s.T(), s.db, &model.Assessment{
		Kind: model.KindExercise, Title: "Untimed", PassingScorePercent: 50,
		Questions: []model.AssessmentQuestion{testutil.Choice(1, model.QuestionMultipleChoice, 1, "a")},
	})

	open := s.newAttempt(1, timed.ID, 1)
	s.newAttempt(1, untimed.ID, 1)
	done := s.newAttempt(2, timed.ID, 1)
	now := time.Now()
	done.SubmittedAt = &now
	_, err := s.gw.FinalizeAttempt(s.ctx, done, nil)
	s.Require().NoError(err)

	attempts, err := s.gw.ListOpenTimedAttempts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(attempts, 1)
	s.Equal(open.ID, attempts[0].ID)
	s.Require().NotNil(attempts[0].Assessment)
	s.Equal(120, *attempts[0].Assessment.TimeLimitSeconds)
}
