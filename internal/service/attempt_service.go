package service

import (
	"context"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/internal/util"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"
	"lingo_edu_backend/pkg/tracing"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"k8s.io/utils/clock"
)

// AttemptPolicy holds the hot-reloadable knobs of the engine.
type AttemptPolicy struct {
	EnforceExerciseAttemptLimit bool
	PassTolerance               float64
}

func PolicyFromConfig(cfg config.AssessmentConfig) AttemptPolicy {
	return AttemptPolicy{
		EnforceExerciseAttemptLimit: cfg.EnforceExerciseAttemptLimit,
		PassTolerance:               cfg.PassTolerance,
	}
}

// AttemptView is an attempt as shown to its owner.
type AttemptView struct {
	*model.Attempt
	AssessmentKind   model.AssessmentKind  `json:"assessmentKind"`
	TimeLimitSeconds *int                  `json:"timeLimitSeconds,omitempty"`
	RemainingSeconds *int                  `json:"remainingSeconds,omitempty"`
	Resumed          bool                  `json:"resumed"`
	Answers          []model.AttemptAnswer `json:"answers,omitempty"`
}

type AttemptResult struct {
	AttemptID           string                `json:"attemptId"`
	AssessmentID        uint                  `json:"assessmentId"`
	AttemptNumber       int                   `json:"attemptNumber"`
	ScorePercent        float64               `json:"scorePercent"`
	Passed              bool                  `json:"passed"`
	PromotedToLevelID   *uint                 `json:"promotedToLevelId,omitempty"`
	PromotedToLevelName string                `json:"promotedToLevelName,omitempty"`
	PromotionStatus     model.PromotionStatus `json:"promotionStatus,omitempty"`
	Trigger             model.SubmitTrigger   `json:"trigger"`
	SubmittedAt         time.Time             `json:"submittedAt"`
	TimeSpentSeconds    int                   `json:"timeSpentSeconds"`
	PerQuestion         []QuestionScore       `json:"perQuestion"`
}

type AttemptService struct {
	gateway PersistenceGateway
	clock   clock.PassiveClock
	events  EventPublisher
	store   AnswerStore
	submits singleflight.Group

	mu       sync.RWMutex
	policy   AttemptPolicy
	resolver *OutcomeResolver
}

func NewAttemptService(gateway PersistenceGateway, clk clock.PassiveClock, events EventPublisher, policy AttemptPolicy) *AttemptService {
	s := &AttemptService{
		gateway: gateway,
		clock:   clk,
		events:  events,
	}
	s.UpdatePolicy(policy)
	return s
}

func (s *AttemptService) UpdatePolicy(policy AttemptPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
	s.resolver = NewOutcomeResolver(s.gateway, policy.PassTolerance)
}

func (s *AttemptService) current() (AttemptPolicy, *OutcomeResolver) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, s.resolver
}

// OpenAttempt returns the student's in-progress attempt on the assessment, or creates the next one.
// Creating fails with util.ErrAttemptLimitExceeded, and writes nothing, once the cap is reached.
func (s *AttemptService) OpenAttempt(ctx context.Context, studentID, assessmentID uint) (*AttemptView, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.OpenAttempt",
		attribute.Int64("student.id", int64(studentID)), attribute.Int64("assessment.id", int64(assessmentID)))
	defer span.End()

	assessment, err := s.loadAssessment(ctx, assessmentID, true)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	existing, err := s.gateway.ListAttempts(ctx, studentID, assessmentID)
	if err != nil {
		tracing.Fail(span, err, "list attempts")
		return nil, gatewayError("list attempts", err, nil)
	}

	maxNumber := 0
	for i := range existing {
		a := &existing[i]
		if !a.IsSubmitted() {
			a.Assessment = assessment
			view := s.view(a, assessment)
			view.Resumed = true
			return view, nil
		}
		if a.AttemptNumber > maxNumber {
			maxNumber = a.AttemptNumber
		}
	}

	policy, _ := s.current()
	capped := assessment.MaxAttempts != nil && (assessment.IsExam() || policy.EnforceExerciseAttemptLimit)
	if capped && len(existing) >= *assessment.MaxAttempts {
		monitoring.AttemptLimitRejections.WithLabelValues(string(assessment.Kind)).Inc()
		logger.Log.Info("Attempt limit reached",
			zap.Uint("studentId", studentID),
			zap.Uint("assessmentId", assessmentID),
			zap.Int("attempts", len(existing)),
			zap.Int("maxAttempts", *assessment.MaxAttempts))
		return nil, util.ErrAttemptLimitExceeded
	}

	attempt := &model.Attempt{
		StudentID:     studentID,
		AssessmentID:  assessmentID,
		AttemptNumber: maxNumber + 1,
		Status:        model.AttemptInProgress,
		StartedAt:     s.clock.Now(),
	}
	if err := s.gateway.CreateAttempt(ctx, attempt); err != nil {
		tracing.Fail(span, err, "create attempt")
		return nil, gatewayError("create attempt", err, nil)
	}
	attempt.Assessment = assessment

	monitoring.AttemptsOpened.WithLabelValues(string(assessment.Kind)).Inc()
	span.SetAttributes(attribute.String("attempt.id", attempt.ID), attribute.Int("attempt.number", attempt.AttemptNumber))
	logger.Log.Info("Attempt opened",
		zap.String("attemptId", attempt.ID),
		zap.Uint("studentId", studentID),
		zap.Uint("assessmentId", assessmentID),
		zap.Int("attemptNumber", attempt.AttemptNumber))

	return s.view(attempt, assessment), nil
}

// SaveAnswer stores a draft answer. Writes to a submitted or timed-out attempt are dropped and
// reported with accepted=false rather than as errors.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID string, studentID, questionID uint, value model.AnswerValue) (answer *model.AttemptAnswer, accepted bool, err error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, false, err
	}
	if attempt.IsSubmitted() {
		return nil, false, nil
	}

	assessment, err := s.loadAssessment(ctx, attempt.AssessmentID, false)
	if err != nil {
		return nil, false, err
	}
	if s.overdue(attempt, assessment) {
		return nil, false, nil
	}

	question := findQuestion(assessment, questionID)
	if question == nil {
		return nil, false, util.ErrQuestionNotInAssessment
	}
	value, err = normalizeAnswer(question, value)
	if err != nil {
		return nil, false, err
	}

	answer = &model.AttemptAnswer{
		AttemptID:    attemptID,
		QuestionID:   questionID,
		StudentID:    studentID,
		Value:        datatypes.NewJSONType(value),
		ReviewStatus: model.ReviewDraft,
	}
	accepted, err = s.gateway.SaveDraftAnswer(ctx, answer)
	if err != nil {
		return nil, false, gatewayError("save answer", err, util.ErrAttemptNotFound)
	}
	if !accepted {
		return nil, false, nil
	}
	return answer, true, nil
}

// SubmitAttempt grades and finalizes the attempt. answers override the stored drafts per question;
// nil submits the drafts as they are. Submitting a finalized attempt returns the stored result.
func (s *AttemptService) SubmitAttempt(ctx context.Context, attemptID string, studentID uint, answers map[uint]model.AnswerValue, trigger model.SubmitTrigger) (*AttemptResult, error) {
	if _, err := s.ownedAttempt(ctx, attemptID, studentID); err != nil {
		return nil, err
	}

	// concurrent submits of one attempt share a single grading pass
	v, err, shared := s.submits.Do(attemptID, func() (interface{}, error) {
		return s.submit(ctx, attemptID, answers, trigger)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Log.Debug("Joined in-flight submission", zap.String("attemptId", attemptID))
	}
	return v.(*AttemptResult), nil
}

func (s *AttemptService) submit(ctx context.Context, attemptID string, explicit map[uint]model.AnswerValue, trigger model.SubmitTrigger) (*AttemptResult, error) {
	ctx, span := tracing.Start(ctx, "AttemptService.SubmitAttempt",
		attribute.String("attempt.id", attemptID), attribute.String("attempt.trigger", string(trigger)))
	defer span.End()

	attempt, err := s.gateway.FindAttempt(ctx, attemptID)
	if err != nil {
		span.RecordError(err)
		return nil, gatewayError("find attempt", err, util.ErrAttemptNotFound)
	}
	assessment, err := s.loadAssessment(ctx, attempt.AssessmentID, false)
	if err != nil {
		return nil, err
	}
	if attempt.IsSubmitted() {
		return s.storedResult(ctx, attempt, assessment)
	}

	// past the deadline only what was saved in time counts, whoever submits
	if s.overdue(attempt, assessment) {
		if len(explicit) > 0 || trigger != model.TriggerTimer {
			logger.Log.Info("Submission after time limit, grading saved answers only",
				zap.String("attemptId", attempt.ID),
				zap.Int("ignoredAnswers", len(explicit)))
		}
		explicit = nil
		trigger = model.TriggerTimer
	}

	drafts, err := s.gateway.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, gatewayError("list answers", err, nil)
	}
	collected := make(map[uint]model.AnswerValue, len(assessment.Questions))
	for _, d := range drafts {
		collected[d.QuestionID] = d.Value.Data()
	}
	for qid, v := range explicit {
		q := findQuestion(assessment, qid)
		if q == nil {
			return nil, util.ErrQuestionNotInAssessment
		}
		if collected[qid], err = normalizeAnswer(q, v); err != nil {
			return nil, err
		}
	}

	sheet := Score(assessment.Questions, collected)

	_, resolver := s.current()
	outcome := resolver.Resolve(ctx, sheet.TotalScorePercent, assessment.PassingScorePercent, assessment.Kind, ResolveContext{
		StudentID: attempt.StudentID,
		LevelID:   assessment.LevelID,
		AttemptID: attempt.ID,
	})
	if outcome.PromotionErr != nil {
		span.RecordError(outcome.PromotionErr)
	}

	now := s.clock.Now()
	timeSpent := int(now.Sub(attempt.StartedAt) / time.Second)
	attempt.Status = model.AttemptSubmitted
	attempt.SubmittedAt = &now
	attempt.TimeSpentSeconds = &timeSpent
	attempt.TotalScorePercent = &sheet.TotalScorePercent
	attempt.Passed = &outcome.Passed
	attempt.PromotedToLevelID = outcome.PromotedToLevelID
	attempt.PromotionStatus = outcome.PromotionStatus
	attempt.Trigger = trigger

	rows := make([]model.AttemptAnswer, 0, len(sheet.Ordered))
	for _, qs := range sheet.Ordered {
		row := model.AttemptAnswer{
			AttemptID:  attempt.ID,
			QuestionID: qs.QuestionID,
			StudentID:  attempt.StudentID,
			Value:      datatypes.NewJSONType(collected[qs.QuestionID]),
		}
		if qs.IsCorrect != nil {
			earned := qs.Earned
			row.IsCorrect = qs.IsCorrect
			row.Earned = &earned
			row.Score = &earned
			row.ReviewStatus = model.ReviewAutoGraded
		} else {
			row.ReviewStatus = model.ReviewPendingReview
		}
		rows = append(rows, row)
	}

	finalized, err := s.gateway.FinalizeAttempt(ctx, attempt, rows)
	if err != nil {
		tracing.Fail(span, err, "finalize attempt")
		return nil, gatewayError("finalize attempt", err, util.ErrAttemptNotFound)
	}
	if !finalized {
		stored, err := s.gateway.FindAttempt(ctx, attemptID)
		if err != nil {
			return nil, gatewayError("find attempt", err, util.ErrAttemptNotFound)
		}
		return s.storedResult(ctx, stored, assessment)
	}

	result := &AttemptResult{
		AttemptID:         attempt.ID,
		AssessmentID:      attempt.AssessmentID,
		AttemptNumber:     attempt.AttemptNumber,
		ScorePercent:      sheet.TotalScorePercent,
		Passed:            outcome.Passed,
		PromotedToLevelID: outcome.PromotedToLevelID,
		PromotionStatus:   outcome.PromotionStatus,
		Trigger:           trigger,
		SubmittedAt:       now,
		TimeSpentSeconds:  timeSpent,
		PerQuestion:       sheet.Ordered,
	}
	result.PromotedToLevelName = s.levelName(ctx, outcome.PromotedToLevelID)

	monitoring.AttemptsSubmitted.WithLabelValues(string(assessment.Kind), string(trigger), outcomeLabel(outcome.Passed)).Inc()
	monitoring.ScorePercent.WithLabelValues(string(assessment.Kind)).Observe(sheet.TotalScorePercent)
	logger.Log.Info("Attempt submitted",
		zap.String("attemptId", attempt.ID),
		zap.Uint("studentId", attempt.StudentID),
		zap.String("trigger", string(trigger)),
		zap.Float64("scorePercent", sheet.TotalScorePercent),
		zap.Bool("passed", outcome.Passed),
		zap.String("promotion", string(outcome.PromotionStatus)))

	if s.events != nil {
		s.events.Publish(attempt.StudentID, AttemptEvent{Type: EventAttemptSubmitted, AttemptID: attempt.ID, Data: result})
	}
	return result, nil
}

// storedResult rebuilds the result of a finalized attempt from its stored rows.
func (s *AttemptService) storedResult(ctx context.Context, attempt *model.Attempt, assessment *model.Assessment) (*AttemptResult, error) {
	rows, err := s.gateway.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, gatewayError("list answers", err, nil)
	}
	byQuestion := make(map[uint]model.AttemptAnswer, len(rows))
	for _, r := range rows {
		byQuestion[r.QuestionID] = r
	}

	perQuestion := make([]QuestionScore, 0, len(assessment.Questions))
	for _, q := range Score(assessment.Questions, nil).Ordered {
		row := byQuestion[q.QuestionID]
		q.IsCorrect = row.IsCorrect
		q.Earned = 0
		if row.Earned != nil {
			q.Earned = *row.Earned
		}
		perQuestion = append(perQuestion, q)
	}

	result := &AttemptResult{
		AttemptID:         attempt.ID,
		AssessmentID:      attempt.AssessmentID,
		AttemptNumber:     attempt.AttemptNumber,
		PromotedToLevelID: attempt.PromotedToLevelID,
		PromotionStatus:   attempt.PromotionStatus,
		Trigger:           attempt.Trigger,
		PerQuestion:       perQuestion,
	}
	if attempt.TotalScorePercent != nil {
		result.ScorePercent = *attempt.TotalScorePercent
	}
	if attempt.Passed != nil {
		result.Passed = *attempt.Passed
	}
	if attempt.SubmittedAt != nil {
		result.SubmittedAt = *attempt.SubmittedAt
	}
	if attempt.TimeSpentSeconds != nil {
		result.TimeSpentSeconds = *attempt.TimeSpentSeconds
	}
	result.PromotedToLevelName = s.levelName(ctx, attempt.PromotedToLevelID)
	return result, nil
}

func (s *AttemptService) GetAttempt(ctx context.Context, attemptID string, studentID uint) (*AttemptView, error) {
	attempt, err := s.ownedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	assessment, err := s.loadAssessment(ctx, attempt.AssessmentID, false)
	if err != nil {
		return nil, err
	}
	answers, err := s.gateway.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, gatewayError("list answers", err, nil)
	}

	view := s.view(attempt, assessment)
	view.Answers = answers
	return view, nil
}

func (s *AttemptService) ListAttempts(ctx context.Context, studentID, assessmentID uint) ([]model.Attempt, error) {
	if _, err := s.loadAssessment(ctx, assessmentID, true); err != nil {
		return nil, err
	}
	attempts, err := s.gateway.ListAttempts(ctx, studentID, assessmentID)
	if err != nil {
		return nil, gatewayError("list attempts", err, nil)
	}
	return attempts, nil
}

// TimeLimit returns the assessment's time limit in seconds, 0 when untimed.
func TimeLimit(a *model.Assessment) int {
	if a == nil || !a.IsTimed() {
		return 0
	}
	return *a.TimeLimitSeconds
}

// overdue reports whether a timed attempt has used up its time limit.
func (s *AttemptService) overdue(attempt *model.Attempt, assessment *model.Assessment) bool {
	limit := TimeLimit(assessment)
	return limit > 0 && s.clock.Since(attempt.StartedAt) >= time.Duration(limit)*time.Second
}

// loadAssessment fetches and validates an assessment. Unpublished assessments are hidden from new
// attempts but stay reachable for attempts already running on them.
func (s *AttemptService) loadAssessment(ctx context.Context, id uint, requirePublished bool) (*model.Assessment, error) {
	assessment, err := s.gateway.FindAssessment(ctx, id)
	if err != nil {
		return nil, gatewayError("find assessment", err, util.ErrAssessmentNotFound)
	}
	if requirePublished && !assessment.IsPublished {
		return nil, util.ErrAssessmentNotFound
	}
	if err := ValidateAssessment(assessment); err != nil {
		return nil, err
	}
	return assessment, nil
}

func (s *AttemptService) ownedAttempt(ctx context.Context, attemptID string, studentID uint) (*model.Attempt, error) {
	attempt, err := s.gateway.FindAttempt(ctx, attemptID)
	if err != nil {
		return nil, gatewayError("find attempt", err, util.ErrAttemptNotFound)
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrNotAttemptOwner
	}
	return attempt, nil
}

func (s *AttemptService) view(attempt *model.Attempt, assessment *model.Assessment) *AttemptView {
	view := &AttemptView{
		Attempt:          attempt,
		AssessmentKind:   assessment.Kind,
		TimeLimitSeconds: assessment.TimeLimitSeconds,
	}
	if limit := TimeLimit(assessment); limit > 0 && !attempt.IsSubmitted() {
		remaining := limit - int(s.clock.Since(attempt.StartedAt)/time.Second)
		if remaining < 0 {
			remaining = 0
		}
		view.RemainingSeconds = &remaining
	}
	return view
}

func (s *AttemptService) levelName(ctx context.Context, levelID *uint) string {
	if levelID == nil {
		return ""
	}
	level, err := s.gateway.FindLevel(ctx, *levelID)
	if err != nil {
		logger.Log.Warn("Promoted level lookup failed", zap.Uint("levelId", *levelID), zap.Error(err))
		return ""
	}
	return level.Name
}

func outcomeLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "failed"
}
