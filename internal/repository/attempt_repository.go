package repository

import (
	"context"
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(ctx context.Context, attempt *model.Attempt) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Create(attempt).Error
}

// FindByID answers ErrRecordNotFound for ids that could never have been issued.
func (r *AttemptRepository) FindByID(ctx context.Context, id string) (*model.Attempt, error) {
	if !model.IsUUID(id) {
		return nil, gorm.ErrRecordNotFound
	}
	var a model.Attempt
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListByStudentAndAssessment(ctx context.Context, studentID, assessmentID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("attempt_number ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListOpenTimed(ctx context.Context) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.WithContext(ctx).
		Joins("JOIN assessments ON assessments.id = attempts.assessment_id AND assessments.deleted_at IS NULL").
		Where("attempts.submitted_at IS NULL AND assessments.time_limit_seconds > 0").
		Preload("Assessment").
		Find(&attempts).Error
	return attempts, err
}

// LockSubmission reads the submission marker under a row lock held until the surrounding
// transaction ends, so it serializes with MarkSubmitted. SQLite drops the locking clause.
func (r *AttemptRepository) LockSubmission(ctx context.Context, id string) (bool, error) {
	var a model.Attempt
	if err := submissionRow(r.DB.WithContext(ctx), id).First(&a).Error; err != nil {
		return false, err
	}
	return a.IsSubmitted(), nil
}

func submissionRow(db *gorm.DB, id string) *gorm.DB {
	return db.Model(&model.Attempt{}).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		Select("id", "submitted_at").
		Where("id = ?", id)
}

// MarkSubmitted writes the terminal fields only while submitted_at is still NULL and reports whether
// this call did it.
func (r *AttemptRepository) MarkSubmitted(ctx context.Context, attempt *model.Attempt) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND submitted_at IS NULL", attempt.ID).
		Updates(map[string]interface{}{
			"status":               attempt.Status,
			"submitted_at":         attempt.SubmittedAt,
			"time_spent_seconds":   attempt.TimeSpentSeconds,
			"total_score_percent":  attempt.TotalScorePercent,
			"passed":               attempt.Passed,
			"promoted_to_level_id": attempt.PromotedToLevelID,
			"promotion_status":     attempt.PromotionStatus,
			"submit_trigger":       attempt.Trigger,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// UpsertAnswers inserts answers or overwrites the existing row for the same (attempt, question).
func (r *AttemptRepository) UpsertAnswers(ctx context.Context, answers []model.AttemptAnswer, columns ...string) error {
	if len(answers) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns(append([]string{"updated_at"}, columns...)),
	}).Create(&answers).Error
}

func (r *AttemptRepository) ListAnswers(ctx context.Context, attemptID string) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).Order("question_id ASC").Find(&answers).Error
	return answers, err
}
