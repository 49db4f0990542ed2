package repository

import (
	"context"
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type AssessmentRepository struct {
	DB *gorm.DB
}

func NewAssessmentRepository(db *gorm.DB) *AssessmentRepository {
	return &AssessmentRepository{DB: db}
}

// Create stores the assessment together with its questions.
func (r *AssessmentRepository) Create(ctx context.Context, assessment *model.Assessment) error {
	return r.DB.WithContext(ctx).Create(assessment).Error
}

func (r *AssessmentRepository) FindByIDWithQuestions(ctx context.Context, id uint) (*model.Assessment, error) {
	var a model.Assessment
	err := r.DB.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		}).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}
