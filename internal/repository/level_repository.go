package repository

import (
	"context"
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type LevelRepository struct {
	DB *gorm.DB
}

func NewLevelRepository(db *gorm.DB) *LevelRepository {
	return &LevelRepository{DB: db}
}

func (r *LevelRepository) FindByID(ctx context.Context, id uint) (*model.Level, error) {
	var level model.Level
	if err := r.DB.WithContext(ctx).First(&level, id).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// FindNext returns the level right above sequence, or gorm.ErrRecordNotFound at the top of the ladder.
func (r *LevelRepository) FindNext(ctx context.Context, sequence int) (*model.Level, error) {
	var level model.Level
	err := r.DB.WithContext(ctx).Where("sequence > ?", sequence).Order("sequence ASC").First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *LevelRepository) FindPromotionByAttempt(ctx context.Context, attemptID string) (*model.LevelPromotion, error) {
	var p model.LevelPromotion
	if err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *LevelRepository) CreatePromotion(ctx context.Context, p *model.LevelPromotion) error {
	return r.DB.WithContext(ctx).Create(p).Error
}
