package repository

import (
	"context"
	"lingo_edu_backend/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UpdateCurrentLevel(ctx context.Context, userID, levelID uint) error {
	return r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("current_level_id", levelID).Error
}
