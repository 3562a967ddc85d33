package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"linkpulse/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create 邮箱重复时返回 ErrDuplicateKey
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("email = ?", email))
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *UserRepository) FindByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	return firstUser(r.db.WithContext(ctx).Where("api_key = ?", apiKey))
}

func (r *UserRepository) UpdateAPIKey(ctx context.Context, id uint, apiKey string) error {
	return translateError(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("api_key", apiKey).Error)
}

func firstUser(q *gorm.DB) (*model.User, error) {
	var user model.User
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
