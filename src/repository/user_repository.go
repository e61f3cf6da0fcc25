package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"calcsync/src/database"
	"calcsync/src/model"
)

type GormUserRepository struct {
	db *gorm.DB
}

func NewUserRepository() *GormUserRepository {
	logger.WithField("component", "GormUserRepository").
		Info("Creating new UserRepository with MainDB")

	return &GormUserRepository{
		db: database.MainDB,
	}
}

func (r *GormUserRepository) WithDB(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByID returns (nil, nil) when the user does not exist.
func (r *GormUserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "UserRepository",
			"op":   "GetByID",
			"id":   id,
		}).WithError(err).Error("Failed to fetch user")

		return nil, err
	}

	return &user, nil
}

// GetByUsername returns (nil, nil) when the user does not exist.
func (r *GormUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User

	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "UserRepository",
			"op":       "GetByUsername",
			"username": username,
		}).WithError(err).Error("Failed to fetch user by username")

		return nil, err
	}

	return &user, nil
}
