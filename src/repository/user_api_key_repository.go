package repository

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"calcsync/src/database"
	"calcsync/src/model"
)

type GormUserAPIKeyRepository struct {
	db *gorm.DB
}

func NewUserAPIKeyRepository() *GormUserAPIKeyRepository {
	logger.WithField("component", "GormUserAPIKeyRepository").
		Info("Creating new UserAPIKeyRepository with MainDB")

	return &GormUserAPIKeyRepository{
		db: database.MainDB,
	}
}

func (r *GormUserAPIKeyRepository) WithDB(db *gorm.DB) *GormUserAPIKeyRepository {
	return &GormUserAPIKeyRepository{db: db}
}

// FindByUser lists the user's API key references, newest first.
func (r *GormUserAPIKeyRepository) FindByUser(
	ctx context.Context,
	userID uint,
) ([]model.UserAPIKey, error) {

	var keys []model.UserAPIKey

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&keys).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "UserAPIKeyRepository",
			"op":      "FindByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to list user API keys")

		return nil, err
	}

	return keys, nil
}

// Create inserts a new key reference; the ID is generated on create.
func (r *GormUserAPIKeyRepository) Create(
	ctx context.Context,
	key *model.UserAPIKey,
) error {

	err := r.db.WithContext(ctx).Create(key).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "UserAPIKeyRepository",
			"op":      "Create",
			"user_id": key.UserID,
		}).WithError(err).Error("Failed to create user API key")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo":   "UserAPIKeyRepository",
		"op":     "Create",
		"key_id": key.ID,
	}).Info("User API key created")

	return nil
}
