package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"calcsync/src/database"
	"calcsync/src/model"
)

// CalculatorInputsRepository is the remote-row collaborator of the store.
// Implementations return (nil, nil) / (0, nil) when no row exists for the
// user.
type CalculatorInputsRepository interface {
	FindLatestByUser(ctx context.Context, userID uint) (*model.CalculatorInputs, error)
	FindIDByUser(ctx context.Context, userID uint) (uint, error)
	Insert(ctx context.Context, inputs *model.CalculatorInputs) error
	UpdateByID(ctx context.Context, id uint, updates map[string]interface{}) error
}

// GormCalculatorInputsRepository handles the per-user calculator_inputs rows.
type GormCalculatorInputsRepository struct {
	db *gorm.DB
}

// NewCalculatorInputsRepository creates a repository instance using MainDB.
func NewCalculatorInputsRepository() *GormCalculatorInputsRepository {
	logger.WithField("component", "GormCalculatorInputsRepository").
		Info("Creating new CalculatorInputsRepository with MainDB")

	return &GormCalculatorInputsRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *GormCalculatorInputsRepository) WithDB(db *gorm.DB) *GormCalculatorInputsRepository {
	return &GormCalculatorInputsRepository{db: db}
}

// FindLatestByUser returns the most recently updated row for the user,
// or (nil, nil) when the user has none yet.
func (r *GormCalculatorInputsRepository) FindLatestByUser(
	ctx context.Context,
	userID uint,
) (*model.CalculatorInputs, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "CalculatorInputsRepository",
		"op":      "FindLatestByUser",
		"user_id": userID,
	}).Debug("Fetching latest calculator inputs for user")

	var inputs model.CalculatorInputs

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&inputs).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":    "CalculatorInputsRepository",
				"op":      "FindLatestByUser",
				"user_id": userID,
			}).Info("No calculator inputs row for user")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":    "CalculatorInputsRepository",
			"op":      "FindLatestByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed to fetch calculator inputs")

		return nil, err
	}

	return &inputs, nil
}

// FindIDByUser is the existence check used to pick the insert-or-update
// branch. Returns 0 when the user has no row.
func (r *GormCalculatorInputsRepository) FindIDByUser(
	ctx context.Context,
	userID uint,
) (uint, error) {

	logger.WithFields(map[string]interface{}{
		"repo":    "CalculatorInputsRepository",
		"op":      "FindIDByUser",
		"user_id": userID,
	}).Debug("Checking for existing calculator inputs row")

	var inputs model.CalculatorInputs

	err := r.db.WithContext(ctx).
		Select("id").
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&inputs).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":    "CalculatorInputsRepository",
			"op":      "FindIDByUser",
			"user_id": userID,
		}).WithError(err).Error("Failed existence check for calculator inputs")

		return 0, err
	}

	return inputs.ID, nil
}

// Insert creates the first row for a user. The given record will be updated
// with the generated ID.
func (r *GormCalculatorInputsRepository) Insert(
	ctx context.Context,
	inputs *model.CalculatorInputs,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "CalculatorInputsRepository",
		"op":      "Insert",
		"user_id": inputs.UserID,
		"symbol":  inputs.CryptoSymbol,
	}).Debug("Inserting calculator inputs row")

	err := r.db.WithContext(ctx).Create(inputs).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":    "CalculatorInputsRepository",
			"op":      "Insert",
			"user_id": inputs.UserID,
		}).WithError(err).Error("Failed to insert calculator inputs")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "CalculatorInputsRepository",
		"op":   "Insert",
		"id":   inputs.ID,
	}).Info("Calculator inputs row created")

	return nil
}

// UpdateByID patches only the given columns on the identified row.
// The updates map is keyed by column name.
func (r *GormCalculatorInputsRepository) UpdateByID(
	ctx context.Context,
	id uint,
	updates map[string]interface{},
) error {

	logger.WithFields(map[string]interface{}{
		"repo":    "CalculatorInputsRepository",
		"op":      "UpdateByID",
		"id":      id,
		"columns": len(updates),
	}).Debug("Updating calculator inputs row")

	err := r.db.WithContext(ctx).
		Model(&model.CalculatorInputs{}).
		Where("id = ?", id).
		Updates(updates).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "CalculatorInputsRepository",
			"op":   "UpdateByID",
			"id":   id,
		}).WithError(err).Error("Failed to update calculator inputs")

		return err
	}

	return nil
}
