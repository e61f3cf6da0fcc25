package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	logger "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// entry is one key/value row of the local cache table.
type entry struct {
	Key       string `gorm:"primaryKey;size:120;column:key"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (entry) TableName() string {
	return "local_cache"
}

// SQLite is the durable local cache, one sqlite file per installation.
type SQLite struct {
	db  *gorm.DB
	pub Publisher
}

// OpenSQLite opens (and migrates) the cache file at path.
func OpenSQLite(path string, pub Publisher) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache at %s: %w", path, err)
	}

	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate local cache: %w", err)
	}

	logger.WithField("path", path).Info("[cache] local cache opened")

	return &SQLite{db: db, pub: pub}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var e entry
	err := s.db.WithContext(ctx).
		Where("key = ?", key).
		First(&e).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}

	return e.Value, true, nil
}

// Set upserts the key and fans the change out to the publisher so other
// sessions see it as a storage event.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry{Key: key, Value: value, UpdatedAt: time.Now()}).Error

	if err != nil {
		logger.WithField("key", key).WithError(err).Error("[cache] failed to write local cache")
		return err
	}

	if s.pub != nil {
		s.pub.PublishStorage(key, value)
	}

	return nil
}
