package database

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"thread-service/internal/config"
	"thread-service/internal/domain"
)

var (
	db   *gorm.DB
	dbMu sync.RWMutex
)

// GetDB returns the shared database handle, or nil before the connection is
// established.
func GetDB() *gorm.DB {
	dbMu.RLock()
	defer dbMu.RUnlock()
	return db
}

// SetDB replaces the shared database handle.
func SetDB(d *gorm.DB) {
	dbMu.Lock()
	defer dbMu.Unlock()
	db = d
}

// IsConnected reports whether the database is reachable.
func IsConnected() bool {
	d := GetDB()
	if d == nil {
		return false
	}
	sqlDB, err := d.DB()
	if err != nil {
		return false
	}
	return sqlDB.Ping() == nil
}

// Connect retries the connection until it succeeds or attempts run out, so
// the service survives the database coming up after it.
func Connect(cfg *config.Config, logger *zap.Logger, attempts int) (*gorm.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		d, err := NewDB(cfg)
		if err == nil {
			logger.Info("database connected", zap.Int("attempt", attempt))
			return d, nil
		}
		lastErr = err
		logger.Warn("database connection failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		time.Sleep(5 * time.Second)
	}
	return nil, lastErr
}

// NewDB opens a postgres connection, configures the pool and runs migrations.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	d, err := gorm.Open(postgres.Open(cfg.Database.URL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := d.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(d); err != nil {
		return nil, err
	}
	return d, nil
}

// Migrate creates the schema and the listing indexes.
func Migrate(d *gorm.DB) error {
	if err := d.AutoMigrate(&domain.Comment{}, &domain.CommentVote{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return createIndexes(d)
}

func createIndexes(d *gorm.DB) error {
	indexes := []string{
		// Top-level page listing: newest first per content item.
		`CREATE INDEX IF NOT EXISTS idx_comments_item_created
		 ON comments (content_item_id, created_at DESC)
		 WHERE parent_id IS NULL`,
		// Reply loading: oldest first per parent.
		`CREATE INDEX IF NOT EXISTS idx_comments_parent_created
		 ON comments (parent_id, created_at ASC)`,
	}
	for _, stmt := range indexes {
		if err := d.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
