package database

import (
	"fmt"
	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Database connection established", zap.String("host", cfg.Host), zap.String("db", cfg.DBName))
	return db, nil
}

func logLevel(name string) gormlogger.LogLevel {
	switch name {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// Models lists every table owned by the attempt engine, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Level{},
		&model.User{},
		&model.Assessment{},
		&model.AssessmentQuestion{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.LevelPromotion{},
	}
}

// Migrate creates or updates the schema and seeds the CEFR level ladder when it is empty.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}
	logger.Log.Info("Database migration completed")

	return SeedLevels(db)
}

func SeedLevels(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Level{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	levels := model.DefaultLevels()
	if err := db.Create(&levels).Error; err != nil {
		return err
	}
	logger.Log.Info("Seeded default levels", zap.Int("count", len(levels)))
	return nil
}
