// Package testutil builds throwaway databases for package tests.
package testutil

import (
	"context"
	"lingo_edu_backend/internal/model"
	"lingo_edu_backend/pkg/database"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenTestDB returns a migrated, seeded SQLite database that lives for the duration of t.
func OpenTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection serializes writers the way SQLite wants
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// LevelByCode looks up a seeded level.
func LevelByCode(t testing.TB, db *gorm.DB, code string) model.Level {
	t.Helper()
	var level model.Level
	require.NoError(t, db.Where("code = ?", code).First(&level).Error)
	return level
}

func CreateStudent(t testing.TB, db *gorm.DB, email string, levelID *uint) model.User {
	t.Helper()
	u := model.User{Name: email, Email: email, Role: model.Student, CurrentLevelID: levelID}
	require.NoError(t, db.WithContext(context.Background()).Create(&u).Error)
	return u
}

// Choice builds a choice question whose options are a..d with the given keys marked correct.
func Choice(order int, qt model.QuestionType, points float64, correct ...string) model.AssessmentQuestion {
	isCorrect := make(map[string]bool, len(correct))
	for _, c := range correct {
		isCorrect[c] = true
	}
	var opts datatypes.JSONSlice[model.QuestionOption]
	for _, v := range []string{"a", "b", "c", "d"} {
		opts = append(opts, model.QuestionOption{Label: v, Value: v, IsCorrect: isCorrect[v]})
	}
	return model.AssessmentQuestion{
		Type:    qt,
		Prompt:  datatypes.NewJSONType(model.LocalizedText{"en": "Choose", "es": "Elige"}),
		Options: opts,
		Points:  points,
		Order:   order,
	}
}

func Manual(order int, qt model.QuestionType, points float64) model.AssessmentQuestion {
	return model.AssessmentQuestion{
		Type:   qt,
		Prompt: datatypes.NewJSONType(model.LocalizedText{"en": "Record yourself"}),
		Points: points,
		Order:  order,
	}
}

// CreateAssessment stores a published assessment with its questions.
func CreateAssessment(t testing.TB, db *gorm.DB, a *model.Assessment) *model.Assessment {
	t.Helper()
	a.IsPublished = true
	require.NoError(t, db.Create(a).Error)
	return a
}
