// Package testutil provides shared helpers for package tests.
package testutil

import (
	"fmt"
	"testing"

	"exon/internal/database"
	"exon/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDB returns an isolated in-memory database with the full schema applied.
// The connection pool is capped at one connection so concurrent test writers
// serialize instead of hitting SQLITE_BUSY.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// NewUser inserts a user with a complete random profile. Mutators run before
// the insert so tests can override any field.
func NewUser(t *testing.T, db *gorm.DB, mutate ...func(*models.User)) *models.User {
	t.Helper()

	user := &models.User{
		Wallet:     gofakeit.LetterN(44),
		Name:       gofakeit.Name(),
		Bio:        gofakeit.Sentence(8),
		Image:      gofakeit.URL(),
		Gender:     models.GenderFemale,
		LookingFor: models.GenderMale,
		Onboarded:  true,
	}
	for _, m := range mutate {
		m(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
