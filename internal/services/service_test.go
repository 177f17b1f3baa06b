package services

import (
	"path/filepath"
	"testing"

	"github.com/directoryhq/userdir/internal/dto"
	"github.com/directoryhq/userdir/internal/media"
	"github.com/directoryhq/userdir/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *UserService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	store, err := media.NewStore(t.TempDir())
	require.NoError(t, err)
	return NewUserService(db, store)
}

type testUser struct {
	id  uuid.UUID
	seq int
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func validRequest(email, phone string) *dto.CreateUserRequest {
	return &dto.CreateUserRequest{
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         email,
		Phone:         phone,
		Age:           intPtr(30),
		DriverLicense: "D123",
	}
}
