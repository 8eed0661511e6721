package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/isdelr/slowmind-be/internal/database"
	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "slowmind.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = database.EnsureSchema(context.Background(), db)
	require.NoError(t, err)
	return db
}

func newTestUserService(t *testing.T, db *sqlx.DB) *UserService {
	t.Helper()
	svc, err := NewUserService(db, bcrypt.MinCost, time.UTC)
	require.NoError(t, err)
	return svc
}

func mustRegister(t *testing.T, svc *UserService, username, email string) models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), username, email, "correct horse")
	require.NoError(t, err)
	return user
}
