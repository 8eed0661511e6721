package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "data", "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func columnsOf(t *testing.T, db *sqlx.DB, table string) []string {
	t.Helper()
	var cols []string
	require.NoError(t, db.Select(&cols, "SELECT name FROM pragma_table_info(?)", table))
	return cols
}

func TestNew_EnablesForeignKeys(t *testing.T) {
	db := openTestDB(t)

	var fk int
	require.NoError(t, db.Get(&fk, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, fk)
}

func TestEnsureSchema_FreshDatabase(t *testing.T) {
	db := openTestDB(t)

	report, err := EnsureSchema(context.Background(), db)
	require.NoError(t, err)

	assert.ElementsMatch(t,
		[]string{"users", "meditation_sessions", "motivational_quotes", "community_posts", "community_comments"},
		report.TablesCreated)
	assert.Empty(t, report.ColumnsAdded)
	assert.Equal(t, len(StarterQuotes), report.QuotesSeeded)

	var quotes []string
	require.NoError(t, db.Select(&quotes, "SELECT text FROM motivational_quotes ORDER BY id"))
	assert.Equal(t, StarterQuotes, quotes)

	assert.Equal(t,
		[]string{"id", "username", "email", "password", "bio", "preferences", "created_at"},
		columnsOf(t, db, "users"))
}

func TestEnsureSchema_SecondRunWritesNothing(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	require.Greater(t, first.Writes(), 0)

	var changesBefore int
	require.NoError(t, db.Get(&changesBefore, "SELECT total_changes()"))

	second, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Writes())

	var changesAfter int
	require.NoError(t, db.Get(&changesAfter, "SELECT total_changes()"))
	assert.Equal(t, changesBefore, changesAfter)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM motivational_quotes"))
	assert.Equal(t, len(StarterQuotes), count)
}

func TestEnsureSchema_AddsMissingUserColumns(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	// Shape of the users table before bio and preferences existed.
	_, err := db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users (username, email, password) VALUES ('old', 'old@example.com', 'hash')")
	require.NoError(t, err)

	report, err := EnsureSchema(ctx, db)
	require.NoError(t, err)

	assert.Equal(t, []string{"users.bio", "users.preferences"}, report.ColumnsAdded)
	assert.NotContains(t, report.TablesCreated, "users")
	assert.Contains(t, columnsOf(t, db, "users"), "bio")
	assert.Contains(t, columnsOf(t, db, "users"), "preferences")

	var row struct {
		Username string  `db:"username"`
		Bio      string  `db:"bio"`
		Prefs    *string `db:"preferences"`
	}
	require.NoError(t, db.Get(&row, "SELECT username, bio, preferences FROM users WHERE email = 'old@example.com'"))
	assert.Equal(t, "old", row.Username)
	assert.Equal(t, "", row.Bio)
	assert.Nil(t, row.Prefs)

	again, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Writes())
}

func TestEnsureSchema_MigratesPopulatedLegacyTables(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec("CREATE TABLE meditation_sessions (id INTEGER PRIMARY KEY AUTOINCREMENT, user_id INTEGER NOT NULL, duration REAL NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO meditation_sessions (user_id, duration) VALUES (1, 12.5)")
	require.NoError(t, err)

	_, err = db.Exec("CREATE TABLE community_posts (id INTEGER PRIMARY KEY AUTOINCREMENT, content TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO community_posts (content) VALUES ('hello')")
	require.NoError(t, err)

	report, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"meditation_sessions.type",
		"meditation_sessions.notes",
		"meditation_sessions.date",
		"community_posts.user_id",
		"community_posts.likes_count",
		"community_posts.created_at",
	}, report.ColumnsAdded)

	var session struct {
		Duration float64   `db:"duration"`
		Type     *string   `db:"type"`
		Date     time.Time `db:"date"`
	}
	require.NoError(t, db.Get(&session, "SELECT duration, type, date FROM meditation_sessions"))
	assert.Equal(t, 12.5, session.Duration)
	assert.Nil(t, session.Type)
	assert.False(t, session.Date.IsZero())

	var post struct {
		UserID    int64     `db:"user_id"`
		Likes     int64     `db:"likes_count"`
		CreatedAt time.Time `db:"created_at"`
	}
	require.NoError(t, db.Get(&post, "SELECT user_id, likes_count, created_at FROM community_posts"))
	assert.Equal(t, int64(0), post.UserID)
	assert.Equal(t, int64(0), post.Likes)
	assert.False(t, post.CreatedAt.IsZero())

	again, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Writes())
}

func TestEnsureSchema_MissingPrimaryKeyIsReported(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec("CREATE TABLE motivational_quotes (text TEXT NOT NULL)")
	require.NoError(t, err)

	_, err = EnsureSchema(context.Background(), db)
	assert.ErrorContains(t, err, "motivational_quotes.id cannot be added")
}

func TestEnsureSchema_KeepsExistingQuotes(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Exec("CREATE TABLE motivational_quotes (id INTEGER PRIMARY KEY AUTOINCREMENT, text TEXT NOT NULL)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO motivational_quotes (text) VALUES ('Just breathe.')")
	require.NoError(t, err)

	report, err := EnsureSchema(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 0, report.QuotesSeeded)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM motivational_quotes"))
	assert.Equal(t, 1, count)
}
