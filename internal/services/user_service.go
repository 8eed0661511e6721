package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// bcrypt ignores everything past 72 bytes.
const maxPasswordBytes = 72

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, username, bio string, prefs models.PreferencesPatch) (models.User, error)
	NextReminder(ctx context.Context, id int64, now time.Time) (models.Reminder, error)
}

// UserService owns the users table and the password hashes in it.
type UserService struct {
	db         *sqlx.DB
	bcryptCost int
	dummyHash  []byte
	loc        *time.Location
}

type userRow struct {
	ID          int64          `db:"id"`
	Username    string         `db:"username"`
	Email       string         `db:"email"`
	Password    string         `db:"password"`
	Bio         sql.NullString `db:"bio"`
	Preferences sql.NullString `db:"preferences"`
	CreatedAt   time.Time      `db:"created_at"`
}

const selectUser = `SELECT id, username, email, password, bio, preferences, created_at FROM users`

// NewUserService creates a new UserService. loc is the zone reminder
// times are interpreted in.
func NewUserService(db *sqlx.DB, bcryptCost int, loc *time.Location) (*UserService, error) {
	// Compared against when an email is unknown, so both failure paths cost
	// one bcrypt comparison.
	dummy, err := bcrypt.GenerateFromPassword([]byte("slow-mind-dummy-password"), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &UserService{db: db, bcryptCost: bcryptCost, dummyHash: dummy, loc: loc}, nil
}

// NormalizeEmail trims and case-folds an email address. Emails are stored
// and compared in this form.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// Register creates a new user, hashing their password.
func (s *UserService) Register(ctx context.Context, username, email, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = NormalizeEmail(email)

	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username, email, and password are required", ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return models.User{}, fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	if len(password) > maxPasswordBytes {
		return models.User{}, fmt.Errorf("%w: password must not exceed %d bytes", ErrInvalidInput, maxPasswordBytes)
	}

	var existing int
	if err := s.db.GetContext(ctx, &existing,
		"SELECT COUNT(*) FROM users WHERE email = ? OR lower(email) = ?", email, email); err != nil {
		return models.User{}, storageErr("check existing email", err)
	}
	if existing > 0 {
		return models.User{}, ErrDuplicateIdentity
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Preferences:  models.DefaultPreferences(),
		CreatedAt:    time.Now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password, bio, preferences, created_at) VALUES (?, ?, ?, '', ?, ?)",
		user.Username, user.Email, user.PasswordHash, user.Preferences.Encode(), user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, ErrDuplicateIdentity
		}
		return models.User{}, storageErr("insert user", err)
	}

	if user.ID, err = res.LastInsertId(); err != nil {
		return models.User{}, storageErr("read user id", err)
	}

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Authenticate verifies a user's credentials. An unknown email and a wrong
// password both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	email = NormalizeEmail(email)

	var row userRow
	err := s.db.GetContext(ctx, &row, selectUser+" WHERE email = ? OR lower(email) = ? LIMIT 1", email, email)
	if errors.Is(err, sql.ErrNoRows) {
		bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, storageErr("query user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.Password), []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}

	return row.toModel(), nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, selectUser+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, storageErr("query user by id", err)
	}
	return row.toModel(), nil
}

// UpdateProfile replaces the username, bio and preferences of a user. The
// preferences patch is applied over the defaults, not over the stored
// document.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, username, bio string, patch models.PreferencesPatch) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.User{}, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}

	prefs := models.DefaultPreferences().Apply(patch)
	if err := prefs.Validate(); err != nil {
		return models.User{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = ?, bio = ?, preferences = ? WHERE id = ?",
		username, bio, prefs.Encode(), id)
	if err != nil {
		return models.User{}, storageErr("update user", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return models.User{}, storageErr("update user", err)
	} else if n == 0 {
		return models.User{}, ErrUserNotFound
	}

	return s.GetUserByID(ctx, id)
}

// NextReminder returns the user's reminder time and the first instant after
// now at which it fires.
func (s *UserService) NextReminder(ctx context.Context, id int64, now time.Time) (models.Reminder, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.Reminder{}, err
	}

	reminderTime := user.Preferences.ReminderTime
	hour, minute, err := user.Preferences.ReminderClock()
	if err != nil {
		// Stored before validation existed; fall back to the default time.
		reminderTime = models.DefaultPreferences().ReminderTime
		hour, minute, _ = models.DefaultPreferences().ReminderClock()
	}

	schedule, err := dailyAt(s.loc, hour, minute)
	if err != nil {
		return models.Reminder{}, fmt.Errorf("build reminder schedule: %w", err)
	}
	return models.Reminder{ReminderTime: reminderTime, NextAt: schedule.Next(now)}, nil
}

func (r userRow) toModel() models.User {
	prefs, ok := models.ResolvePreferences(r.Preferences)
	if !ok {
		log.Warn().Int64("user_id", r.ID).Msg("Failed to parse user preferences, using defaults")
	}
	return models.User{
		ID:          r.ID,
		Username:    r.Username,
		Email:       r.Email,
		Bio:         r.Bio.String,
		Preferences: prefs,
		CreatedAt:   r.CreatedAt,
	}
}

func isUniqueViolation(err error) bool {
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
