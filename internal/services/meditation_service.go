package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/jmoiron/sqlx"
)

// MeditationServiceProvider defines the interface for meditation services.
type MeditationServiceProvider interface {
	Record(ctx context.Context, userID int64, durationMinutes float64, sessionType, notes *string) (models.MeditationSession, error)
	ListFor(ctx context.Context, userID int64) ([]models.MeditationSession, error)
	Remove(ctx context.Context, userID, sessionID int64) (bool, error)
	Summary(ctx context.Context, userID int64) (models.MeditationSummary, error)
}

// MeditationService keeps the per-user log of completed sessions.
type MeditationService struct {
	db    *sqlx.DB
	users UserServiceProvider
	loc   *time.Location
	now   func() time.Time
}

// NewMeditationService creates a new MeditationService. users supplies the
// daily goal for summaries; loc decides where "today" starts.
func NewMeditationService(db *sqlx.DB, users UserServiceProvider, loc *time.Location) *MeditationService {
	if loc == nil {
		loc = time.UTC
	}
	return &MeditationService{db: db, users: users, loc: loc, now: time.Now}
}

// WithClock replaces the time source used for new sessions and summaries.
func (s *MeditationService) WithClock(now func() time.Time) *MeditationService {
	s.now = now
	return s
}

// Record stores a completed session for userID.
func (s *MeditationService) Record(ctx context.Context, userID int64, durationMinutes float64, sessionType, notes *string) (models.MeditationSession, error) {
	if durationMinutes <= 0 || math.IsNaN(durationMinutes) || math.IsInf(durationMinutes, 0) {
		return models.MeditationSession{}, ErrInvalidDuration
	}

	session := models.MeditationSession{
		UserID:          userID,
		DurationMinutes: durationMinutes,
		Type:            blankToNil(sessionType),
		Notes:           blankToNil(notes),
		RecordedAt:      s.now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO meditation_sessions (user_id, duration, type, notes, date) VALUES (?, ?, ?, ?, ?)",
		session.UserID, session.DurationMinutes, session.Type, session.Notes, session.RecordedAt)
	if err != nil {
		return models.MeditationSession{}, storageErr("insert session", err)
	}
	if session.ID, err = res.LastInsertId(); err != nil {
		return models.MeditationSession{}, storageErr("read session id", err)
	}
	return session, nil
}

// ListFor returns the sessions of userID, newest first.
func (s *MeditationService) ListFor(ctx context.Context, userID int64) ([]models.MeditationSession, error) {
	sessions := []models.MeditationSession{}
	err := s.db.SelectContext(ctx, &sessions, `
		SELECT id, user_id, duration, type, notes, date
		FROM meditation_sessions WHERE user_id = ?
		ORDER BY julianday(date) DESC, id DESC`, userID)
	if err != nil {
		return nil, storageErr("list sessions", err)
	}
	return sessions, nil
}

// Remove deletes a session only if it belongs to userID. It reports whether
// a row was deleted.
func (s *MeditationService) Remove(ctx context.Context, userID, sessionID int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM meditation_sessions WHERE id = ? AND user_id = ?", sessionID, userID)
	if err != nil {
		return false, storageErr("delete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("delete session", err)
	}
	return n > 0, nil
}

// Summary aggregates the sessions of userID and compares today's minutes
// with the user's daily goal.
func (s *MeditationService) Summary(ctx context.Context, userID int64) (models.MeditationSummary, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.MeditationSummary{}, err
	}

	start := dayStart(s.now(), s.loc)
	end := start.AddDate(0, 0, 1)

	var summary models.MeditationSummary
	err = s.db.GetContext(ctx, &summary, `
		SELECT
			COUNT(*) AS total_sessions,
			COALESCE(SUM(duration), 0) AS total_minutes,
			COALESCE(AVG(duration), 0) AS average_minutes,
			COALESCE(SUM(CASE WHEN julianday(date) >= julianday(?) AND julianday(date) < julianday(?) THEN duration END), 0) AS today_minutes
		FROM meditation_sessions WHERE user_id = ?`,
		start.UTC(), end.UTC(), userID)
	if err != nil {
		return models.MeditationSummary{}, storageErr("summarize sessions", err)
	}

	summary.DailyGoalMinutes = user.Preferences.DailyGoalMinutes
	summary.GoalReached = summary.TodayMinutes >= float64(summary.DailyGoalMinutes)
	return summary, nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
