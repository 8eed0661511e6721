package models

import "time"

// MeditationSession is a completed practice record.
type MeditationSession struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"userId" db:"user_id"`
	DurationMinutes float64   `json:"duration" db:"duration"`
	Type            *string   `json:"type" db:"type"`
	Notes           *string   `json:"notes" db:"notes"`
	RecordedAt      time.Time `json:"date" db:"date"`
}

// MeditationSummary aggregates a user's sessions for the dashboard.
type MeditationSummary struct {
	TotalSessions    int     `json:"totalSessions" db:"total_sessions"`
	TotalMinutes     float64 `json:"totalMinutes" db:"total_minutes"`
	AverageMinutes   float64 `json:"averageMinutes" db:"average_minutes"`
	TodayMinutes     float64 `json:"todayMinutes" db:"today_minutes"`
	DailyGoalMinutes int     `json:"dailyGoalMinutes" db:"-"`
	GoalReached      bool    `json:"goalReached" db:"-"`
}
