package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"` // Never expose this to the client
	Bio          string      `json:"bio"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Reminder is the next firing of a user's daily reminder.
type Reminder struct {
	ReminderTime string    `json:"reminderTime"`
	NextAt       time.Time `json:"nextAt"`
}
