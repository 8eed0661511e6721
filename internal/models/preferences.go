package models

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const reminderLayout = "15:04"

// Preferences is the fully materialized preference document of a user.
type Preferences struct {
	ReminderTime     string `json:"reminderTime"`
	DailyGoalMinutes int    `json:"dailyGoalMinutes"`
}

// PreferencesPatch carries the fields a client or a stored document
// actually set. Nil means "not present".
type PreferencesPatch struct {
	ReminderTime     *string `json:"reminderTime,omitempty"`
	DailyGoalMinutes *int    `json:"dailyGoalMinutes,omitempty"`

	// Written by the first release of the service.
	LegacyDailyGoal *int `json:"dailyGoal,omitempty"`
}

// UnmarshalJSON accepts the goal fields as numbers or as numeric strings,
// which is what HTML form inputs produce. A blank string counts as absent.
func (p *PreferencesPatch) UnmarshalJSON(data []byte) error {
	var raw struct {
		ReminderTime     *string         `json:"reminderTime"`
		DailyGoalMinutes json.RawMessage `json:"dailyGoalMinutes"`
		LegacyDailyGoal  json.RawMessage `json:"dailyGoal"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	goal, err := looseInt("dailyGoalMinutes", raw.DailyGoalMinutes)
	if err != nil {
		return err
	}
	legacy, err := looseInt("dailyGoal", raw.LegacyDailyGoal)
	if err != nil {
		return err
	}

	*p = PreferencesPatch{
		ReminderTime:     raw.ReminderTime,
		DailyGoalMinutes: goal,
		LegacyDailyGoal:  legacy,
	}
	return nil
}

func looseInt(field string, raw json.RawMessage) (*int, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var text string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		if text = strings.TrimSpace(text); text == "" {
			return nil, nil
		}
	} else {
		text = string(raw)
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("%s must be a whole number, got %s", field, raw)
	}
	return &n, nil
}

// DefaultPreferences returns the baseline every user starts from.
func DefaultPreferences() Preferences {
	return Preferences{
		ReminderTime:     "08:00",
		DailyGoalMinutes: 15,
	}
}

// Apply returns a copy of p with every field present in patch overriding
// the corresponding field of p.
func (p Preferences) Apply(patch PreferencesPatch) Preferences {
	if patch.ReminderTime != nil {
		p.ReminderTime = *patch.ReminderTime
	}
	switch {
	case patch.DailyGoalMinutes != nil:
		p.DailyGoalMinutes = *patch.DailyGoalMinutes
	case patch.LegacyDailyGoal != nil:
		p.DailyGoalMinutes = *patch.LegacyDailyGoal
	}
	return p
}

// Validate checks the values a client is allowed to persist.
func (p Preferences) Validate() error {
	if _, err := time.Parse(reminderLayout, p.ReminderTime); err != nil {
		return fmt.Errorf("reminderTime must be HH:MM, got %q", p.ReminderTime)
	}
	if p.DailyGoalMinutes <= 0 {
		return fmt.Errorf("dailyGoalMinutes must be positive, got %d", p.DailyGoalMinutes)
	}
	return nil
}

// ReminderClock returns the hour and minute of ReminderTime.
func (p Preferences) ReminderClock() (hour, minute int, err error) {
	t, err := time.Parse(reminderLayout, p.ReminderTime)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// Encode serializes the preferences for the users.preferences column.
func (p Preferences) Encode() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// ResolvePreferences merges a stored preference document over the defaults.
// It never fails: an absent, empty or unparseable document resolves to the
// defaults. ok is false only when a document was present but malformed, so
// the caller can log it.
func ResolvePreferences(stored sql.NullString) (prefs Preferences, ok bool) {
	prefs = DefaultPreferences()
	if !stored.Valid || strings.TrimSpace(stored.String) == "" {
		return prefs, true
	}

	var patch PreferencesPatch
	if err := json.Unmarshal([]byte(stored.String), &patch); err != nil {
		return prefs, false
	}
	return prefs.Apply(patch), true
}
