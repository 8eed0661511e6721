package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/isdelr/slowmind-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRecord_InvalidDuration(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := mustRegister(t, users, "calm", "calm@example.com")
	svc := NewMeditationService(db, users, time.UTC)

	for _, d := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		_, err := svc.Record(context.Background(), user.ID, d, nil, nil)
		assert.ErrorIs(t, err, ErrInvalidDuration, "duration %v", d)
	}

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM meditation_sessions"))
	assert.Zero(t, count)
}

func TestListFor_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := mustRegister(t, users, "calm", "calm@example.com")
	other := mustRegister(t, users, "other", "other@example.com")

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewMeditationService(db, users, time.UTC).WithClock(func() time.Time { return now })
	ctx := context.Background()

	first, err := svc.Record(ctx, user.ID, 10, ptr("breathing"), ptr("  "))
	require.NoError(t, err)
	assert.Equal(t, "breathing", *first.Type)
	assert.Nil(t, first.Notes)

	// Same timestamp: the later insert wins the tie.
	second, err := svc.Record(ctx, user.ID, 5, nil, nil)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	third, err := svc.Record(ctx, user.ID, 20.5, nil, ptr("evening"))
	require.NoError(t, err)

	_, err = svc.Record(ctx, other.ID, 99, nil, nil)
	require.NoError(t, err)

	sessions, err := svc.ListFor(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, []int64{third.ID, second.ID, first.ID}, []int64{sessions[0].ID, sessions[1].ID, sessions[2].ID})
	assert.Equal(t, 20.5, sessions[0].DurationMinutes)
	assert.Equal(t, "evening", *sessions[0].Notes)
	assert.True(t, now.Equal(sessions[0].RecordedAt), sessions[0].RecordedAt)
}

func TestRemove_OnlyOwner(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	owner := mustRegister(t, users, "owner", "owner@example.com")
	intruder := mustRegister(t, users, "intruder", "intruder@example.com")
	svc := NewMeditationService(db, users, time.UTC)
	ctx := context.Background()

	session, err := svc.Record(ctx, owner.ID, 15, nil, nil)
	require.NoError(t, err)

	removed, err := svc.Remove(ctx, intruder.ID, session.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	sessions, err := svc.ListFor(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	removed, err = svc.Remove(ctx, owner.ID, session.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = svc.Remove(ctx, owner.ID, session.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSummary(t *testing.T) {
	db := newTestDB(t)
	users := newTestUserService(t, db)
	user := mustRegister(t, users, "calm", "calm@example.com")
	ctx := context.Background()

	now := time.Date(2025, 2, 28, 22, 0, 0, 0, time.UTC)
	svc := NewMeditationService(db, users, time.UTC).WithClock(func() time.Time { return now })

	empty, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MeditationSummary{DailyGoalMinutes: 15}, empty)

	_, err = svc.Record(ctx, user.ID, 30, nil, nil)
	require.NoError(t, err)

	now = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	_, err = svc.Record(ctx, user.ID, 10, nil, nil)
	require.NoError(t, err)
	_, err = svc.Record(ctx, user.ID, 5, nil, nil)
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalSessions)
	assert.InDelta(t, 45, summary.TotalMinutes, 1e-9)
	assert.InDelta(t, 15, summary.AverageMinutes, 1e-9)
	assert.InDelta(t, 15, summary.TodayMinutes, 1e-9)
	assert.Equal(t, 15, summary.DailyGoalMinutes)
	assert.True(t, summary.GoalReached)

	goal := 20
	_, err = users.UpdateProfile(ctx, user.ID, "calm", "", models.PreferencesPatch{DailyGoalMinutes: &goal})
	require.NoError(t, err)

	summary, err = svc.Summary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, summary.DailyGoalMinutes)
	assert.False(t, summary.GoalReached)
}
