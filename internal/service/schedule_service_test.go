package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyon-access/parent-api/internal/models"
)

type mockScheduleStore struct {
	entries []models.ScheduleEntry
}

func (m *mockScheduleStore) ListByGroup(_ context.Context, _, _ string) ([]models.ScheduleEntry, error) {
	return m.entries, nil
}

func scheduleFixture() *mockScheduleStore {
	return &mockScheduleStore{entries: []models.ScheduleEntry{
		{DayOfWeek: "MONDAY", StartTime: "07:30", Subject: "Mathematics"},
		{DayOfWeek: "MONDAY", StartTime: "09:00", Subject: "History"},
		{DayOfWeek: "TUESDAY", StartTime: "07:30", Subject: "Biology"},
	}}
}

func TestScheduleServiceToday(t *testing.T) {
	// Monday Nov 4 2024, mid-morning.
	now := fixedClock(time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC))
	svc := NewScheduleService(scheduleFixture(), nil, now)

	today, err := svc.Today(context.Background(), "3", "A")
	require.NoError(t, err)
	require.Len(t, today, 2)
	assert.Equal(t, "Mathematics", today[0].Subject)
	assert.Equal(t, "History", today[1].Subject)
}

func TestScheduleServiceTodayWeekend(t *testing.T) {
	// Saturday Nov 9 2024.
	now := fixedClock(time.Date(2024, 11, 9, 8, 0, 0, 0, time.UTC))
	svc := NewScheduleService(scheduleFixture(), nil, now)

	today, err := svc.Today(context.Background(), "3", "A")
	require.NoError(t, err)
	assert.Empty(t, today)
}

func TestScheduleServiceNextClass(t *testing.T) {
	now := fixedClock(time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC))
	svc := NewScheduleService(scheduleFixture(), nil, now)

	next, err := svc.NextClass(context.Background(), "3", "A")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "History", next.Subject)
}

func TestScheduleServiceNextClassAfterHours(t *testing.T) {
	now := fixedClock(time.Date(2024, 11, 4, 15, 0, 0, 0, time.UTC))
	svc := NewScheduleService(scheduleFixture(), nil, now)

	next, err := svc.NextClass(context.Background(), "3", "A")
	require.NoError(t, err)
	assert.Nil(t, next)
}
