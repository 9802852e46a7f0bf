package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDueStatusBoundaries(t *testing.T) {
	now := time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, DueToday, DueStatus("2024-06-10", now))
	assert.Equal(t, DueReminder, DueStatus("2024-06-11", now))
	assert.Equal(t, DueNone, DueStatus("2024-06-12", now))
	assert.Equal(t, DueNone, DueStatus("2024-06-09", now))
}

func TestDueStatusMidnightNow(t *testing.T) {
	// Exactly midnight: ending today is still "due", not one day out
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, DueToday, DueStatus("2024-06-10", now))
	assert.Equal(t, DueReminder, DueStatus("2024-06-11", now))
}

func TestDueStatusAbsentOrInvalid(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DueNone, DueStatus("", now))
	assert.Equal(t, DueNone, DueStatus("not-a-date", now))
	assert.Equal(t, DueNone, DueStatus("2024-13-40", now))
}

func TestDueStatusFarPastAndFuture(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, DueNone, DueStatus("2023-01-01", now))
	assert.Equal(t, DueNone, DueStatus("2025-01-01", now))
}
