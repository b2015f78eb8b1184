package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/eligibility-sync/internal/domain/scheduler"
)

func at(hour, minute, second int) time.Time {
	return time.Date(2024, 6, 10, hour, minute, second, 0, time.UTC)
}

func TestBlackoutWindowContains(t *testing.T) {
	w := scheduler.BlackoutWindow{StartHour: 22, EndHour: 2, Location: time.UTC}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "just before start", at: at(21, 59, 59), want: false},
		{name: "start", at: at(22, 0, 0), want: true},
		{name: "late evening", at: at(23, 30, 0), want: true},
		{name: "midnight", at: at(0, 0, 0), want: true},
		{name: "just before end", at: at(1, 59, 59), want: true},
		{name: "end", at: at(2, 0, 0), want: false},
		{name: "midday", at: at(12, 0, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Contains(tt.at))
		})
	}
}

func TestBlackoutWindowEveryHour(t *testing.T) {
	w := scheduler.BlackoutWindow{StartHour: 22, EndHour: 2, Location: time.UTC}
	for h := range 24 {
		want := h >= 22 || h < 2
		assert.Equal(t, want, w.Contains(at(h, 30, 0)), "hour %d", h)
	}
}

func TestBlackoutWindowNonWrapping(t *testing.T) {
	w := scheduler.BlackoutWindow{StartHour: 1, EndHour: 5, Location: time.UTC}
	assert.False(t, w.Contains(at(0, 59, 59)))
	assert.True(t, w.Contains(at(1, 0, 0)))
	assert.True(t, w.Contains(at(4, 59, 59)))
	assert.False(t, w.Contains(at(5, 0, 0)))
}

func TestBlackoutWindowDisabled(t *testing.T) {
	w := scheduler.BlackoutWindow{StartHour: 3, EndHour: 3, Location: time.UTC}
	assert.False(t, w.Enabled())
	assert.False(t, w.Contains(at(3, 0, 0)))
	assert.Equal(t, "disabled", w.String())
}

func TestBlackoutWindowRemaining(t *testing.T) {
	w := scheduler.BlackoutWindow{StartHour: 22, EndHour: 2, Location: time.UTC}

	t.Run("before midnight waits into next day", func(t *testing.T) {
		assert.Equal(t, 4*time.Hour, w.Remaining(at(22, 0, 0)))
		assert.Equal(t, at(2, 0, 0).AddDate(0, 0, 1), w.End(at(22, 0, 0)))
	})

	t.Run("after midnight waits until end today", func(t *testing.T) {
		assert.Equal(t, 90*time.Minute, w.Remaining(at(0, 30, 0)))
	})

	t.Run("outside window is zero", func(t *testing.T) {
		assert.Zero(t, w.Remaining(at(12, 0, 0)))
	})
}

func TestNewBlackoutWindowValidatesHours(t *testing.T) {
	_, err := scheduler.NewBlackoutWindow(24, 2, time.UTC)
	require.Error(t, err)
	_, err = scheduler.NewBlackoutWindow(22, -1, time.UTC)
	require.Error(t, err)

	w, err := scheduler.NewBlackoutWindow(22, 2, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "22:00-02:00", w.String())
}
