package workday_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/workday"
)

func partial(t *testing.T, start, end workday.IntraDayDate) workday.PartialDay {
	t.Helper()
	p, err := workday.NewPartialDay(start, end)
	require.NoError(t, err)
	return p
}

// =============================================================================
// PARTIAL DAY CONSTRUCTION
// =============================================================================

func TestPartialDay_ValidIntervals(t *testing.T) {
	tests := []struct {
		name       string
		start, end workday.IntraDayDate
	}{
		{"same day", at(10, 2), at(10, 6)},
		{"empty", at(10, 2), at(10, 2)},
		{"to next day start", at(10, 2), at(11, 0)},
		{"whole day", at(10, 0), at(11, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := partial(t, tt.start, tt.end)
			assert.Equal(t, tt.start, p.Start())
			assert.Equal(t, tt.end, p.End())
			assert.Equal(t, tt.start.Date(), p.Date())
		})
	}
}

func TestPartialDay_InvalidIntervals(t *testing.T) {
	tests := []struct {
		name       string
		start, end workday.IntraDayDate
	}{
		{"backwards", at(10, 6), at(10, 2)},
		{"into next day", at(10, 2), at(11, 1)},
		{"two days", at(10, 0), at(12, 0)},
		{"zero start", workday.IntraDayDate{}, at(10, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := workday.NewPartialDay(tt.start, tt.end)
			assert.ErrorIs(t, err, workday.ErrInvalidArgument)
		})
	}
}

func TestPartialDay_WholeDay(t *testing.T) {
	p := workday.WholeDay(march(10))
	assert.Equal(t, at(10, 0), p.Start())
	assert.Equal(t, at(11, 0), p.End())
	assert.True(t, p.IsWholeDay())
}

// =============================================================================
// LIMIT DURATION
// =============================================================================

func TestPartialDay_WholeDayPassesThrough(t *testing.T) {
	p := workday.WholeDay(march(10))
	for _, x := range []workday.EffortDuration{
		workday.Zero(), workday.Seconds(1), workday.Hours(8), workday.Hours(30),
	} {
		assert.Equal(t, x, p.LimitDuration(x))
	}
}

func TestPartialDay_ElapsedEffortWithoutCutoff(t *testing.T) {
	// GIVEN: 3h already elapsed, slice runs to the end of the day
	// THEN:  result is max(0, requested - 3h)
	p := partial(t, at(10, 3), at(11, 0))

	for h := 0; h <= 10; h++ {
		requested := workday.Hours(h)
		want := workday.Zero()
		if h > 3 {
			want = workday.Hours(h - 3)
		}
		assert.Equal(t, want, p.LimitDuration(requested), "requested %dh", h)
	}
}

func TestPartialDay_EndCutoff(t *testing.T) {
	// GIVEN: day starts clean and is cut off after 5h
	p := partial(t, at(10, 0), at(10, 5))

	assert.Equal(t, workday.Hours(5), p.LimitDuration(workday.Hours(8)))
	assert.Equal(t, workday.Hours(3), p.LimitDuration(workday.Hours(3)))
}

func TestPartialDay_ElapsedAndCutoff(t *testing.T) {
	p := partial(t, at(10, 2), at(10, 6))

	assert.Equal(t, workday.Hours(4), p.LimitDuration(workday.Hours(8)))
	assert.Equal(t, workday.Hours(3), p.LimitDuration(workday.Hours(5)))
	assert.Equal(t, workday.Zero(), p.LimitDuration(workday.Hours(2)))
	assert.Equal(t, workday.Zero(), p.LimitDuration(workday.Hours(1)))
}

func TestPartialDay_EmptySliceYieldsNothing(t *testing.T) {
	p := partial(t, at(10, 4), at(10, 4))
	assert.Equal(t, workday.Zero(), p.LimitDuration(workday.Hours(8)))
}
