package purpose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetention(t *testing.T) {
	cases := []struct {
		in   string
		want Retention
	}{
		{"2y", Retention{Years: 2}},
		{"6m", Retention{Months: 6}},
		{"30d", Retention{Days: 30}},
		{"1y6m", Retention{Years: 1, Months: 6}},
		{"1y2m3d", Retention{Years: 1, Months: 2, Days: 3}},
	}
	for _, tc := range cases {
		got, err := ParseRetention(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRetention_Invalid(t *testing.T) {
	for _, in := range []string{"", "y", "10", "2w", "y2"} {
		_, err := ParseRetention(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestRetentionFrom_CalendarArithmetic(t *testing.T) {
	issued := time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC),
		Retention{Years: 2}.From(issued))
	// AddDate normalizes Jan 31 + 1 month to Mar 2.
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
		Retention{Months: 1}.From(issued))
}

func TestRetentionLess(t *testing.T) {
	ref := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, Retention{Months: 6}.Less(Retention{Years: 1}, ref))
	assert.False(t, Retention{Years: 10}.Less(Retention{Years: 2}, ref))
}

func TestRetentionString(t *testing.T) {
	assert.Equal(t, "1y6m", Retention{Years: 1, Months: 6}.String())
	assert.Equal(t, "0d", Retention{}.String())
}
