package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotDate(t *testing.T) {
	want := time.Date(2025, time.December, 22, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
	}{
		{"iso", "2025-12-22"},
		{"stored", "22_12_2025"},
		{"rfc3339", "2025-12-22T15:04:05Z"},
		{"padded whitespace", "  2025-12-22 "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSlotDate(tt.input)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
		})
	}
}

func TestParseSlotDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "tomorrow", "31_2_2025", "1_2", "2025/12/22"} {
		_, err := ParseSlotDate(input)
		assert.Error(t, err, input)
	}
}

func TestStoredSlotDate(t *testing.T) {
	assert.Equal(t, "5_1_2026", StoredSlotDate(time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)))
}

func TestParseSlotHour(t *testing.T) {
	tests := []struct {
		input string
		hour  int
		ok    bool
	}{
		{"09:00 AM", 9, true},
		{"12:30 PM", 12, true},
		{"12:00 AM", 0, true},
		{"02:00 PM", 14, true},
		{"06:30 pm", 18, true},
		{"17:00", 17, true},
		{"13:00 PM", 0, false},
		{"ten o'clock", 0, false},
		{"", 0, false},
		{"10:75 AM", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			hour, ok := ParseSlotHour(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, hour)
			}
		})
	}
}

func TestIsWeekend(t *testing.T) {
	assert.True(t, IsWeekend(time.Date(2025, 1, 18, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsWeekend(time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsWeekend(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 0.33, RoundTo(1.0/3.0, 2))
	assert.Equal(t, 0.67, RoundTo(2.0/3.0, 2))
	assert.Equal(t, 0.5, RoundTo(0.504, 2))
}

func TestSlotDateVariants(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"7_3_2025", "07_03_2025", "2025-03-07"}, SlotDateVariants(day))
}
