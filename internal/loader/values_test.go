package loader

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	jan15 := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want *time.Time
	}{
		{"2023-01-15", &jan15},
		{" 44941 ", &jan15},
		{"15/01/2023", &jan15},
		{"15.01.2023", &jan15},
		{"20230115", &jan15},
		{"", nil},
		{"not a date", nil},
	}

	for _, tt := range tests {
		got := ParseDate(tt.in)
		if tt.want == nil {
			assert.Nil(t, got, tt.in)
			continue
		}
		require.NotNil(t, got, tt.in)
		assert.True(t, tt.want.Equal(*got), "%s: got %s", tt.in, got)
	}
}

func TestDateFromYearMonth(t *testing.T) {
	t.Parallel()

	d := DateFromYearMonth(2023, 7)
	require.NotNil(t, d)
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), *d)

	assert.Nil(t, DateFromYearMonth(0, 1))
	assert.Nil(t, DateFromYearMonth(2023, 13))
	assert.Nil(t, DateFromYearMonth(2023, 0))
}

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"10", "10", true},
		{" 10.5 ", "10.5", true},
		{"10,5", "10.5", true},
		{"1,234.5", "1234.5", true},
		{"1.234,5", "1234.5", true},
		{"-1.234,50", "-1234.5", true},
		{"1.234.567", "1234567", true},
		{"1,234,567", "1234567", true},
		{"1.234,5,6", "0", false},
		{"12,34.5", "0", false},
		{"1..5", "0", false},
		{"-3", "-3", true},
		{"abc", "0", false},
		{"", "0", false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "%s: got %s", tt.in, got)
	}
}

func TestCoerceInt(t *testing.T) {
	t.Parallel()

	v, ok := CoerceInt("2023.0", 0)
	assert.True(t, ok)
	assert.Equal(t, 2023, v)

	v, ok = CoerceInt("enero", 1)
	assert.False(t, ok)
	assert.Equal(t, 1, v)
}

func TestCleanClient(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ACME S.A", CleanClient(" acme s.a. "))
	assert.Equal(t, "ACME.", CleanClient("acme.."))
	assert.Equal(t, "", CleanClient("  "))
	assert.Equal(t, "P1", NormalizeKey(" p1 "))
}
