package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	day := time.Date(2026, time.October, 16, 0, 0, 0, 0, time.Local)
	tests := []struct {
		name    string
		value   string
		want    time.Time
		wantErr string
	}{
		{name: "bare date", value: "2026-10-16", want: day},
		{name: "surrounding spaces", value: " 2026-10-16 ", want: day},
		{name: "rfc3339", value: "2026-10-16T23:00:00Z", want: day},
		{name: "rfc3339 with offset", value: "2026-10-16T08:30:00+02:00", want: day},
		{name: "rfc3339 nano", value: "2026-10-16T08:30:00.123456789Z", want: day},
		{name: "timestamp without zone", value: "2026-10-16T15:04:05", want: day},
		{name: "empty", value: "  ", wantErr: "date is required"},
		{name: "day first", value: "16/10/2026", wantErr: "expected YYYY-MM-DD"},
		{name: "not a date", value: "tomorrow", wantErr: "expected YYYY-MM-DD"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
			assert.Equal(t, "2026-10-16", FormatDate(got))
		})
	}
}

func TestTruncateDate(t *testing.T) {
	afternoon := time.Date(2026, time.October, 16, 15, 30, 45, 500, time.Local)
	got := TruncateDate(afternoon)
	assert.True(t, time.Date(2026, time.October, 16, 0, 0, 0, 0, time.Local).Equal(got))
	assert.Equal(t, FormatDate(afternoon), FormatDate(got))
	assert.True(t, got.Equal(TruncateDate(got)))
}

func TestParseSeat(t *testing.T) {
	tests := []struct {
		label   string
		want    Seat
		wantErr string
	}{
		{label: "1-2", want: Seat{Row: 1, Column: 2}},
		{label: " 1 - 2 ", want: Seat{Row: 1, Column: 2}},
		{label: "10-12", want: Seat{Row: 10, Column: 12}},
		{label: "0-1", wantErr: "start at 1"},
		{label: "1-0", wantErr: "start at 1"},
		{label: "1-2-3", wantErr: "expected row-column"},
		{label: "12", wantErr: "expected row-column"},
		{label: "a-1", wantErr: "invalid seat row"},
		{label: "1-b", wantErr: "invalid seat column"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseSeat(tt.label)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeatLabels(t *testing.T) {
	seats := []Seat{{Row: 3, Column: 1}, {Row: 1, Column: 2}}
	assert.Equal(t, []string{"3-1", "1-2"}, SeatLabels(seats))
	assert.Equal(t, "3-1", seats[0].String())
	assert.Empty(t, SeatLabels(nil))
}
