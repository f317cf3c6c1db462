package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileDate(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    time.Time
		wantErr bool
	}{
		{name: "plain csv", file: "01072024.csv", want: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
		{name: "upper case extension", file: "31122023.CSV", want: time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)},
		{name: "with directory", file: "venta_perdida/08072024.csv", want: time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)},
		{name: "windows separators", file: `C:\datos\15012024.csv`, want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{name: "not a date", file: "resumen.csv", wantErr: true},
		{name: "impossible day", file: "32012024.csv", wantErr: true},
		{name: "iso layout", file: "2024-07-01.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFileDate(tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFileDate_RoundTrip(t *testing.T) {
	start := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 400; i += 7 {
		d := start.AddDate(0, 0, i)
		got, err := ParseFileDate(d.Format(FilenameDateLayout) + ".csv")
		require.NoError(t, err)
		assert.True(t, d.Equal(got), "date %s", d)
	}
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		date     time.Time
		week     int
		key      string
		monthKey string
	}{
		{time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), 27, "202427", "2024-07"},
		{time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC), 27, "202427", "2024-07"},
		{time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC), 28, "202428", "2024-07"},
		// ISO year differs from the calendar year at the boundary.
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), 1, "202501", "2024-12"},
		{time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), 53, "202053", "2020-12"},
		// A week starting in May belongs to May even on June 1st.
		{time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 22, "202422", "2024-05"},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format("2006-01-02"), func(t *testing.T) {
			week, key := WeekKey(tt.date)
			assert.Equal(t, tt.week, week)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.monthKey, MonthKey(tt.date))

			month, ok := MonthKeyFromWeekKey(key)
			require.True(t, ok)
			assert.Equal(t, tt.monthKey, month)
		})
	}
}

func TestNormalizeWeekKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"202427", "202427", true},
		{"202427.0", "202427", true},
		{" 2024-27 ", "202427", true},
		{"20247", "202407", true},
		{"202400", "", false},
		{"202454", "", false},
		{"2024", "", false},
		{"semana", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeWeekKey(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeekStart(t *testing.T) {
	monday, ok := weekStart("202427")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), monday)

	monday, ok = weekStart("202501")
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), monday)

	_, ok = weekStart("2024")
	assert.False(t, ok)
}

// Loss files and net-sales days must land in the same week key.
func TestWeekAgreement(t *testing.T) {
	lossDate, err := ParseFileDate("03072024.csv")
	require.NoError(t, err)
	_, lossKey := WeekKey(lossDate)

	for _, raw := range []string{"45476", "03/07/2024", "2024-07-03"} {
		day, ok := parseAccountingDay(raw)
		require.True(t, ok, raw)
		_, netKey := WeekKey(day)
		assert.Equal(t, lossKey, netKey, raw)
	}
}

func TestParseAccountingDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"45474", "2024-07-01", true},
		{"45474.5", "2024-07-01", true},
		{"01/07/2024", "2024-07-01", true},
		{"1/7/2024", "2024-07-01", true},
		{"2024-07-01 00:00:00", "2024-07-01", true},
		{"01072024", "2024-07-01", true},
		{"", "", false},
		{"ayer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseAccountingDay(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, DayKey(got))
			}
		})
	}
}
