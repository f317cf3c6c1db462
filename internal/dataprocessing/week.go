package dataprocessing

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// FilenameDateLayout is the DDMMYYYY stem of a daily loss extract.
const FilenameDateLayout = "02012006"

// ParseFileDate extracts the date from a loss extract name such as 01072024.csv.
func ParseFileDate(name string) (time.Time, error) {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	date, err := time.Parse(FilenameDateLayout, strings.TrimSpace(stem))
	if err != nil {
		return time.Time{}, fmt.Errorf("file name %q is not a DDMMYYYY date: %w", name, err)
	}
	return date, nil
}

// WeekKey returns the ISO week number of t and its YYYYWW key. The year is
// the ISO year, so 2024-12-30 belongs to 202501.
func WeekKey(t time.Time) (int, string) {
	year, week := t.ISOWeek()
	return week, fmt.Sprintf("%04d%02d", year, week)
}

// MonthKey returns the YYYY-MM of the Monday that starts t's ISO week.
// Loss rows and net-sales weeks use it so a week never straddles two months.
func MonthKey(t time.Time) string {
	return isoMonday(t).Format("2006-01")
}

// DayKey formats t for the daily view.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NormalizeWeekKey turns an accounting-week cell into a YYYYWW key.
// It accepts "202427", "202427.0", "2024-27" and the unpadded "20247".
func NormalizeWeekKey(s string) (string, bool) {
	s = NormalizeCode(s)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)

	switch len(digits) {
	case 6:
	case 5:
		digits = digits[:4] + "0" + digits[4:]
	default:
		return "", false
	}

	week, _ := strconv.Atoi(digits[4:])
	if week < 1 || week > 53 {
		return "", false
	}
	return digits, true
}

// MonthKeyFromWeekKey maps a YYYYWW key to the month of its ISO Monday.
func MonthKeyFromWeekKey(key string) (string, bool) {
	monday, ok := weekStart(key)
	if !ok {
		return "", false
	}
	return monday.Format("2006-01"), true
}

// weekStart returns the Monday of the ISO week identified by key.
func weekStart(key string) (time.Time, bool) {
	if len(key) != 6 {
		return time.Time{}, false
	}
	year, err1 := strconv.Atoi(key[:4])
	week, err2 := strconv.Atoi(key[4:])
	if err1 != nil || err2 != nil || week < 1 || week > 53 {
		return time.Time{}, false
	}
	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	return isoMonday(jan4).AddDate(0, 0, (week-1)*7), true
}

func isoMonday(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return d.AddDate(0, 0, -offset)
}

// accountingDayLayouts are the textual date layouts seen in the accounting-day column.
var accountingDayLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	FilenameDateLayout,
}

// parseAccountingDay parses a raw spreadsheet day cell: an Excel serial number or a date string.
func parseAccountingDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && !isCompactDate(s) {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	for _, layout := range accountingDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// isCompactDate reports whether s looks like a DDMMYYYY stamp rather than a serial.
func isCompactDate(s string) bool {
	if len(s) != 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
