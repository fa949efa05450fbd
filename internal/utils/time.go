package utils

import "time"

const (
	layoutDateTime = "2006-01-02 15:04:05"
	layoutStamp    = "20060102"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}

// DateStamp formats time as YYYYMMDD, used in booking codes.
func DateStamp(t time.Time) string {
	return t.Format(layoutStamp)
}

// HoursUntil returns the hours between now and t (negative when t has passed).
func HoursUntil(now, t time.Time) float64 {
	return t.Sub(now).Hours()
}
