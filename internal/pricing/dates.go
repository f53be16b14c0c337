package pricing

import "time"

// ParseDate parses a YYYY-MM-DD date at midnight in loc
func ParseDate(iso string, loc *time.Location) (time.Time, bool) {
	if iso == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("2006-01-02", iso, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Age returns completed years between birth and now
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsBirthday reports whether now falls on the month and day of birth
func IsBirthday(birth, now time.Time) bool {
	return birth.Month() == now.Month() && birth.Day() == now.Day()
}
