package directory

import (
	"time"
)

// Age returns whole years elapsed from dob to today, decremented by one when
// today's (month, day) precedes the birth (month, day). Plain year
// subtraction would overstate the age before the birthday.
func Age(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// dobLayouts covers the date-of-birth encodings upstream has been seen to
// emit across revisions.
var dobLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05.000Z07:00",
}

// ParseDOB parses an upstream date-of-birth string.
func ParseDOB(s string) (time.Time, bool) {
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
