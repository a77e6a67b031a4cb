package coerce

import (
	"strings"
	"time"
)

// ParseISO8601 parses the ISO-8601 forms accepted for timestamp columns,
// matching Python's datetime.fromisoformat since 3.11:
//
//	date:   YYYY-MM-DD | YYYYMMDD | YYYY-Www[-D] | YYYYWww[D]
//	time:   HH[:MM[:SS[.f]]] | HH[MM[SS[.f]]]   ('.' or ',', up to 9 digits)
//	offset: Z | ±HH[:MM] | ±HHMM
//
// Date and time are joined by 'T' or a space. Timestamps without an offset
// are taken as UTC.
func ParseISO8601(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	year, month, day, rest, ok := parseISODate(s)
	if !ok {
		return time.Time{}, false
	}
	if rest == "" {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
	}
	if rest[0] != 'T' && rest[0] != 't' && rest[0] != ' ' {
		return time.Time{}, false
	}

	hour, min, sec, nsec, rest, ok := parseISOTime(rest[1:])
	if !ok {
		return time.Time{}, false
	}
	loc, ok := parseISOOffset(rest)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(year, month, day, hour, min, sec, nsec, loc), true
}

func parseISODate(s string) (year int, month time.Month, day int, rest string, ok bool) {
	year, ok = digits(s, 4)
	if !ok || year < 1 {
		return 0, 0, 0, "", false
	}
	s = s[4:]
	extended := strings.HasPrefix(s, "-")
	if extended {
		s = s[1:]
	}

	if strings.HasPrefix(s, "W") {
		return parseISOWeekDate(year, s[1:], extended)
	}

	m, ok := digits(s, 2)
	if !ok {
		return 0, 0, 0, "", false
	}
	s = s[2:]
	if extended {
		if !strings.HasPrefix(s, "-") {
			return 0, 0, 0, "", false
		}
		s = s[1:]
	}
	day, ok = digits(s, 2)
	if !ok || m < 1 || m > 12 || day < 1 || day > daysIn(year, time.Month(m)) {
		return 0, 0, 0, "", false
	}
	return year, time.Month(m), day, s[2:], true
}

// parseISOWeekDate parses "ww[-D]" (extended) or "ww[D]" after the 'W'.
func parseISOWeekDate(year int, s string, extended bool) (int, time.Month, int, string, bool) {
	week, ok := digits(s, 2)
	if !ok || week < 1 || week > 53 {
		return 0, 0, 0, "", false
	}
	s = s[2:]

	weekday := 1
	switch {
	case extended && strings.HasPrefix(s, "-"):
		if weekday, ok = digits(s[1:], 1); !ok {
			return 0, 0, 0, "", false
		}
		s = s[2:]
	case !extended && len(s) > 0 && isDigit(s[0]):
		weekday = int(s[0] - '0')
		s = s[1:]
	}
	if weekday < 1 || weekday > 7 {
		return 0, 0, 0, "", false
	}

	// Week 1 holds January 4th.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	wd := int(jan4.Weekday())
	if wd == 0 {
		wd = 7
	}
	t := jan4.AddDate(0, 0, 1-wd+(week-1)*7+(weekday-1))
	if y, w := t.ISOWeek(); y != year || w != week {
		return 0, 0, 0, "", false
	}
	return t.Year(), t.Month(), t.Day(), s, true
}

func parseISOTime(s string) (hour, min, sec, nsec int, rest string, ok bool) {
	hour, ok = digits(s, 2)
	if !ok || hour > 23 {
		return 0, 0, 0, 0, "", false
	}
	s = s[2:]

	// The first separator decides extended or basic form.
	extended := strings.HasPrefix(s, ":")
	next := func() (int, bool) {
		t := s
		if extended {
			if !strings.HasPrefix(t, ":") {
				return 0, false
			}
			t = t[1:]
		}
		n, ok := digits(t, 2)
		if !ok || n > 59 {
			return 0, false
		}
		s = t[2:]
		return n, true
	}

	var hasMin, hasSec bool
	if min, hasMin = next(); !hasMin {
		return hour, 0, 0, 0, s, isOffsetStart(s)
	}
	if sec, hasSec = next(); !hasSec {
		return hour, min, 0, 0, s, isOffsetStart(s)
	}

	if len(s) > 0 && (s[0] == '.' || s[0] == ',') {
		n := 1
		for n < len(s) && isDigit(s[n]) {
			n++
		}
		frac := s[1:n]
		if frac == "" || len(frac) > 9 {
			return 0, 0, 0, 0, "", false
		}
		nsec, _ = digits(frac+strings.Repeat("0", 9-len(frac)), 9)
		s = s[n:]
	}
	return hour, min, sec, nsec, s, isOffsetStart(s)
}

// isOffsetStart reports whether s is empty or can begin an offset.
func isOffsetStart(s string) bool {
	return s == "" || s[0] == 'Z' || s[0] == 'z' || s[0] == '+' || s[0] == '-'
}

func parseISOOffset(s string) (*time.Location, bool) {
	switch s {
	case "":
		return time.UTC, true
	case "Z", "z":
		return time.UTC, true
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, false
	}
	s = s[1:]

	h, ok := digits(s, 2)
	if !ok || h > 23 {
		return nil, false
	}
	s = s[2:]
	s = strings.TrimPrefix(s, ":")
	m := 0
	if s != "" {
		if m, ok = digits(s, 2); !ok || m > 59 || len(s) != 2 {
			return nil, false
		}
	}
	return time.FixedZone("", sign*(h*3600+m*60)), true
}

// digits reads exactly n leading ASCII digits.
func digits(s string, n int) (int, bool) {
	if len(s) < n {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func daysIn(year int, m time.Month) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
