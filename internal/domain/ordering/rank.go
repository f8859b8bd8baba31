// Package ordering turns untrusted bill date strings into comparable ranks
// and sorts bill collections for display.
package ordering

import (
	"fmt"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// directLayouts are tried before any reinterpretation of the input.
var directLayouts = []string{
	isoDate,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// Rank is an ordering key derived from a date string.
// The zero value is the unparseable sentinel.
type Rank struct {
	t     time.Time
	valid bool
}

// Unparseable is the sentinel rank for empty or unreadable dates
var Unparseable = Rank{}

// Valid reports whether the date string was understood
func (r Rank) Valid() bool {
	return r.valid
}

// Time returns the parsed instant (zero time for the sentinel)
func (r Rank) Time() time.Time {
	return r.t
}

// Compare orders two valid ranks chronologically. The sentinel sorts after
// every valid rank; two sentinels compare equal.
func (r Rank) Compare(other Rank) int {
	switch {
	case !r.valid && !other.valid:
		return 0
	case !r.valid:
		return 1
	case !other.valid:
		return -1
	}
	return r.t.Compare(other.t)
}

// Parse ranks a date string. It never fails: anything it cannot read
// yields Unparseable.
func Parse(date string) Rank {
	date = strings.TrimSpace(date)
	if date == "" {
		return Unparseable
	}

	if t, ok := parseDirect(date); ok {
		return Rank{t: t, valid: true}
	}

	iso, ok := reinterpret(date)
	if !ok {
		return Unparseable
	}
	t, err := time.Parse(isoDate, iso)
	if err != nil {
		return Unparseable
	}
	return Rank{t: t, valid: true}
}

// Display returns the canonical YYYY-MM-DD form of a parseable date and the
// literal input otherwise, so corrupt dates stay visible.
func Display(date string) string {
	r := Parse(date)
	if !r.valid {
		return date
	}
	return r.t.Format(isoDate)
}

func parseDirect(date string) (time.Time, bool) {
	for _, layout := range directLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// reinterpret reads three numeric parts separated by '/', '.' or '-'.
// A 4-digit first part means YEAR-MONTH-DAY, anything else DAY-MONTH-YEAR.
func reinterpret(date string) (string, bool) {
	parts := strings.FieldsFunc(date, func(r rune) bool {
		return r == '/' || r == '.' || r == '-'
	})
	if len(parts) != 3 || strings.Count(date, "/")+strings.Count(date, ".")+strings.Count(date, "-") != 2 {
		return "", false
	}
	for _, p := range parts {
		if !isDigits(p) {
			return "", false
		}
	}

	if len(parts[0]) == 4 {
		return fmt.Sprintf("%s-%s-%s", parts[0], pad2(parts[1]), pad2(parts[2])), true
	}
	if len(parts[2]) != 4 {
		return "", false
	}
	return fmt.Sprintf("%s-%s-%s", parts[2], pad2(parts[1]), pad2(parts[0])), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
