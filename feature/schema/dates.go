package schema

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"content-importer/core/utils"

	"github.com/spf13/cast"
)

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	relativeDate  = regexp.MustCompile(`(?i)^(\d+|an?|one)\s+(second|sec|minute|min|hour|hr|day|week|month|year)s?\s+ago$`)
)

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2006",
	"Jan 2006",
}

// parseDate coerces a date-like value. Missing or unparseable input yields
// now; it never fails.
func parseDate(v any, now time.Time) time.Time {
	if isEmpty(v) {
		return now
	}

	if _, isString := v.(string); !isString {
		if n, ok := utils.ToInt64(v); ok {
			return fromNumber(n, now)
		}
		if _, numeric := utils.ToFloat(v); numeric {
			return now
		}
	}

	s := utils.CollapseSpace(utils.ToString(v))
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromNumber(n, now)
	}

	switch strings.ToLower(s) {
	case "now", "just now", "today":
		return now
	case "yesterday":
		return now.AddDate(0, 0, -1)
	}

	if m := relativeDate.FindStringSubmatch(s); m != nil {
		return relative(now, m[1], strings.ToLower(m[2]))
	}

	cleaned := ordinalSuffix.ReplaceAllString(s, "$1")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t.UTC()
		}
	}
	if t, err := cast.ToTimeE(cleaned); err == nil {
		return t.UTC()
	}
	return now
}

// fromNumber reads four digit values as a year and larger ones as seconds
// or milliseconds since the epoch.
func fromNumber(n int64, now time.Time) time.Time {
	switch {
	case n >= 1000 && n <= 9999:
		return time.Date(int(n), time.January, 1, 0, 0, 0, 0, time.UTC)
	case n <= 0:
		return now
	case n > 1e12:
		return time.UnixMilli(n).UTC()
	default:
		return time.Unix(n, 0).UTC()
	}
}

func relative(now time.Time, amount, unit string) time.Time {
	n, err := strconv.Atoi(amount)
	if err != nil {
		// "a day ago", "an hour ago", "one week ago"
		n = 1
	}
	switch unit {
	case "second", "sec":
		return now.Add(-time.Duration(n) * time.Second)
	case "minute", "min":
		return now.Add(-time.Duration(n) * time.Minute)
	case "hour", "hr":
		return now.Add(-time.Duration(n) * time.Hour)
	case "day":
		return now.AddDate(0, 0, -n)
	case "week":
		return now.AddDate(0, 0, -7*n)
	case "month":
		return now.AddDate(0, -n, 0)
	default:
		return now.AddDate(-n, 0, 0)
	}
}
