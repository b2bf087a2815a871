package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  time.Time
	}{
		{"Nil", nil, fixedNow},
		{"Empty", "  ", fixedNow},
		{"Garbage", "sometime soon", fixedNow},
		{"RFC3339", "2024-02-03T04:05:06Z", time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)},
		{"ISODate", "2024-02-03", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"USDate", "02/03/2024", time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)},
		{"Ordinal", "August 13th 2025", time.Date(2025, 8, 13, 0, 0, 0, 0, time.UTC)},
		{"OrdinalComma", "March 1st, 2020", time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"DayFirst", "22nd Jan 2019", time.Date(2019, 1, 22, 0, 0, 0, 0, time.UTC)},
		{"UnixNumber", json.Number("1700000000"), time.Unix(1700000000, 0).UTC()},
		{"UnixMillis", float64(1700000000123), time.UnixMilli(1700000000123).UTC()},
		{"UnixString", "1700000000", time.Unix(1700000000, 0).UTC()},
		{"YearString", "2019", time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"YearNumber", json.Number("2019"), time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"YearFloat", float64(1998), time.Date(1998, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"OverflowingNumber", float64(1e30), fixedNow},
		{"DaysAgo", "3 days ago", fixedNow.AddDate(0, 0, -3)},
		{"AnHourAgo", "an hour ago", fixedNow.Add(-time.Hour)},
		{"WeeksAgo", "2 weeks ago", fixedNow.AddDate(0, 0, -14)},
		{"Yesterday", "Yesterday", fixedNow.AddDate(0, 0, -1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDate(tt.input, fixedNow))
		})
	}
}
