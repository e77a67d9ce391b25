// Package format turns raw ticker values into display strings. Every function
// is pure and total: any input yields a defined string.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// Placeholder is shown for missing values.
const Placeholder = "—"

// MarketCap formats a market capitalization: T/B/M tiers with one decimal,
// a grouped dollar amount below a million, and the placeholder for zero.
func MarketCap(v float64) string {
	if v == 0 || math.IsNaN(v) {
		return Placeholder
	}
	switch {
	case v >= 1e12:
		return fmt.Sprintf("$%.1fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	default:
		return "$" + Number(v)
	}
}

// TimeAgo renders an ISO-8601 timestamp relative to now.
func TimeAgo(iso string) string {
	return TimeAgoAt(iso, time.Now())
}

// TimeAgoAt renders iso relative to now. Minutes, hours and days are floored.
// Timestamps in the future count as "Just now".
func TimeAgoAt(iso string, now time.Time) string {
	if strings.TrimSpace(iso) == "" {
		return "Never"
	}
	t, ok := ParseTime(iso)
	if !ok {
		return Placeholder
	}
	diff := now.Sub(t)
	mins := int64(diff / time.Minute)
	if diff < time.Minute {
		return "Just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hrs := mins / 60
	if hrs < 24 {
		return fmt.Sprintf("%dh ago", hrs)
	}
	return fmt.Sprintf("%dd ago", hrs/24)
}

// Bytes formats a byte count as MB or KB with one decimal, or raw bytes.
func Bytes(n int64) string {
	switch {
	case n >= 1e6:
		return fmt.Sprintf("%.1f MB", float64(n)/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.1f KB", float64(n)/1e3)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Price formats a nullable price for the ticker table.
func Price(p *float64) string {
	if p == nil || *p == 0 {
		return Placeholder
	}
	return "$" + Number(*p)
}

// Number groups thousands and keeps at most three decimals.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Placeholder
	}
	s := strconv.FormatFloat(v, 'f', 3, 64)
	intPart, frac, _ := strings.Cut(s, ".")
	frac = strings.TrimRight(frac, "0")
	n, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return s
	}
	grouped := humanize.Comma(n)
	if frac == "" {
		return grouped
	}
	if n == 0 && strings.HasPrefix(intPart, "-") {
		grouped = "-0"
	}
	return grouped + "." + frac
}

// Stat renders one value of the detail stats mapping.
func Stat(v types.StatValue) string {
	switch v.Kind {
	case types.StatNumber:
		return Number(v.Num)
	case types.StatString:
		return v.Str
	case types.StatBool:
		return strconv.FormatBool(v.Bool)
	default:
		return Placeholder
	}
}

// StatLabel turns a stats key into a label.
func StatLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime parses the timestamp shapes emitted by the sync service. Values
// without a zone are read in local time.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
