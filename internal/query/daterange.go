package query

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateRange is an inclusive [From, To] window anchored to local calendar
// boundaries. Label is the phrase that produced it ("today", "2025-03-01").
type DateRange struct {
	From  time.Time `json:"from"`
	To    time.Time `json:"to"`
	Label string    `json:"label"`
}

// Contains reports whether t falls inside the range, boundaries included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// Relative date tokens in match priority order. The first token found in a
// query wins, so "this weekend" resolves as "this week".
var relativeTokens = []string{"today", "tomorrow", "this week", "next week"}

// Digits on either side disqualify the match ("20250-03-01", "2025-03-011").
var explicitDateRe = regexp.MustCompile(`(?:^|\D)(\d{4})-(\d{2})-(\d{2})(?:\D|$)`)

// ResolveDateRange maps the first relative token found in text to a range
// around now. It returns nil when no token is present.
func ResolveDateRange(text string, now time.Time) *DateRange {
	token := matchRelativeToken(strings.ToLower(text))
	switch token {
	case "today":
		return dayRange(now, token)
	case "tomorrow":
		return dayRange(now.AddDate(0, 0, 1), token)
	case "this week":
		return weekRange(now, token)
	case "next week":
		return weekRange(now.AddDate(0, 0, 7), token)
	default:
		return nil
	}
}

func matchRelativeToken(lower string) string {
	for _, tok := range relativeTokens {
		if strings.Contains(lower, tok) {
			return tok
		}
	}
	return ""
}

// ParseExplicitDate extracts the first YYYY-MM-DD in text and returns that
// whole day in loc. Impossible dates (2025-13-01, 2025-02-30) yield nil.
func ParseExplicitDate(text string, loc *time.Location) *DateRange {
	m := explicitDateRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	if loc == nil {
		loc = time.Local
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalises overflow (Feb 30 -> Mar 2); treat that as invalid.
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return nil
	}
	return dayRange(d, m[1]+"-"+m[2]+"-"+m[3])
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func dayRange(t time.Time, label string) *DateRange {
	return &DateRange{From: startOfDay(t), To: endOfDay(t), Label: label}
}

// weekRange returns Monday 00:00:00 through Sunday 23:59:59 of t's week.
func weekRange(t time.Time, label string) *DateRange {
	offset := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		offset = 6
	}
	monday := startOfDay(t.AddDate(0, 0, -offset))
	sunday := endOfDay(monday.AddDate(0, 0, 6))
	return &DateRange{From: monday, To: sunday, Label: label}
}
