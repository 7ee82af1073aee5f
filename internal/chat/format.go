package chat

import (
	"strings"
	"time"

	"campusbot/internal/model"
	"campusbot/internal/query"
)

// buildResult caps matches at limit after sorting by date. Count keeps the
// full number of matches.
func buildResult(matches []model.Event, limit int, loc *time.Location) *model.EventResult {
	sorted := query.SortByDate(matches, loc)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return &model.EventResult{Count: len(matches), Items: sorted}
}

// noResultsMessage explains an empty search in terms of what the user asked
// for and suggests queries that are likely to match.
func noResultsMessage(p query.Predicates) string {
	var b strings.Builder
	b.WriteString("I couldn't find any ")
	b.WriteString(describe(p))
	b.WriteString(".")

	var tips []string
	if p.Range != nil {
		tips = append(tips, `try a wider period such as "events this week" or "events next week"`)
	}
	if p.Category != "" {
		tips = append(tips, `try another category (technical, cultural, sport, academic, career), or drop "`+p.Category+`" and search "events `+rangePhrase(p.Range)+`"`)
	}
	if p.Status != "" {
		tips = append(tips, `try "upcoming events" to see what's coming next`)
	}
	if p.Location != "" || p.Tag != "" {
		tips = append(tips, `try without the place or tag filter, e.g. "upcoming events"`)
	}
	if len(tips) == 0 {
		tips = append(tips, `try "upcoming events" or type "help" for examples`)
	}

	b.WriteString(" Suggestions:")
	for _, tip := range tips {
		b.WriteString("\n• ")
		b.WriteString(strings.ToUpper(tip[:1]) + tip[1:])
	}
	return b.String()
}

// describe renders predicates as a noun phrase: "upcoming cultural events today in hall a".
func describe(p query.Predicates) string {
	parts := make([]string, 0, 6)
	if p.Status != "" {
		parts = append(parts, p.Status)
	}
	if p.Category != "" {
		parts = append(parts, p.Category)
	}
	parts = append(parts, "events")
	if p.Range != nil {
		parts = append(parts, rangePhrase(p.Range))
	}
	if p.Location != "" {
		parts = append(parts, "in "+p.Location)
	}
	if p.Tag != "" {
		parts = append(parts, "tagged \""+p.Tag+"\"")
	}
	return strings.Join(parts, " ")
}

func rangePhrase(r *query.DateRange) string {
	if r == nil {
		return "this week"
	}
	switch r.Label {
	case "today", "tomorrow", "this week", "next week":
		return r.Label
	default:
		return "on " + r.Label
	}
}
