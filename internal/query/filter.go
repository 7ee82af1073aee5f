package query

import (
	"sort"
	"strings"
	"time"

	"campusbot/internal/model"
)

// FilterEvents returns the events that satisfy every non-empty predicate,
// in input order. The input slice is never modified.
//
// Zone-less event dates are read in the range's location. Events whose
// date cannot be parsed never satisfy a range predicate.
func FilterEvents(events []model.Event, p Predicates) []model.Event {
	out := make([]model.Event, 0)
	for _, ev := range events {
		if Match(ev, p) {
			out = append(out, ev)
		}
	}
	return out
}

// Match reports whether ev satisfies all predicates in p.
func Match(ev model.Event, p Predicates) bool {
	if p.Range != nil {
		t, err := model.ParseEventTime(ev.Date, p.Range.From.Location())
		if err != nil || !p.Range.Contains(t) {
			return false
		}
	}
	if p.Location != "" && !strings.Contains(strings.ToLower(ev.Location), strings.ToLower(p.Location)) {
		return false
	}
	if p.Tag != "" && !hasTag(ev.Tags, p.Tag) {
		return false
	}
	if p.Category != "" && !strings.Contains(strings.ToLower(ev.Category), strings.ToLower(p.Category)) {
		return false
	}
	if p.Status != "" && !strings.EqualFold(ev.Status, p.Status) {
		return false
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SortByDate returns a copy of events ordered by ascending date. Events
// with unparseable dates sort last; ties keep their input order.
func SortByDate(events []model.Event, loc *time.Location) []model.Event {
	type keyed struct {
		ev model.Event
		t  time.Time
		ok bool
	}
	ks := make([]keyed, len(events))
	for i, ev := range events {
		t, err := model.ParseEventTime(ev.Date, loc)
		ks[i] = keyed{ev: ev, t: t, ok: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].ok != ks[j].ok {
			return ks[i].ok
		}
		return ks[i].t.Before(ks[j].t)
	})

	out := make([]model.Event, len(ks))
	for i, k := range ks {
		out[i] = k.ev
	}
	return out
}
