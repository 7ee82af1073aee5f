package ics

import (
	"errors"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "campusbot/internal/log"
	"campusbot/internal/model"
)

const defaultMaxOccurrencesPerEvent = 500

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// Location is the zone event dates are rendered in. Nil means time.Local.
	Location *time.Location

	// RangeStart / RangeEnd bound the occurrences kept, inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// Now decides the upcoming/ongoing/past status. Zero means time.Now.
	Now time.Time

	MaxOccurrencesPerEvent int
}

// ExpandEvents turns parsed VEVENTs into catalog events inside the
// configured window. RRULE/EXDATE are expanded and RECURRENCE-ID overrides
// replace the instance they point at. Cancelled instances are dropped.
func ExpandEvents(events []ParsedEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	order := make([]string, 0)
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			order = append(order, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]model.Event, 0)
	for _, uid := range order {
		for _, ev := range baseByUID[uid] {
			spans, capped := occurrences(ev, cfg)
			if capped {
				appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", cfg.MaxOccurrencesPerEvent)
			}
			for _, sp := range spans {
				inst := ev
				if o, ok := findOverride(overridesByUID[uid], sp.start); ok {
					inst = inheritFrom(o, ev)
					sp = span{start: o.Start, end: o.End}
				}
				if inst.Status == "CANCELLED" {
					continue
				}
				out = append(out, toEvent(inst, sp, cfg))
			}
		}
	}
	return out, nil
}

// inheritFrom fills fields an override left empty from its base event.
func inheritFrom(o, base ParsedEvent) ParsedEvent {
	if o.Summary == "" {
		o.Summary = base.Summary
	}
	if o.Description == "" {
		o.Description = base.Description
	}
	if o.Location == "" {
		o.Location = base.Location
	}
	if o.Organizer == "" {
		o.Organizer = base.Organizer
	}
	if len(o.Categories) == 0 {
		o.Categories = base.Categories
	}
	return o
}

type span struct {
	start time.Time
	end   time.Time
}

func occurrences(ev ParsedEvent, cfg ExpandConfig) ([]span, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
			return nil, false
		}
		return []span{{start: ev.Start, end: ev.End}}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	times := set.Between(cfg.RangeStart.In(ev.Start.Location()), cfg.RangeEnd.In(ev.Start.Location()), true)
	capped := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		capped = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]span, 0, len(times))
	for _, t := range times {
		if ev.AllDay {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			out = append(out, span{start: day, end: day.AddDate(0, 0, 1)})
			continue
		}
		out = append(out, span{start: t, end: t.Add(dur)})
	}
	return out, capped
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func toEvent(ev ParsedEvent, sp span, cfg ExpandConfig) model.Event {
	start := sp.start.In(cfg.Location)
	end := sp.end.In(cfg.Location)

	out := model.Event{
		ID:          ev.UID + "@" + start.Format(time.RFC3339),
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Organizer:   ev.Organizer,
		Status:      statusAt(start, end, cfg.Now),
		Source:      ev.Source.ID,
	}
	if ev.AllDay {
		out.Date = sp.start.Format("2006-01-02")
	} else {
		out.Date = start.Format("2006-01-02T15:04:05")
		out.Time = start.Format("15:04")
		if !end.Equal(start) {
			out.Time += " - " + end.Format("15:04")
		}
	}
	if len(ev.Categories) > 0 {
		out.Category = ev.Categories[0]
		for _, c := range ev.Categories {
			out.Tags = append(out.Tags, strings.ToLower(c))
		}
	}
	return out
}

func statusAt(start, end, now time.Time) string {
	switch {
	case now.Before(start):
		return model.StatusUpcoming
	case now.Before(end):
		return model.StatusOngoing
	default:
		return model.StatusPast
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
