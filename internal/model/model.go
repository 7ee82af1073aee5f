package model

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"
)

// Event is a single campus event as published by the portal's data file or
// derived from a subscribed ICS feed. The query engine only reads it.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date"` // ISO date or date-time, usually without zone
	Time        string   `json:"time,omitempty"`
	Location    string   `json:"location,omitempty"`
	Category    string   `json:"category,omitempty"`
	Status      string   `json:"status,omitempty"` // upcoming | ongoing | past
	Tags        []string `json:"tags,omitempty"`
	Organizer   string   `json:"organizer,omitempty"`
	Image       string   `json:"image,omitempty"`

	// Source is the catalog source ID ("file" or an ICS config ID).
	Source string `json:"source,omitempty"`
}

// UnmarshalJSON accepts numeric or string ids; the portal's data file uses
// both.
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	aux := struct {
		ID json.RawMessage `json:"id"`
		*alias
	}{alias: (*alias)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.ID = ""
	if len(aux.ID) == 0 || string(aux.ID) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.ID, &s); err == nil {
		e.ID = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(aux.ID, &n); err != nil {
		return errors.New("event id must be a string or number")
	}
	e.ID = n.String()
	return nil
}

const (
	StatusUpcoming = "upcoming"
	StatusOngoing  = "ongoing"
	StatusPast     = "past"
)

var eventTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEventTime parses an event date string. Values carrying an explicit
// offset (RFC 3339) keep it; zone-less values are read in loc.
func ParseEventTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty event date")
	}
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized event date: " + value)
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// EventResult is the structured assistant reply for an event search.
// Count is the true number of matches; Items holds at most the display cap.
type EventResult struct {
	Count int     `json:"count"`
	Items []Event `json:"items"`
}

// Message is one entry of a conversation. Exactly one of Content and
// Result is meaningful: Result is set for event-list replies.
type Message struct {
	ID        string       `json:"id"`
	Role      Role         `json:"role"`
	Content   string       `json:"content,omitempty"`
	Result    *EventResult `json:"result,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// Text renders the message as plain text, summarising event results.
func (m Message) Text() string {
	if m.Result == nil {
		return m.Content
	}
	var b strings.Builder
	b.WriteString("Found ")
	b.WriteString(strconv.Itoa(m.Result.Count))
	if m.Result.Count == 1 {
		b.WriteString(" event")
	} else {
		b.WriteString(" events")
	}
	for i, ev := range m.Result.Items {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString("; ")
		}
		b.WriteString(ev.Title)
		if ev.Date != "" {
			b.WriteString(" (")
			b.WriteString(ev.Date)
			b.WriteString(")")
		}
	}
	return b.String()
}

