package query

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Kind tags the variant of an Intent.
type Kind int

const (
	KindChat Kind = iota
	KindEventSearch
)

func (k Kind) String() string {
	if k == KindEventSearch {
		return "event_search"
	}
	return "chat"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Predicates are the optional filter criteria pulled out of a query. Empty
// strings and a nil Range mean "not specified".
type Predicates struct {
	Range    *DateRange `json:"range,omitempty"`
	Location string     `json:"location,omitempty"`
	Tag      string     `json:"tag,omitempty"`
	Category string     `json:"category,omitempty"`
	Status   string     `json:"status,omitempty"`
}

// Empty reports whether no predicate is set.
func (p Predicates) Empty() bool {
	return p.Range == nil && p.Location == "" && p.Tag == "" && p.Category == "" && p.Status == ""
}

// Intent is the classified purpose of one query. Predicates are only
// populated for KindEventSearch.
type Intent struct {
	Kind       Kind       `json:"kind"`
	Predicates Predicates `json:"predicates"`
}

// IsEventSearch is shorthand for Kind == KindEventSearch.
func (i Intent) IsEventSearch() bool {
	return i.Kind == KindEventSearch
}

var eventKeywords = []string{
	"event", "workshop", "hackathon", "seminar", "conference", "webinar",
	"talk", "meetup", "competition", "contest", "festival", "concert",
	"exhibition", "lecture", "tournament", "career fair", "club", "activity",
	"activities", "schedule", "happening", "what's on", "calendar",
	"sự kiện", "hội thảo", "lịch",
}

var campusKeywords = []string{"campus", "university", "đại học"}

var (
	questionWordsRe = regexp.MustCompile(`\b(what|when|where|which|who|is there|are there|any|show|list|find)\b`)
	timeWordsRe     = regexp.MustCompile(`\b(today|tonight|tomorrow|week|weekend|month|upcoming|soon|later|now|date|time|morning|afternoon|evening)\b`)
)

// Interpreter classifies free-text queries. The zero value is not usable;
// build one with NewInterpreter.
type Interpreter struct {
	now func() time.Time
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(in *Interpreter) {
		if now != nil {
			in.now = now
		}
	}
}

// WithLocation resolves dates in loc instead of the clock's own zone.
func WithLocation(loc *time.Location) Option {
	return func(in *Interpreter) {
		if loc == nil {
			return
		}
		base := in.now
		in.now = func() time.Time { return base().In(loc) }
	}
}

func NewInterpreter(opts ...Option) *Interpreter {
	in := &Interpreter{now: time.Now}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Now returns the interpreter's reference time.
func (in *Interpreter) Now() time.Time {
	return in.now()
}

// Interpret classifies query as an event search or generic chat.
//
// A relative date phrase or an explicit YYYY-MM-DD always means a search.
// Otherwise the query is a search when it names an event-ish word, asks a
// question about time, mentions the campus, or carries a tag: clause.
// The heuristics favour recall; "what time is it now" is a search.
func (in *Interpreter) Interpret(query string) Intent {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Intent{Kind: KindChat}
	}
	now := in.now()

	if r := ResolveDateRange(q, now); r != nil {
		return searchIntent(q, r)
	}
	if r := ParseExplicitDate(q, now.Location()); r != nil {
		return searchIntent(q, r)
	}

	hasEventKeyword := containsAny(q, eventKeywords)
	hasQuestionWords := questionWordsRe.MatchString(q)
	hasTimeWords := timeWordsRe.MatchString(q)
	mentionsCampus := containsAny(q, campusKeywords)

	if hasEventKeyword || (hasQuestionWords && hasTimeWords) || mentionsCampus || ExtractTag(q) != "" {
		return searchIntent(q, nil)
	}
	return Intent{Kind: KindChat}
}

func searchIntent(q string, r *DateRange) Intent {
	return Intent{
		Kind: KindEventSearch,
		Predicates: Predicates{
			Range:    r,
			Location: ExtractLocation(q),
			Tag:      ExtractTag(q),
			Category: ExtractCategory(q),
			Status:   ExtractStatus(q),
		},
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
