package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"

	appLog "campusbot/internal/log"
	"campusbot/internal/model"
	"campusbot/internal/query"
)

const (
	DefaultResultLimit = 6
	DefaultResultDelay = 500 * time.Millisecond
)

// EventSource supplies the current event collection. Implementations must
// not let callers mutate their internal state through the returned slice.
type EventSource interface {
	Events() []model.Event
}

// StaticEvents is a fixed EventSource.
type StaticEvents []model.Event

func (s StaticEvents) Events() []model.Event { return s }

// State is one conversation: an append-only message list plus the loading
// flag shown while an assistant reply is pending.
type State struct {
	Messages []model.Message `json:"messages"`
	Loading  bool            `json:"loading"`
}

// EffectKind describes the work needed to produce the pending reply.
type EffectKind int

const (
	// EffectNone: the input was ignored, nothing is pending.
	EffectNone EffectKind = iota
	// EffectReply: Reply is ready and should be shown after Delay.
	EffectReply
	// EffectDelegate: ask the chat backend about Message given History.
	EffectDelegate
)

// Effect is returned by HandleSend alongside the new state.
type Effect struct {
	Kind    EffectKind
	Intent  query.Intent
	Reply   model.Message
	Delay   time.Duration
	Message string
	History []model.Message
}

// Engine turns user input into conversation transitions. It holds no
// per-conversation state, so one Engine can serve many sessions.
type Engine struct {
	interpreter *query.Interpreter
	events      EventSource
	backend     Backend
	limit       int
	delay       time.Duration
	newID       func() string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

func WithInterpreter(in *query.Interpreter) EngineOption {
	return func(e *Engine) {
		if in != nil {
			e.interpreter = in
		}
	}
}

// WithBackend delegates non-search turns to b when b is configured.
func WithBackend(b Backend) EngineOption {
	return func(e *Engine) {
		if b != nil {
			e.backend = b
		}
	}
}

func WithResultLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// WithResultDelay sets the pause before search results are shown. Zero
// disables it.
func WithResultDelay(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// WithIDGenerator replaces the uuid-based message IDs.
func WithIDGenerator(f func() string) EngineOption {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

func NewEngine(events EventSource, opts ...EngineOption) *Engine {
	if events == nil {
		events = StaticEvents(nil)
	}
	e := &Engine{
		interpreter: query.NewInterpreter(),
		events:      events,
		backend:     NopBackend{},
		limit:       DefaultResultLimit,
		delay:       DefaultResultDelay,
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Interpreter exposes the engine's query interpreter.
func (e *Engine) Interpreter() *query.Interpreter {
	return e.interpreter
}

// Backend returns the configured chat backend.
func (e *Engine) Backend() Backend {
	return e.backend
}

// Start returns a new conversation seeded with one assistant greeting.
func (e *Engine) Start(greeting string) State {
	return State{Messages: []model.Message{e.assistantText(greeting)}}
}

// HandleSend records the user's input and describes how the assistant reply
// is produced. Blank input leaves the state untouched.
func (e *Engine) HandleSend(st State, input string) (State, Effect) {
	text := strings.TrimSpace(input)
	if text == "" {
		return st, Effect{Kind: EffectNone}
	}

	next := State{
		Messages: appendMessage(st.Messages, model.Message{
			ID:        e.newID(),
			Role:      model.RoleUser,
			Content:   text,
			Timestamp: e.interpreter.Now(),
		}),
		Loading: true,
	}

	intent := e.interpreter.Interpret(text)
	appLog.Debug("chat intent", "query", text, "kind", intent.Kind.String())

	if intent.IsEventSearch() {
		return next, Effect{
			Kind:   EffectReply,
			Intent: intent,
			Reply:  e.Search(intent),
			Delay:  e.delay,
		}
	}

	if backendConfigured(e.backend) {
		return next, Effect{
			Kind:    EffectDelegate,
			Intent:  intent,
			Message: text,
			History: append([]model.Message(nil), st.Messages...),
		}
	}

	return next, Effect{
		Kind:   EffectReply,
		Intent: intent,
		Reply:  e.assistantText(SmartResponse(strings.ToLower(text))),
	}
}

// Search runs an event-search intent against the current events and builds
// the assistant reply: an event list, or guidance when nothing matched.
func (e *Engine) Search(intent query.Intent) model.Message {
	matches := query.FilterEvents(e.events.Events(), intent.Predicates)
	appLog.Info("event search",
		"count", len(matches),
		"range", rangeLabel(intent.Predicates.Range),
		"location", intent.Predicates.Location,
		"tag", intent.Predicates.Tag,
		"category", intent.Predicates.Category,
		"status", intent.Predicates.Status,
	)
	if len(matches) == 0 {
		return e.assistantText(noResultsMessage(intent.Predicates))
	}
	return model.Message{
		ID:        e.newID(),
		Role:      model.RoleAssistant,
		Result:    buildResult(matches, e.limit, e.interpreter.Now().Location()),
		Timestamp: e.interpreter.Now(),
	}
}

// Reply wraps backend text as an assistant message.
func (e *Engine) Reply(text string) model.Message {
	return e.assistantText(text)
}

// Complete appends the assistant reply and clears the loading flag.
func Complete(st State, reply model.Message) State {
	return State{
		Messages: appendMessage(st.Messages, reply),
		Loading:  false,
	}
}

func (e *Engine) assistantText(text string) model.Message {
	return model.Message{
		ID:        e.newID(),
		Role:      model.RoleAssistant,
		Content:   text,
		Timestamp: e.interpreter.Now(),
	}
}

// appendMessage never shares the backing array with msgs, so earlier
// states stay valid after a transition.
func appendMessage(msgs []model.Message, m model.Message) []model.Message {
	out := make([]model.Message, len(msgs), len(msgs)+1)
	copy(out, msgs)
	return append(out, m)
}

func rangeLabel(r *query.DateRange) string {
	if r == nil {
		return ""
	}
	return r.Label
}
