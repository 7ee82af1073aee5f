package chat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusbot/internal/model"
	"campusbot/internal/query"
)

var ict = time.FixedZone("ICT", 7*3600)

func fixedNow() time.Time { return time.Date(2025, 3, 1, 8, 0, 0, 0, ict) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func newTestEngine(events []model.Event, opts ...EngineOption) *Engine {
	base := []EngineOption{
		WithInterpreter(query.NewInterpreter(query.WithClock(fixedNow))),
		WithResultDelay(0),
		WithIDGenerator(sequentialIDs()),
	}
	return NewEngine(StaticEvents(events), append(base, opts...)...)
}

var aiSummit = model.Event{
	ID:       "1",
	Title:    "AI Summit",
	Date:     "2025-03-01T10:00",
	Category: "Technical",
	Status:   "upcoming",
	Location: "Hall A",
	Tags:     []string{"ai"},
}

func TestHandleSend_EndToEndScenario(t *testing.T) {
	e := newTestEngine([]model.Event{aiSummit})
	st := e.Start("Hi!")

	next, eff := e.HandleSend(st, "events today tag:ai")
	require.Equal(t, EffectReply, eff.Kind)
	assert.True(t, next.Loading)
	require.Len(t, next.Messages, 2)
	assert.Equal(t, model.RoleUser, next.Messages[1].Role)
	assert.Equal(t, "events today tag:ai", next.Messages[1].Content)

	require.NotNil(t, eff.Reply.Result)
	assert.Equal(t, 1, eff.Reply.Result.Count)
	require.Len(t, eff.Reply.Result.Items, 1)
	assert.Equal(t, "AI Summit", eff.Reply.Result.Items[0].Title)

	done := Complete(next, eff.Reply)
	assert.False(t, done.Loading)
	require.Len(t, done.Messages, 3)
	assert.Equal(t, model.RoleAssistant, done.Messages[2].Role)
}

func TestHandleSend_BlankInputIsNoop(t *testing.T) {
	e := newTestEngine(nil)
	st := e.Start("Hi!")

	for _, in := range []string{"", "   ", "\n\t"} {
		next, eff := e.HandleSend(st, in)
		assert.Equal(t, EffectNone, eff.Kind)
		assert.Equal(t, st, next)
	}
}

func TestHandleSend_CapsAndSortsResults(t *testing.T) {
	var events []model.Event
	for day := 9; day >= 1; day-- {
		events = append(events, model.Event{
			ID:       fmt.Sprint(day),
			Title:    fmt.Sprintf("Workshop %d", day),
			Date:     fmt.Sprintf("2025-03-%02dT09:00", day),
			Category: "Technical",
		})
	}
	e := newTestEngine(events)

	_, eff := e.HandleSend(e.Start("Hi"), "technical workshops")
	require.NotNil(t, eff.Reply.Result)
	assert.Equal(t, 9, eff.Reply.Result.Count)
	require.Len(t, eff.Reply.Result.Items, DefaultResultLimit)
	for i, ev := range eff.Reply.Result.Items {
		assert.Equal(t, fmt.Sprint(i+1), ev.ID)
	}
	assert.Equal(t, "9", events[0].ID, "source events must keep their order")
}

func TestHandleSend_EmptyResultGuidance(t *testing.T) {
	e := newTestEngine([]model.Event{aiSummit})

	_, eff := e.HandleSend(e.Start("Hi"), "cultural events today")
	require.Equal(t, EffectReply, eff.Kind)
	assert.Nil(t, eff.Reply.Result)
	assert.Contains(t, eff.Reply.Content, "cultural")
	assert.Contains(t, eff.Reply.Content, "today")
	assert.Contains(t, eff.Reply.Content, "Suggestions")
}

func TestHandleSend_EmptyResultMentionsStatus(t *testing.T) {
	e := newTestEngine([]model.Event{aiSummit})

	_, eff := e.HandleSend(e.Start("Hi"), "past events")
	assert.Contains(t, eff.Reply.Content, "past events")
	assert.Contains(t, eff.Reply.Content, "upcoming events")
}

func TestHandleSend_ChatWithoutBackendUsesFallback(t *testing.T) {
	e := newTestEngine(nil)

	_, eff := e.HandleSend(e.Start("Hi"), "thanks!")
	require.Equal(t, EffectReply, eff.Kind)
	assert.Equal(t, SmartResponse("thanks!"), eff.Reply.Content)
	assert.Equal(t, time.Duration(0), eff.Delay)
}

func TestHandleSend_ChatWithBackendDelegates(t *testing.T) {
	backend := &fakeBackend{reply: "sure"}
	e := newTestEngine(nil, WithBackend(backend))
	st := e.Start("Hi")

	next, eff := e.HandleSend(st, "tell me a joke")
	require.Equal(t, EffectDelegate, eff.Kind)
	assert.Equal(t, "tell me a joke", eff.Message)
	assert.Equal(t, st.Messages, eff.History)
	assert.True(t, next.Loading)
}

func TestHandleSend_PreviousStateUntouched(t *testing.T) {
	e := newTestEngine(nil)
	st := e.Start("Hi")
	before := len(st.Messages)

	next, eff := e.HandleSend(st, "hello")
	_ = Complete(next, eff.Reply)

	assert.Len(t, st.Messages, before)
	assert.False(t, st.Loading)
}

func TestStartSeedsGreeting(t *testing.T) {
	e := newTestEngine(nil)
	st := e.Start("Welcome to campus events!")
	require.Len(t, st.Messages, 1)
	assert.Equal(t, model.RoleAssistant, st.Messages[0].Role)
	assert.Equal(t, "Welcome to campus events!", st.Messages[0].Content)
	assert.Equal(t, "m1", st.Messages[0].ID)
	assert.Equal(t, fixedNow(), st.Messages[0].Timestamp)
}
