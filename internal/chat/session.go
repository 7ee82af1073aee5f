package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	appLog "campusbot/internal/log"
	"campusbot/internal/model"
)

// BackendErrorReply replaces any backend failure in the conversation.
const BackendErrorReply = "Sorry, I'm having trouble answering right now. " +
	"Please try again in a moment, or ask me about events, e.g. \"events today\"."

var (
	// ErrBusy is returned when a turn is sent while the previous one is
	// still pending.
	ErrBusy = errors.New("session is waiting for a reply")
	// ErrSessionClosed is returned once the session has been closed. A
	// reply that arrives after Close is dropped.
	ErrSessionClosed = errors.New("session closed")
)

// Session drives one conversation through an Engine, performing the
// effects the reducer asks for.
type Session struct {
	ID string

	engine *Engine

	mu     sync.Mutex
	state  State
	closed bool
}

func NewSession(id string, engine *Engine, greeting string) *Session {
	return &Session{
		ID:     id,
		engine: engine,
		state:  engine.Start(greeting),
	}
}

// State returns a copy of the conversation.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Messages: append([]model.Message(nil), s.state.Messages...),
		Loading:  s.state.Loading,
	}
}

// Loading reports whether a reply is pending.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Loading
}

// Close stops the session from accepting input and from recording replies
// that are still in flight.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Send runs one turn and returns the assistant reply. Blank input is
// ignored: the returned bool is false and nothing is recorded. Backend
// failures never surface as errors; they become BackendErrorReply.
func (s *Session) Send(ctx context.Context, input string) (model.Message, bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Message{}, false, ErrSessionClosed
	}
	if s.state.Loading {
		s.mu.Unlock()
		return model.Message{}, false, ErrBusy
	}
	next, eff := s.engine.HandleSend(s.state, input)
	if eff.Kind == EffectNone {
		s.mu.Unlock()
		return model.Message{}, false, nil
	}
	s.state = next
	s.mu.Unlock()

	reply := s.perform(ctx, eff)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		appLog.Debug("chat reply dropped after close", "session", s.ID)
		return reply, false, ErrSessionClosed
	}
	s.state = Complete(s.state, reply)
	return reply, true, nil
}

func (s *Session) perform(ctx context.Context, eff Effect) model.Message {
	switch eff.Kind {
	case EffectDelegate:
		text, err := s.engine.backend.Send(ctx, eff.Message, eff.History)
		if err != nil {
			appLog.Error("chat backend failed", err, "session", s.ID)
			return s.engine.Reply(BackendErrorReply)
		}
		if strings.TrimSpace(text) == "" {
			appLog.Warn("chat backend returned empty reply", "session", s.ID)
			return s.engine.Reply(BackendErrorReply)
		}
		return s.engine.Reply(text)
	default:
		pause(ctx, eff.Delay)
		return eff.Reply
	}
}

// pause waits d or until ctx is done, whichever comes first.
func pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
