package web

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"campusbot/internal/chat"
	appLog "campusbot/internal/log"
)

// sessionStore keeps one chat.Session per widget visitor. Idle sessions
// expire after the TTL and the least recently used are evicted past max;
// either way the session is closed so an in-flight reply is discarded.
type sessionStore struct {
	engine   *chat.Engine
	greeting string
	cache    *expirable.LRU[string, *chat.Session]
}

func newSessionStore(engine *chat.Engine, greeting string, max int, ttl time.Duration) *sessionStore {
	onEvict := func(id string, s *chat.Session) {
		s.Close()
		appLog.Debug("chat session closed", "session", id)
	}
	return &sessionStore{
		engine:   engine,
		greeting: greeting,
		cache:    expirable.NewLRU[string, *chat.Session](max, onEvict, ttl),
	}
}

// acquire returns the session for id, starting a new one when id is empty
// or unknown.
func (st *sessionStore) acquire(id string) (*chat.Session, bool) {
	if id != "" {
		if s, ok := st.cache.Get(id); ok {
			return s, false
		}
	}
	s := chat.NewSession(uuid.NewString(), st.engine, st.greeting)
	st.cache.Add(s.ID, s)
	appLog.Debug("chat session started", "session", s.ID)
	return s, true
}

// close removes and closes the session. It reports whether it existed.
func (st *sessionStore) close(id string) bool {
	return st.cache.Remove(id)
}

func (st *sessionStore) len() int {
	return st.cache.Len()
}
