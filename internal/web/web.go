package web

import (
	"context"
	"crypto/subtle"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"campusbot/internal/chat"
	"campusbot/internal/config"
	appLog "campusbot/internal/log"
	"campusbot/internal/model"
	"campusbot/internal/query"
)

const maxBodyBytes = 16 << 10

// Server exposes the chat widget API and the embedded widget page.
type Server struct {
	cfg      *config.Config
	engine   *chat.Engine
	events   chat.EventSource
	sessions *sessionStore
	mux      *http.ServeMux
}

// embeddedStatic contains the widget page served at "/".
//
//go:embed all:static
var embeddedStatic embed.FS

// NewServer constructs a new Server. events must be the same source the
// engine searches.
func NewServer(cfg *config.Config, engine *chat.Engine, events chat.EventSource) *Server {
	s := &Server{
		cfg:      cfg,
		engine:   engine,
		events:   events,
		sessions: newSessionStore(engine, cfg.Widget.Greeting, cfg.Sessions.Max, cfg.Sessions.TTL()),
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty credentials disable auth.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="campusbot", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Serve runs the HTTP server on cfg.Listen until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/widget", s.handleWidget)
	s.mux.HandleFunc("GET /api/events", s.handleEvents)
	s.mux.HandleFunc("POST /api/interpret", s.handleInterpret)
	s.mux.HandleFunc("POST /api/chat", s.handleChat)
	s.mux.HandleFunc("DELETE /api/chat/{id}", s.handleCloseChat)

	// All other paths fall back to the embedded widget page.
	s.mux.Handle("/", s.staticFileServer())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) handleWidget(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Widget)
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Query  string        `json:"query,omitempty"`
	Intent *query.Intent `json:"intent,omitempty"`
	Count  int           `json:"count"`
	Events []model.Event `json:"events"`
}

// handleEvents lists the catalog. With ?q= the query is interpreted and,
// when it is an event search, its predicates filter the list.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.events.Events()
	resp := eventsResponse{}

	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		intent := s.engine.Interpreter().Interpret(q)
		resp.Query = q
		resp.Intent = &intent
		if intent.IsEventSearch() {
			events = query.FilterEvents(events, intent.Predicates)
		}
	}

	resp.Events = query.SortByDate(events, s.engine.Interpreter().Now().Location())
	resp.Count = len(resp.Events)
	writeJSON(w, http.StatusOK, resp)
}

type interpretRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.Interpreter().Interpret(req.Query))
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string          `json:"session_id"`
	Loading   bool            `json:"loading"`
	Messages  []model.Message `json:"messages"`
}

// handleChat runs one turn. An empty or expired session_id starts a new
// conversation; an empty message only returns the current state.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, created := s.sessions.acquire(req.SessionID)
	if created && req.SessionID != "" {
		appLog.Info("chat session expired; started a new one", "old", req.SessionID, "session", sess.ID)
	}

	_, _, err := sess.Send(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, "still answering the previous message")
		return
	case errors.Is(err, chat.ErrSessionClosed):
		writeError(w, http.StatusGone, "session closed")
		return
	case err != nil:
		appLog.Error("chat turn failed", err, "session", sess.ID)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	st := sess.State()
	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: sess.ID,
		Loading:   st.Loading,
		Messages:  st.Messages,
	})
}

func (s *Server) handleCloseChat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.sessions.close(id) {
		writeError(w, http.StatusNotFound, "unknown session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// staticFileServer serves the embedded widget page from internal/web/static.
func (s *Server) staticFileServer() http.Handler {
	sub, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		appLog.Error("failed to initialize embedded static filesystem", err)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "static UI not available", http.StatusServiceUnavailable)
		})
	}

	fileServer := http.FileServer(http.FS(sub))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		// Unknown /api/* paths get a 404, never the HTML page.
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		fileServer.ServeHTTP(w, r)
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
