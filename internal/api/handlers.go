package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"wasteroutes/internal/store"
)

// GenerateTodayHandler runs today's plan generation. The first call of the
// day succeeds; every later call answers 409 with the conflict message the
// dashboard displays verbatim.
func (s *Server) GenerateTodayHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	res, err := s.Planner.GenerateToday(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "Daily routes already generated for today")
		case errors.Is(err, context.Canceled):
			// Client went away; nothing was persisted.
			writeError(w, http.StatusServiceUnavailable, "generation cancelled")
		default:
			s.Log.Error("generate today failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to generate daily routes")
		}
		return
	}
	msg := "Daily routes generated successfully"
	if res.Reason != "" {
		msg = fmt.Sprintf("Daily routes generated with reason: %s", res.Reason)
	}
	writeData(w, http.StatusOK, res, msg)
}

// TodayHandler returns today's stored plan in the dashboard table shape.
func (s *Server) TodayHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	view, err := s.Planner.Today(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No daily routes generated for today")
			return
		}
		s.Log.Error("today view failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load daily routes")
		return
	}
	writeData(w, http.StatusOK, view, "")
}

// TodayDirectionsHandler returns today's routes as chunked coordinate
// segments with encoded polylines for map rendering.
func (s *Server) TodayDirectionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	dirs, err := s.Planner.TodayDirections(r.Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No daily routes generated for today")
			return
		}
		s.Log.Error("today directions failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load route directions")
		return
	}
	writeData(w, http.StatusOK, dirs, "")
}

// EventsStreamHandler streams plan events over SSE until the client
// disconnects.
func (s *Server) EventsStreamHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	ch := s.Broker.Subscribe(topicPlans)
	defer s.Broker.Unsubscribe(topicPlans, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", sseData(evt))
			flusher.Flush()
		}
	}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler fails while the plan store is unreachable.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
