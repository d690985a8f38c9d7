package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/habitmate/habitmate/internal/service"
)

const keepAliveInterval = 25 * time.Second

// eventStream writes server-sent events. Sends are serialized because subscription
// callbacks run on their own goroutine.
type eventStream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &eventStream{w: w, flusher: flusher}, true
}

func (s *eventStream) send(event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		slog.Error("failed to encode event", "event", event, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload)
	if err != nil {
		slog.Debug("event stream write failed", "event", event, "error", err)
		return
	}
	s.flusher.Flush()
}

func (s *eventStream) sendError(err error) {
	s.send("error", errorDetail{Code: "UNAVAILABLE", Message: err.Error()})
}

func (s *eventStream) keepAlive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprint(s.w, ": keepalive\n\n")
	s.flusher.Flush()
}

// serve blocks until sub ends, either because the client went away or the
// listener stopped. No callback runs after serve returns.
func (s *eventStream) serve(sub *service.Subscription) {
	defer sub.Close()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.Done():
			return
		case <-ticker.C:
			s.keepAlive()
		}
	}
}
