package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// sseWriteTimeout bounds a single write to one stream client so a stalled
// connection cannot pin the handler goroutine.
const sseWriteTimeout = 5 * time.Second

// handleStream pushes hub events to the client as Server-Sent Events. The
// first event is always the hub's hello; the connection stays open until the
// client goes away.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeEvent := func(name string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				deadlinesSupported = false
			}
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := s.Hub.Subscribe()
	defer s.Hub.Unsubscribe(sub)

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := writeEvent(ev.Name, ev.Data); err != nil {
				s.Logger.Debug("stream_client_gone", zap.Error(err))
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}
