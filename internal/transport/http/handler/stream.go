package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	syncapp "github.com/vanvan1998/todoApp/internal/application/sync"
)

const streamHeartbeat = 15 * time.Second

// Stream pushes view updates to the client as server-sent events. The first
// event carries the current view, then one event per recomputation. A
// heartbeat comment keeps idle connections from being reaped by proxies.
func (h *TodoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.open(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ch, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	if err := writeEvent(w, flusher, sess.Displayed()); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case view, open := <-ch:
			if !open {
				return
			}
			if err := writeEvent(w, flusher, view); err != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, view syncapp.View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
