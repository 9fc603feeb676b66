package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/mpris"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

const typeServerInfo = "server.info"

// wireEvent is the SSE data payload for one engine event.
type wireEvent struct {
	Player   *mpris.Identity `json:"player,omitempty"`
	Position *int64          `json:"position_us,omitempty"`
	Error    string          `json:"error,omitempty"`
	Message  string          `json:"message,omitempty"`
}

func toWire(e mpris.Event) wireEvent {
	var w wireEvent
	if e.Identity != (mpris.Identity{}) {
		id := e.Identity
		w.Player = &id
	}
	if e.Type == mpris.TypePosition {
		us := e.Position.Microseconds()
		w.Position = &us
	}
	if e.Err != nil {
		w.Error = e.Err.Error()
	}
	return w
}

// sseHandler returns an http.HandlerFunc that streams engine events to
// clients as server-sent events.
func sseHandler(b *stream.Broadcaster[mpris.Event]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := parseFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		keepAliveDuration, err := parseKeepAlive(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		if err := sendServerInfoToFlusher(flusher, w, "connected"); err != nil {
			return
		}

		ch := b.Subscribe()
		defer b.Unsubscribe(ch)
		keepAlive := time.NewTimer(keepAliveDuration)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				if err := sendServerInfoToFlusher(flusher, w, "bye"); err != nil {
					logger.Warn("[sse] failed to close events connection: %v", err)
				}
				return
			case <-keepAlive.C:
				if err := sendServerInfoToFlusher(flusher, w, "love"); err != nil {
					logger.Warn("[sse] failed to send keepalive, closing: %v", err)
					return
				}
				keepAlive.Reset(keepAliveDuration)
			case e, ok := <-ch:
				if !ok {
					return
				}
				if !filter(e.Type) {
					continue
				}
				if err := sendToFlusher(flusher, w, e.Type, toWire(e)); err != nil {
					return
				}
				keepAlive.Reset(keepAliveDuration)
			}
		}
	}
}

func sendServerInfoToFlusher(flusher http.Flusher, w http.ResponseWriter, message string) error {
	return sendToFlusher(flusher, w, typeServerInfo, wireEvent{Message: message})
}

func sendToFlusher(flusher http.Flusher, w http.ResponseWriter, eventType string, payload wireEvent) error {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("[sse] failed to marshal event data: %v", err)
		return err
	}
	if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, data); err != nil {
		logger.Error("[sse] failed to write to flusher: %v", err)
		return err
	}
	flusher.Flush()
	return nil
}

// parseKeepAlive reads the optional ?keepalive=<seconds> query parameter.
// Default: 30s. Min: 10s. Max: 120s.
func parseKeepAlive(r *http.Request) (time.Duration, error) {
	const defaultKeepalive = 30 * time.Second
	raw := r.URL.Query().Get("keepalive")
	if raw == "" {
		return defaultKeepalive, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New("keepalive must be an integer (seconds)")
	}
	if secs < 10 || secs > 120 {
		return 0, errors.New("keepalive must be between 10 and 120 seconds")
	}
	return time.Duration(secs) * time.Second, nil
}

// parseFilter builds an event type filter from the request's query parameters:
//   - ?types=player.attached,player.seeked — comma-separated type names to include
//   - ?exclude=player.position             — comma-separated type names to exclude
//
// Returns an error for unknown type names.
func parseFilter(r *http.Request) (func(string) bool, error) {
	q := r.URL.Query()

	include, err := splitTypes(q.Get("types"))
	if err != nil {
		return nil, err
	}
	exclude, err := splitTypes(q.Get("exclude"))
	if err != nil {
		return nil, err
	}

	return func(t string) bool {
		if slices.Contains(exclude, t) {
			return false
		}
		return len(include) == 0 || slices.Contains(include, t)
	}, nil
}

var knownTypes = []string{
	mpris.TypeAttached,
	mpris.TypeDetached,
	mpris.TypeProperties,
	mpris.TypeSeeked,
	mpris.TypePosition,
	mpris.TypeError,
}

func splitTypes(raw string) ([]string, error) {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t == "" {
			continue
		}
		if !slices.Contains(knownTypes, t) {
			return nil, fmt.Errorf("unknown event type: %s", t)
		}
		out = append(out, t)
	}
	return out, nil
}
