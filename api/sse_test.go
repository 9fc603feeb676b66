package api

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/b0bbywan/go-mpris-watch/mpris"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

// runSSE runs the handler in the background, lets it settle, optionally feeds
// events, then cancels the request and returns the response body.
func runSSE(t *testing.T, target string, feed func(b *stream.Broadcaster[mpris.Event])) (string, *http.Response) {
	t.Helper()

	b := stream.NewBroadcaster[mpris.Event]()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	ctx, cancel := context.WithCancel(context.Background())
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		sseHandler(b)(w, req)
	}()

	// Give the handler a moment to subscribe and write the greeting.
	time.Sleep(20 * time.Millisecond)
	if feed != nil {
		feed(b)
		time.Sleep(30 * time.Millisecond)
	}
	cancel()
	<-done

	return w.Body.String(), w.Result()
}

func TestSSEHandlerContentType(t *testing.T) {
	_, resp := runSSE(t, "/events", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected Content-Type text/event-stream, got %q", ct)
	}
}

func TestSSEHandlerGreeting(t *testing.T) {
	body, _ := runSSE(t, "/events", nil)
	if !strings.Contains(body, "event: "+typeServerInfo) {
		t.Errorf("expected %s greeting in body, got: %q", typeServerInfo, body)
	}
	if !strings.Contains(body, "connected") {
		t.Errorf("expected connected message in body, got: %q", body)
	}
}

func TestSSEHandlerEventDelivery(t *testing.T) {
	id := mustIdentity(t, "org.mpris.MediaPlayer2.vlc")
	body, _ := runSSE(t, "/events", func(b *stream.Broadcaster[mpris.Event]) {
		b.Publish(mpris.Event{Type: mpris.TypeSeeked, Identity: id})
	})

	scanner := bufio.NewScanner(strings.NewReader(body))
	found := false
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), "event: "+mpris.TypeSeeked) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("expected 'event: %s' line in SSE body, got: %q", mpris.TypeSeeked, body)
	}
	if !strings.Contains(body, `"short":"vlc"`) {
		t.Errorf("expected identity payload in SSE body, got: %q", body)
	}
}

func TestSSEHandlerFilteredDelivery(t *testing.T) {
	id := mustIdentity(t, "org.mpris.MediaPlayer2.vlc")
	body, _ := runSSE(t, "/events?types=player.seeked", func(b *stream.Broadcaster[mpris.Event]) {
		b.Publish(mpris.Event{Type: mpris.TypePosition, Identity: id})
		b.Publish(mpris.Event{Type: mpris.TypeSeeked, Identity: id})
	})

	if strings.Contains(body, "event: "+mpris.TypePosition) {
		t.Error("player.position should not appear when filter is player.seeked only")
	}
	if !strings.Contains(body, "event: "+mpris.TypeSeeked) {
		t.Errorf("player.seeked should appear in filtered SSE body, got: %q", body)
	}
}

func TestSSEHandlerUnknownTypeRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events?types=bogus", nil)
	w := httptest.NewRecorder()
	sseHandler(stream.NewBroadcaster[mpris.Event]())(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown type, got %d", w.Code)
	}
}

func TestSSEHandlerBadKeepalive(t *testing.T) {
	for _, target := range []string{"/events?keepalive=abc", "/events?keepalive=5", "/events?keepalive=500"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		sseHandler(stream.NewBroadcaster[mpris.Event]())(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, w.Code)
		}
	}
}

func TestParseFilterNoParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	f, err := parseFilter(req)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	for _, typ := range knownTypes {
		if !f(typ) {
			t.Errorf("pass-all filter should pass %s", typ)
		}
	}
}

func TestParseFilterTypesAndExclude(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/events?types=player.attached,player.detached&exclude=player.detached", nil)
	f, err := parseFilter(req)
	if err != nil {
		t.Fatalf("parseFilter: %v", err)
	}
	if !f(mpris.TypeAttached) {
		t.Errorf("filter should pass %s", mpris.TypeAttached)
	}
	if f(mpris.TypeDetached) {
		t.Errorf("exclude should win over types for %s", mpris.TypeDetached)
	}
	if f(mpris.TypePosition) {
		t.Errorf("filter should block %s", mpris.TypePosition)
	}
}
