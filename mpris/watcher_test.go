package mpris

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-watch/internal/dbus"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

type statusResult struct {
	status PlaybackStatus
	err    error
}

type watcherHarness struct {
	w       *watcher
	out     *stream.Queue[Event]
	signals chan *dbus.Signal
	tokens  chan string
	status  atomic.Value // statusResult
	done    chan struct{}
	cancel  context.CancelFunc
}

func startWatcherHarness(t *testing.T, interval time.Duration) *watcherHarness {
	t.Helper()
	h := &watcherHarness{
		out:     stream.NewQueue[Event](),
		signals: make(chan *dbus.Signal, signalBuffer),
		tokens:  make(chan string, 8),
		done:    make(chan struct{}),
	}
	h.status.Store(statusResult{status: StatusStopped})

	id := mustIdentity(t, "org.mpris.MediaPlayer2.spotify")
	h.w = &watcher{
		identity:   id,
		uniqueName: ":1.7",
		signals:    h.signals,
		tokens:     h.tokens,
		interval:   interval,
		out:        h.out,
		status: func() (PlaybackStatus, error) {
			res := h.status.Load().(statusResult)
			return res.status, res.err
		},
		position: func() (time.Duration, error) {
			return 90 * time.Second, nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		h.w.run(ctx)
		close(h.done)
	}()
	t.Cleanup(func() {
		cancel()
		h.waitStopped(t)
		h.out.Close()
	})
	return h
}

func (h *watcherHarness) waitStopped(t *testing.T) {
	t.Helper()
	select {
	case <-h.done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func (h *watcherHarness) nextEvent(t *testing.T) Event {
	t.Helper()
	select {
	case ev, ok := <-h.out.Out():
		if !ok {
			t.Fatal("stream closed while expecting an event")
		}
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	panic("unreachable")
}

func (h *watcherHarness) expectNoEvent(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-h.out.Out():
		t.Fatalf("unexpected event %s (%v)", ev.Type, ev.Err)
	case <-time.After(wait):
	}
}

func playerSignal(name string) *dbus.Signal {
	return &dbus.Signal{
		Sender: ":1.7",
		Path:   dbus.ObjectPath(MPRIS_PATH),
		Name:   name,
		Body:   []interface{}{MPRIS_PLAYER_IFACE, map[string]dbus.Variant{}, []string{}},
	}
}

func TestWatcherEmitsPropertiesAndSeeked(t *testing.T) {
	h := startWatcherHarness(t, time.Hour) // tick never fires

	h.signals <- playerSignal(idbus.PROP_CHANGED_SIGNAL)
	ev := h.nextEvent(t)
	if ev.Type != TypeProperties || ev.Identity.Short() != "spotify" {
		t.Errorf("event = %s/%s", ev.Type, ev.Identity.Short())
	}

	h.signals <- playerSignal(MPRIS_SEEKED_SIGNAL)
	ev = h.nextEvent(t)
	if ev.Type != TypeSeeked {
		t.Errorf("event = %s, want %s", ev.Type, TypeSeeked)
	}
}

func TestWatcherIgnoresForeignSender(t *testing.T) {
	h := startWatcherHarness(t, time.Hour)

	sig := playerSignal(idbus.PROP_CHANGED_SIGNAL)
	sig.Sender = ":1.99"
	h.signals <- sig
	h.expectNoEvent(t, 50*time.Millisecond)
}

func TestWatcherIgnoresForeignPath(t *testing.T) {
	h := startWatcherHarness(t, time.Hour)

	sig := playerSignal(idbus.PROP_CHANGED_SIGNAL)
	sig.Path = "/org/freedesktop/DBus"
	h.signals <- sig
	h.expectNoEvent(t, 50*time.Millisecond)
}

func TestWatcherStopsOnMatchingToken(t *testing.T) {
	h := startWatcherHarness(t, time.Hour)

	// a token for a different player is ignored
	h.tokens <- "org.mpris.MediaPlayer2.vlc"
	h.expectNoEvent(t, 30*time.Millisecond)
	select {
	case <-h.done:
		t.Fatal("watcher stopped on a non-matching token")
	default:
	}

	// its own bus name stops it, silently
	h.tokens <- "org.mpris.MediaPlayer2.spotify"
	h.waitStopped(t)
	h.expectNoEvent(t, 30*time.Millisecond)
}

func TestWatcherStopsOnNamespaceToken(t *testing.T) {
	h := startWatcherHarness(t, time.Hour)

	// prefix matching: the bare namespace addresses every watcher
	h.tokens <- MPRIS_PREFIX
	h.waitStopped(t)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	h := startWatcherHarness(t, time.Hour)

	h.cancel()
	h.waitStopped(t)
	h.expectNoEvent(t, 30*time.Millisecond)
}

func TestWatcherNoPositionWhileNotPlaying(t *testing.T) {
	h := startWatcherHarness(t, 10*time.Millisecond)

	h.status.Store(statusResult{status: StatusPaused})
	h.expectNoEvent(t, 60*time.Millisecond)

	// the moment playback starts, the next tick emits a position
	h.status.Store(statusResult{status: StatusPlaying})
	ev := h.nextEvent(t)
	if ev.Type != TypePosition {
		t.Fatalf("event = %s, want %s", ev.Type, TypePosition)
	}
	if ev.Position != 90*time.Second {
		t.Errorf("position = %v, want 90s", ev.Position)
	}
}

func TestWatcherStopsOnUndecodableStatus(t *testing.T) {
	h := startWatcherHarness(t, 10*time.Millisecond)

	statusErr := &StatusError{Value: "Buffering"}
	h.status.Store(statusResult{err: statusErr})

	ev := h.nextEvent(t)
	if ev.Type != TypeError {
		t.Fatalf("event = %s, want %s", ev.Type, TypeError)
	}
	var se *StatusError
	if !errors.As(ev.Err, &se) {
		t.Errorf("err = %v, want *StatusError", ev.Err)
	}
	// poll failures are terminal, no retry
	h.waitStopped(t)
}

func TestWatcherStopsWhenStreamCloses(t *testing.T) {
	h := startWatcherHarness(t, 10*time.Millisecond)

	h.status.Store(statusResult{status: StatusPlaying})
	h.nextEvent(t) // at least one position delivered

	h.out.Close()
	h.waitStopped(t)
}

func TestClassify(t *testing.T) {
	id := mustIdentity(t, "org.mpris.MediaPlayer2.spotify")
	w := &watcher{identity: id, uniqueName: ":1.7"}

	tests := []struct {
		name string
		sig  *dbus.Signal
		want string
	}{
		{"nil signal", nil, ""},
		{"properties", playerSignal(idbus.PROP_CHANGED_SIGNAL), TypeProperties},
		{"seeked", playerSignal(MPRIS_SEEKED_SIGNAL), TypeSeeked},
		{"name owner changed", ownerChange("org.mpris.MediaPlayer2.vlc", "", ":1.2"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.classify(tt.sig); got != tt.want {
				t.Errorf("classify = %q, want %q", got, tt.want)
			}
		})
	}

	// well-known-name sender is accepted too
	sig := playerSignal(idbus.PROP_CHANGED_SIGNAL)
	sig.Sender = "org.mpris.MediaPlayer2.spotify"
	if got := w.classify(sig); got != TypeProperties {
		t.Errorf("classify(well-known sender) = %q, want %q", got, TypeProperties)
	}
}
