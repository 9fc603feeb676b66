package mpris

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-watch/internal/dbus"
	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

// watcher services one player's event sources. It owns no bus resources
// itself; Player.watch sets those up and tears them down around run.
type watcher struct {
	identity   Identity
	uniqueName string

	signals  <-chan *dbus.Signal
	tokens   <-chan string
	interval time.Duration
	out      *stream.Queue[Event]

	status   func() (PlaybackStatus, error)
	position func() (time.Duration, error)
}

// run loops until shutdown, detach or a poll failure. Priority is fixed:
// consumer shutdown first, then the lifecycle token, then player signals,
// then the poll tick. Shutdown and cancellation must preempt data so a
// watcher never emits after its identity has been told to stop.
func (w *watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Debug("[mpris] watcher started for %s", w.identity.Short())
	defer logger.Debug("[mpris] watcher stopped for %s", w.identity.Short())

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if w.drainTokens() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case name, ok := <-w.tokens:
			if !ok || w.identity.MatchesBusPrefix(name) {
				return
			}
		case sig := <-w.signals:
			if !w.handleSignal(sig) {
				return
			}
		case <-ticker.C:
			// pending signals are serviced ahead of the coarse poll
			if !w.drainSignals() {
				return
			}
			if !w.poll() {
				return
			}
		}
	}
}

// drainTokens consumes any pending lifecycle tokens without blocking and
// reports whether one of them addressed this watcher.
func (w *watcher) drainTokens() bool {
	for {
		select {
		case name, ok := <-w.tokens:
			if !ok || w.identity.MatchesBusPrefix(name) {
				return true
			}
		default:
			return false
		}
	}
}

// drainSignals handles any pending signals without blocking. It reports
// false once the event stream is gone.
func (w *watcher) drainSignals() bool {
	for {
		select {
		case sig := <-w.signals:
			if !w.handleSignal(sig) {
				return false
			}
		default:
			return true
		}
	}
}

// handleSignal emits the event a signal maps to, if any. It reports false
// once the event stream is gone.
func (w *watcher) handleSignal(sig *dbus.Signal) bool {
	switch w.classify(sig) {
	case TypeProperties:
		return w.out.Push(propertiesEvent(w.identity))
	case TypeSeeked:
		return w.out.Push(seekedEvent(w.identity))
	}
	return true
}

// classify maps a raw signal to the event type it should produce, or "" for
// signals that are not this player's. The signal channel carries every
// matched signal on the connection, so sender and path are re-checked here.
func (w *watcher) classify(sig *dbus.Signal) string {
	if sig == nil {
		return ""
	}
	if w.uniqueName != "" && sig.Sender != w.uniqueName && sig.Sender != w.identity.Bus() {
		return ""
	}
	if sig.Path != dbus.ObjectPath(MPRIS_PATH) {
		return ""
	}
	switch sig.Name {
	case idbus.PROP_CHANGED_SIGNAL:
		return TypeProperties
	case MPRIS_SEEKED_SIGNAL:
		return TypeSeeked
	}
	return ""
}

// poll reads the playback state and, while playing, the position. Poll
// failures are terminal: it reports false and the watcher stops.
func (w *watcher) poll() bool {
	status, err := w.status()
	if err != nil {
		w.out.Push(errorEvent(err))
		return false
	}
	if status != StatusPlaying {
		return true
	}

	pos, err := w.position()
	if err != nil {
		w.out.Push(errorEvent(err))
		return false
	}
	return w.out.Push(positionEvent(w.identity, pos))
}
