package mpris

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-mpris-watch/internal/dbus"
	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

// nameOwnerMatchRule subscribes to ownership changes inside the MPRIS
// namespace only; the bus daemon filters everything else out.
const nameOwnerMatchRule = "type='signal',interface='" + idbus.DBUS_INTERFACE +
	"',member='NameOwnerChanged',arg0namespace='" + MPRIS_PREFIX + "'"

// Options configures a watch engine.
type Options struct {
	// PollInterval is the period of each watcher's position poll.
	// Defaults to DefaultPollInterval.
	PollInterval time.Duration

	// Filter restricts which discovered players are tracked. nil accepts
	// every player.
	Filter Filter
}

// Mpris discovers MPRIS players on the session bus and multiplexes their
// lifecycle, property, seek and position events into one consumer stream.
type Mpris struct {
	conn    *idbus.SharedConn
	ownConn bool

	registry  *Registry
	out       *stream.Queue[Event]
	lifecycle *stream.Broadcaster[string]
	filter    Filter
	interval  time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	// construction seams, replaced in tests
	build func(Identity) (*Player, error)
	start func(*Player)
}

// New connects to the session bus and builds a watch engine over it.
func New(ctx context.Context, opts Options) (*Mpris, error) {
	conn, err := idbus.ConnectSession()
	if err != nil {
		return nil, &SetupError{Op: "connect to session bus", Target: idbus.DBUS_INTERFACE, Err: err}
	}
	m := NewWithConn(ctx, conn, opts)
	m.ownConn = true
	return m, nil
}

// NewWithConn builds a watch engine over an existing shared connection. The
// caller keeps ownership of the connection.
func NewWithConn(ctx context.Context, conn *idbus.SharedConn, opts Options) *Mpris {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	subCtx, cancel := context.WithCancel(ctx)
	m := &Mpris{
		conn:      conn,
		registry:  NewRegistry(),
		out:       stream.NewQueue[Event](),
		lifecycle: stream.NewBroadcaster[string](),
		filter:    opts.Filter,
		interval:  interval,
		ctx:       subCtx,
		cancel:    cancel,
	}
	m.build = func(id Identity) (*Player, error) { return newPlayer(conn, id) }
	m.start = m.startWatcher
	return m
}

// Watch starts the discovery loop. Events are delivered through Events or
// Recv until Close.
func (m *Mpris) Watch() {
	go m.discover()
}

// Events returns the consumer side of the multiplexed stream. The channel
// is closed after Close, once buffered events are drained.
func (m *Mpris) Events() <-chan Event {
	return m.out.Out()
}

// Recv delivers the next event. It returns ErrChannelClosed once the stream
// has terminated.
func (m *Mpris) Recv(ctx context.Context) (Event, error) {
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-m.out.Out():
		if !ok {
			return Event{}, ErrChannelClosed
		}
		return ev, nil
	}
}

// Registry returns the live player registry.
func (m *Mpris) Registry() *Registry {
	return m.registry
}

// Players returns a snapshot of the currently registered players.
func (m *Mpris) Players() []*Player {
	return m.registry.Players()
}

// Close stops discovery and every watcher, then closes the event stream.
// Safe to call more than once.
func (m *Mpris) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		m.out.Close()
		if m.ownConn {
			if err := m.conn.Close(); err != nil {
				logger.Debug("[mpris] failed to close session bus: %v", err)
			}
		}
	})
}

// discover is the discovery loop task: subscribe to ownership changes,
// enumerate the bus, then track attach/detach until shutdown or a fatal
// error. Its own failures stop discovery but not already-running watchers.
func (m *Mpris) discover() {
	if err := m.conn.AddMatch(nameOwnerMatchRule); err != nil {
		m.fail(&SetupError{Op: "subscribe to NameOwnerChanged", Target: idbus.DBUS_INTERFACE, Err: err})
		return
	}
	signals := make(chan *dbus.Signal, signalBuffer)
	if err := m.conn.Signal(signals); err != nil {
		m.fail(&SetupError{Op: "register signal channel", Target: idbus.DBUS_INTERFACE, Err: err})
		return
	}
	defer func() {
		m.conn.RemoveSignal(signals)
		if err := m.conn.RemoveMatch(nameOwnerMatchRule); err != nil {
			logger.Debug("[mpris] failed to drop NameOwnerChanged match rule: %v", err)
		}
	}()

	if err := m.bootstrap(); err != nil {
		m.fail(err)
		return
	}
	logger.Info("[mpris] discovery started, %d players registered", m.registry.Len())

	for {
		// consumer shutdown is never starved by ownership churn
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		select {
		case <-m.ctx.Done():
			return
		case sig := <-signals:
			if !m.handleOwnerChange(sig) {
				return
			}
		}
	}
}

// bootstrap registers every MPRIS player already present on the bus.
// Unparsable names are expected (the bus is full of non-players) and
// skipped; a construction failure aborts the whole bootstrap.
func (m *Mpris) bootstrap() error {
	names, err := m.listNames()
	if err != nil {
		return err
	}
	for _, name := range names {
		id, err := ParseIdentity(name)
		if err != nil {
			continue
		}
		if !m.accepts(id) {
			logger.Debug("[mpris] player %s filtered out", name)
			continue
		}
		if err := m.attach(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mpris) listNames() ([]string, error) {
	busObj, err := m.conn.BusObject()
	if err != nil {
		return nil, &SetupError{Op: "create bus proxy", Target: idbus.DBUS_INTERFACE, Err: err}
	}
	var names []string
	call := busObj.Call(idbus.BUS_LIST_NAMES, 0)
	if err := idbus.CallWithTimeout(call); err != nil {
		return nil, &CallError{Op: "list bus names", Target: idbus.DBUS_INTERFACE, Err: err}
	}
	if err := call.Store(&names); err != nil {
		return nil, &CallError{Op: "list bus names", Target: idbus.DBUS_INTERFACE, Err: err}
	}
	return names, nil
}

func (m *Mpris) accepts(id Identity) bool {
	return m.filter == nil || m.filter(id)
}

// attach builds the player handle, registers it, starts its watcher and
// emits Attached, in that order.
func (m *Mpris) attach(id Identity) error {
	p, err := m.build(id)
	if err != nil {
		return err
	}
	m.registry.Insert(id, p)
	m.start(p)
	m.emit(attachedEvent(p))
	logger.Info("[mpris] player attached: %s", id.Short())
	return nil
}

// startWatcher subscribes the player to the lifecycle broadcast before the
// watcher goroutine exists, so a detach arriving immediately after attach
// cannot be missed.
func (m *Mpris) startWatcher(p *Player) {
	tokens := m.lifecycle.Subscribe()
	release := func() { m.lifecycle.Unsubscribe(tokens) }
	go p.watch(m.ctx, m.out, tokens, release, m.interval)
}

// handleOwnerChange processes one NameOwnerChanged notification. It reports
// false when discovery must stop. A change that is neither attach nor detach
// (owner handoff) produces no event: the registry tracks presence, not
// ownership identity.
func (m *Mpris) handleOwnerChange(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != idbus.NAME_OWNER_CHANGED {
		return true
	}
	change, err := idbus.ParseNameOwnerChanged(sig)
	if err != nil {
		m.fail(err)
		return false
	}
	if !strings.HasPrefix(change.Name, MPRIS_PREFIX) {
		return true
	}

	switch {
	case change.OldOwner == "" && change.NewOwner != "":
		id, err := ParseIdentity(change.Name)
		if err != nil {
			// a confirmed ownership change with a malformed name is a
			// bus contract violation
			m.fail(err)
			return false
		}
		if !m.accepts(id) {
			logger.Debug("[mpris] player %s filtered out", change.Name)
			return true
		}
		if err := m.attach(id); err != nil {
			m.fail(err)
			return false
		}

	case change.OldOwner != "" && change.NewOwner == "":
		id, err := ParseIdentity(change.Name)
		if err != nil {
			m.fail(err)
			return false
		}
		p, ok := m.registry.Remove(id)
		// The token goes out for every detach, registered or not; watchers
		// that do not match it just keep listening.
		m.lifecycle.Publish(change.Name)
		if ok {
			m.emit(detachedEvent(p.Identity()))
			logger.Info("[mpris] player detached: %s", id.Short())
		}
	}
	return true
}

func (m *Mpris) emit(ev Event) {
	m.out.Push(ev)
}

// fail reports a terminal discovery error on the stream. The stream itself
// stays open: running watchers are unaffected.
func (m *Mpris) fail(err error) {
	logger.Error("[mpris] discovery stopped: %v", err)
	m.out.Push(errorEvent(err))
}
