package mpris

import (
	"context"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-mpris-watch/cache"
	idbus "github.com/b0bbywan/go-mpris-watch/internal/dbus"
	"github.com/b0bbywan/go-mpris-watch/logger"
	"github.com/b0bbywan/go-mpris-watch/stream"
)

// Player is the live handle to one registered MPRIS player. It is created by
// the discovery loop and stays valid until the matching Detached event.
type Player struct {
	conn       *idbus.SharedConn
	identity   Identity
	uniqueName string
	obj        dbus.BusObject

	// capability flags are polled rarely; cache them briefly
	caps *cache.Cache[bool]
}

// newPlayer builds the handle: a proxy object for the player's bus name plus
// the unique connection name owning it, used to route its signals.
func newPlayer(conn *idbus.SharedConn, identity Identity) (*Player, error) {
	obj, err := conn.Object(identity.Bus(), MPRIS_PATH)
	if err != nil {
		return nil, &SetupError{Op: "create player proxy", Target: identity.Bus(), Err: err}
	}

	busObj, err := conn.BusObject()
	if err != nil {
		return nil, &SetupError{Op: "create bus proxy", Target: identity.Bus(), Err: err}
	}
	var owner string
	call := busObj.Call(idbus.BUS_GET_NAME_OWNER, 0, identity.Bus())
	if err := idbus.CallWithTimeout(call); err != nil {
		return nil, &SetupError{Op: "resolve name owner", Target: identity.Bus(), Err: err}
	}
	if err := call.Store(&owner); err != nil {
		return nil, &SetupError{Op: "resolve name owner", Target: identity.Bus(), Err: err}
	}

	return &Player{
		conn:       conn,
		identity:   identity,
		uniqueName: owner,
		obj:        obj,
		caps:       cache.New[bool](capabilityTTL),
	}, nil
}

// Identity returns the parsed identity of the player.
func (p *Player) Identity() Identity { return p.identity }

// UniqueName returns the unique connection name (e.g. :1.107) that owned the
// player's bus name when the handle was created.
func (p *Player) UniqueName() string { return p.uniqueName }

func (p *Player) getProperty(iface, prop string) (dbus.Variant, error) {
	v, err := idbus.GetProperty(p.obj, iface, prop)
	if err != nil {
		return dbus.Variant{}, &CallError{Op: "get " + prop, Target: p.identity.Bus(), Err: err}
	}
	return v, nil
}

// PlaybackStatus reads and decodes the player's current playback state.
func (p *Player) PlaybackStatus() (PlaybackStatus, error) {
	v, err := p.getProperty(MPRIS_PLAYER_IFACE, "PlaybackStatus")
	if err != nil {
		return "", err
	}
	s, ok := idbus.ExtractString(v)
	if !ok {
		return "", &FieldTypeError{Field: "PlaybackStatus", Expected: "s", Got: v.Signature().String()}
	}
	return ParsePlaybackStatus(s)
}

// Position reads the current playback position.
func (p *Player) Position() (time.Duration, error) {
	v, err := p.getProperty(MPRIS_PLAYER_IFACE, "Position")
	if err != nil {
		return 0, err
	}
	us, ok := idbus.ExtractInt64(v)
	if !ok {
		return 0, &FieldTypeError{Field: "Position", Expected: "x", Got: v.Signature().String()}
	}
	return time.Duration(us) * time.Microsecond, nil
}

// Metadata reads the player's raw metadata map.
func (p *Player) Metadata() (Metadata, error) {
	v, err := p.getProperty(MPRIS_PLAYER_IFACE, "Metadata")
	if err != nil {
		return Metadata{}, err
	}
	raw, ok := idbus.ExtractVariantMap(v)
	if !ok {
		return Metadata{}, &FieldTypeError{Field: "Metadata", Expected: "a{sv}", Got: v.Signature().String()}
	}
	return NewMetadata(raw), nil
}

func (p *Player) floatProperty(prop string) (float64, error) {
	v, err := p.getProperty(MPRIS_PLAYER_IFACE, prop)
	if err != nil {
		return 0, err
	}
	f, ok := idbus.ExtractFloat64(v)
	if !ok {
		return 0, &FieldTypeError{Field: prop, Expected: "d", Got: v.Signature().String()}
	}
	return f, nil
}

// Rate reads the current playback rate.
func (p *Player) Rate() (float64, error) { return p.floatProperty("Rate") }

// MinimumRate reads the lowest rate the player supports.
func (p *Player) MinimumRate() (float64, error) { return p.floatProperty("MinimumRate") }

// MaximumRate reads the highest rate the player supports.
func (p *Player) MaximumRate() (float64, error) { return p.floatProperty("MaximumRate") }

// SetRate sets the playback rate, validated against CanControl and the
// player's advertised rate bounds.
func (p *Player) SetRate(rate float64) error {
	canControl, err := p.CanControl()
	if err != nil {
		return err
	}
	if !canControl {
		return &CapabilityError{Required: "CanControl"}
	}

	min, err := p.MinimumRate()
	if err != nil {
		return err
	}
	max, err := p.MaximumRate()
	if err != nil {
		return err
	}
	if rate < min || rate > max {
		return &ValidationError{Field: "rate", Message: "outside MinimumRate/MaximumRate bounds"}
	}

	if err := idbus.SetProperty(p.obj, MPRIS_PLAYER_IFACE, "Rate", rate); err != nil {
		return &CallError{Op: "set Rate", Target: p.identity.Bus(), Err: err}
	}
	return nil
}

func (p *Player) capability(prop string) (bool, error) {
	return p.caps.GetOrLoad(prop, func() (bool, error) {
		v, err := p.getProperty(MPRIS_PLAYER_IFACE, prop)
		if err != nil {
			return false, err
		}
		b, ok := idbus.ExtractBool(v)
		if !ok {
			return false, &FieldTypeError{Field: prop, Expected: "b", Got: v.Signature().String()}
		}
		return b, nil
	})
}

func (p *Player) CanPlay() (bool, error)       { return p.capability("CanPlay") }
func (p *Player) CanPause() (bool, error)      { return p.capability("CanPause") }
func (p *Player) CanGoNext() (bool, error)     { return p.capability("CanGoNext") }
func (p *Player) CanGoPrevious() (bool, error) { return p.capability("CanGoPrevious") }
func (p *Player) CanSeek() (bool, error)       { return p.capability("CanSeek") }
func (p *Player) CanControl() (bool, error)    { return p.capability("CanControl") }

// matchRules returns the signal subscriptions scoped to this player.
func (p *Player) matchRules() []string {
	return []string{
		"type='signal',interface='" + idbus.DBUS_PROP_IFACE + "',member='PropertiesChanged',path='" + MPRIS_PATH + "',sender='" + p.identity.Bus() + "'",
		"type='signal',interface='" + MPRIS_PLAYER_IFACE + "',member='Seeked',path='" + MPRIS_PATH + "',sender='" + p.identity.Bus() + "'",
	}
}

// watch opens the player's signal subscriptions and services them until the
// engine shuts down, the player detaches, or a poll fails. release frees the
// lifecycle token subscription; it is called on every exit path.
func (p *Player) watch(ctx context.Context, out *stream.Queue[Event], tokens <-chan string, release func(), interval time.Duration) {
	defer release()

	var added []string
	fail := func(op string, err error) {
		out.Push(errorEvent(&SetupError{Op: op, Target: p.identity.Bus(), Err: err}))
		for _, rule := range added {
			if rmErr := p.conn.RemoveMatch(rule); rmErr != nil {
				logger.Debug("[mpris] failed to drop match rule for %s: %v", p.identity.Short(), rmErr)
			}
		}
	}

	for _, rule := range p.matchRules() {
		if err := p.conn.AddMatch(rule); err != nil {
			fail("subscribe to player signals", err)
			return
		}
		added = append(added, rule)
	}

	signals := make(chan *dbus.Signal, signalBuffer)
	if err := p.conn.Signal(signals); err != nil {
		fail("register signal channel", err)
		return
	}
	defer func() {
		p.conn.RemoveSignal(signals)
		for _, rule := range added {
			if err := p.conn.RemoveMatch(rule); err != nil {
				logger.Debug("[mpris] failed to drop match rule for %s: %v", p.identity.Short(), err)
			}
		}
	}()

	w := &watcher{
		identity:   p.identity,
		uniqueName: p.uniqueName,
		signals:    signals,
		tokens:     tokens,
		interval:   interval,
		out:        out,
		status:     p.PlaybackStatus,
		position:   p.Position,
	}
	w.run(ctx)
}
