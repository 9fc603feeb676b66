package mpris

import "time"

// Event types carried on the watch stream.
const (
	TypeAttached   = "player.attached"
	TypeDetached   = "player.detached"
	TypeProperties = "player.properties"
	TypeSeeked     = "player.seeked"
	TypePosition   = "player.position"
	TypeError      = "watch.error"
)

// Event is one entry of the multiplexed watch stream. Every non-error event
// carries the identity of the player it concerns; Attached additionally
// carries the live player handle, Position the elapsed playback time.
type Event struct {
	Type     string
	Identity Identity
	Player   *Player
	Position time.Duration
	Err      error
}

func attachedEvent(p *Player) Event {
	return Event{Type: TypeAttached, Identity: p.Identity(), Player: p}
}

func detachedEvent(id Identity) Event {
	return Event{Type: TypeDetached, Identity: id}
}

func propertiesEvent(id Identity) Event {
	return Event{Type: TypeProperties, Identity: id}
}

func seekedEvent(id Identity) Event {
	return Event{Type: TypeSeeked, Identity: id}
}

func positionEvent(id Identity, pos time.Duration) Event {
	return Event{Type: TypePosition, Identity: id, Position: pos}
}

func errorEvent(err error) Event {
	return Event{Type: TypeError, Err: err}
}
