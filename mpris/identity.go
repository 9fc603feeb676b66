package mpris

import (
	"encoding/json"
	"strings"
)

// Identity is the parsed name of an MPRIS player: the full bus name
// (e.g. org.mpris.MediaPlayer2.spotify) and its short label (spotify, the
// 4th dot-separated segment). It is an immutable comparable value, usable
// as a map key.
type Identity struct {
	short string
	bus   string
}

// ParseIdentity builds an Identity from a bus name. It fails with
// InvalidNameError when the name has fewer than 4 dot-separated segments or
// does not start with the MPRIS namespace prefix.
func ParseIdentity(bus string) (Identity, error) {
	parts := strings.Split(bus, ".")
	if len(parts) < 4 {
		return Identity{}, &InvalidNameError{Name: bus}
	}
	if !strings.HasPrefix(bus, MPRIS_PREFIX) {
		return Identity{}, &InvalidNameError{Name: bus}
	}
	return Identity{short: parts[3], bus: bus}, nil
}

// Short returns the player's short label.
func (id Identity) Short() string { return id.short }

// Bus returns the full bus name, unchanged from what ParseIdentity was given.
func (id Identity) Bus() string { return id.bus }

func (id Identity) String() string { return id.bus }

// MatchesShort reports whether the short label equals other exactly.
func (id Identity) MatchesShort(other string) bool {
	return id.short == other
}

// MatchesBusPrefix reports whether the bus name starts with other. The
// candidate must itself be a namespace-prefixed string; an empty or
// malformed candidate never matches, even when the bus name would
// textually start with it.
func (id Identity) MatchesBusPrefix(other string) bool {
	return strings.HasPrefix(other, MPRIS_PREFIX) && strings.HasPrefix(id.bus, other)
}

// MatchesEither reports whether the short label or the bus prefix matches.
func (id Identity) MatchesEither(other string) bool {
	return id.MatchesShort(other) || id.MatchesBusPrefix(other)
}

// MatchesBoth reports whether the short label and the bus prefix both match.
func (id Identity) MatchesBoth(other string) bool {
	return id.MatchesShort(other) && id.MatchesBusPrefix(other)
}

func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Short string `json:"short"`
		Bus   string `json:"bus"`
	}{Short: id.short, Bus: id.bus})
}
