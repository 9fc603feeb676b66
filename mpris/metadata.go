package mpris

import (
	"time"

	"github.com/godbus/dbus/v5"
)

// Metadata wraps the raw MPRIS metadata map of a player. Accessors return
// the zero value with a nil error when a field is absent, and a
// FieldTypeError when a field is present with the wrong D-Bus type.
type Metadata struct {
	raw map[string]dbus.Variant
}

func NewMetadata(raw map[string]dbus.Variant) Metadata {
	return Metadata{raw: raw}
}

// Has reports whether the given metadata key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m.raw[key]
	return ok
}

// TrackID returns mpris:trackid. Players expose it either as a string or an
// object path.
func (m Metadata) TrackID() (string, error) {
	v, ok := m.raw["mpris:trackid"]
	if !ok {
		return "", nil
	}
	switch id := v.Value().(type) {
	case string:
		return id, nil
	case dbus.ObjectPath:
		return string(id), nil
	default:
		return "", &FieldTypeError{Field: "mpris:trackid", Expected: "s or o", Got: v.Signature().String()}
	}
}

// Title returns xesam:title.
func (m Metadata) Title() (string, error) {
	return m.stringField("xesam:title")
}

// Album returns xesam:album.
func (m Metadata) Album() (string, error) {
	return m.stringField("xesam:album")
}

// ArtURL returns mpris:artUrl.
func (m Metadata) ArtURL() (string, error) {
	return m.stringField("mpris:artUrl")
}

// Artists returns xesam:artist.
func (m Metadata) Artists() ([]string, error) {
	v, ok := m.raw["xesam:artist"]
	if !ok {
		return nil, nil
	}
	switch artists := v.Value().(type) {
	case []string:
		return artists, nil
	case []interface{}:
		out := make([]string, 0, len(artists))
		for _, a := range artists {
			s, ok := a.(string)
			if !ok {
				return nil, &FieldTypeError{Field: "xesam:artist", Expected: "as", Got: v.Signature().String()}
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, &FieldTypeError{Field: "xesam:artist", Expected: "as", Got: v.Signature().String()}
	}
}

// Length returns mpris:length. The wire value is in microseconds.
func (m Metadata) Length() (time.Duration, error) {
	v, ok := m.raw["mpris:length"]
	if !ok {
		return 0, nil
	}
	switch length := v.Value().(type) {
	case int64:
		return time.Duration(length) * time.Microsecond, nil
	case uint64:
		return time.Duration(length) * time.Microsecond, nil
	default:
		return 0, &FieldTypeError{Field: "mpris:length", Expected: "x or t", Got: v.Signature().String()}
	}
}

func (m Metadata) stringField(key string) (string, error) {
	v, ok := m.raw[key]
	if !ok {
		return "", nil
	}
	s, ok := v.Value().(string)
	if !ok {
		return "", &FieldTypeError{Field: key, Expected: "s", Got: v.Signature().String()}
	}
	return s, nil
}
