package mpris

import (
	"errors"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestMetadataTypedFields(t *testing.T) {
	m := NewMetadata(map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/com/spotify/track/123")),
		"xesam:title":   dbus.MakeVariant("Paranoid"),
		"xesam:album":   dbus.MakeVariant("Paranoid"),
		"xesam:artist":  dbus.MakeVariant([]string{"Black Sabbath"}),
		"mpris:length":  dbus.MakeVariant(int64(170_000_000)),
		"mpris:artUrl":  dbus.MakeVariant("https://example.org/cover.jpg"),
	})

	trackID, err := m.TrackID()
	if err != nil || trackID != "/com/spotify/track/123" {
		t.Errorf("TrackID() = %q, %v", trackID, err)
	}

	title, err := m.Title()
	if err != nil || title != "Paranoid" {
		t.Errorf("Title() = %q, %v", title, err)
	}

	artists, err := m.Artists()
	if err != nil || len(artists) != 1 || artists[0] != "Black Sabbath" {
		t.Errorf("Artists() = %v, %v", artists, err)
	}

	length, err := m.Length()
	if err != nil || length != 170*time.Second {
		t.Errorf("Length() = %v, %v", length, err)
	}

	artURL, err := m.ArtURL()
	if err != nil || artURL != "https://example.org/cover.jpg" {
		t.Errorf("ArtURL() = %q, %v", artURL, err)
	}
}

func TestMetadataStringTrackID(t *testing.T) {
	m := NewMetadata(map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant("/org/mpd/track/9"),
	})
	trackID, err := m.TrackID()
	if err != nil || trackID != "/org/mpd/track/9" {
		t.Errorf("TrackID() = %q, %v", trackID, err)
	}
}

func TestMetadataAbsentFields(t *testing.T) {
	m := NewMetadata(map[string]dbus.Variant{})

	if m.Has("xesam:title") {
		t.Error("Has should report absent key")
	}
	if title, err := m.Title(); err != nil || title != "" {
		t.Errorf("absent Title() = %q, %v; want empty, nil", title, err)
	}
	if artists, err := m.Artists(); err != nil || artists != nil {
		t.Errorf("absent Artists() = %v, %v; want nil, nil", artists, err)
	}
	if length, err := m.Length(); err != nil || length != 0 {
		t.Errorf("absent Length() = %v, %v; want 0, nil", length, err)
	}
}

func TestMetadataWrongTypes(t *testing.T) {
	m := NewMetadata(map[string]dbus.Variant{
		"xesam:title":   dbus.MakeVariant(int64(7)),
		"mpris:length":  dbus.MakeVariant("long"),
		"xesam:artist":  dbus.MakeVariant("not a list"),
		"mpris:trackid": dbus.MakeVariant(3.14),
	})

	for name, get := range map[string]func() error{
		"Title":   func() error { _, err := m.Title(); return err },
		"Length":  func() error { _, err := m.Length(); return err },
		"Artists": func() error { _, err := m.Artists(); return err },
		"TrackID": func() error { _, err := m.TrackID(); return err },
	} {
		err := get()
		if err == nil {
			t.Errorf("%s should fail on a mistyped field", name)
			continue
		}
		var fieldErr *FieldTypeError
		if !errors.As(err, &fieldErr) {
			t.Errorf("%s error type = %T, want *FieldTypeError", name, err)
		}
	}
}

func TestMetadataUint64Length(t *testing.T) {
	m := NewMetadata(map[string]dbus.Variant{
		"mpris:length": dbus.MakeVariant(uint64(1_000_000)),
	})
	length, err := m.Length()
	if err != nil || length != time.Second {
		t.Errorf("Length() = %v, %v", length, err)
	}
}
