package mpris

import "strings"

// PlaybackStatus represents the current playback state
type PlaybackStatus string

// LoopStatus represents the current loop/repeat state
type LoopStatus string

// ParsePlaybackStatus converts a raw property value to a PlaybackStatus.
// Matching is case-insensitive; anything but the three MPRIS values is a
// StatusError.
func ParsePlaybackStatus(s string) (PlaybackStatus, error) {
	switch strings.ToLower(s) {
	case "playing":
		return StatusPlaying, nil
	case "paused":
		return StatusPaused, nil
	case "stopped":
		return StatusStopped, nil
	default:
		return "", &StatusError{Value: s}
	}
}

// ParseLoopStatus converts a raw property value to a LoopStatus.
func ParseLoopStatus(s string) (LoopStatus, error) {
	switch strings.ToLower(s) {
	case "none":
		return LoopNone, nil
	case "track":
		return LoopTrack, nil
	case "playlist":
		return LoopPlaylist, nil
	default:
		return "", &StatusError{Value: s}
	}
}
