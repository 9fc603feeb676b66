package mpris

import "time"

const (
	// MPRIS D-Bus constants
	MPRIS_PREFIX       = "org.mpris.MediaPlayer2"
	MPRIS_PATH         = "/org/mpris/MediaPlayer2"
	MPRIS_INTERFACE    = "org.mpris.MediaPlayer2"
	MPRIS_PLAYER_IFACE = "org.mpris.MediaPlayer2.Player"

	// MPRIS signal names as delivered by godbus (interface.member)
	MPRIS_SEEKED_SIGNAL = MPRIS_PLAYER_IFACE + ".Seeked"
)

const (
	// DefaultPollInterval is the position poll period of a player watcher.
	DefaultPollInterval = time.Second

	// capabilityTTL bounds how long cached Can* flags are trusted.
	capabilityTTL = 5 * time.Second

	// signalBuffer is the per-watcher signal channel capacity.
	signalBuffer = 32
)

const (
	StatusPlaying PlaybackStatus = "Playing"
	StatusPaused  PlaybackStatus = "Paused"
	StatusStopped PlaybackStatus = "Stopped"
)

const (
	LoopNone     LoopStatus = "None"
	LoopTrack    LoopStatus = "Track"
	LoopPlaylist LoopStatus = "Playlist"
)
