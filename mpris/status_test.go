package mpris

import (
	"errors"
	"testing"
)

func TestParsePlaybackStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    PlaybackStatus
		wantErr bool
	}{
		{"Playing", StatusPlaying, false},
		{"playing", StatusPlaying, false},
		{"PLAYING", StatusPlaying, false},
		{"Paused", StatusPaused, false},
		{"Stopped", StatusStopped, false},
		{"Buffering", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePlaybackStatus(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePlaybackStatus(%q) expected error", tt.in)
				}
				var statusErr *StatusError
				if !errors.As(err, &statusErr) {
					t.Errorf("error type = %T, want *StatusError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLoopStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    LoopStatus
		wantErr bool
	}{
		{"None", LoopNone, false},
		{"track", LoopTrack, false},
		{"Playlist", LoopPlaylist, false},
		{"Repeat", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLoopStatus(tt.in)
		if tt.wantErr != (err != nil) {
			t.Errorf("ParseLoopStatus(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("ParseLoopStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
