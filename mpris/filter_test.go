package mpris

import "testing"

func mustIdentity(t *testing.T, bus string) Identity {
	t.Helper()
	id, err := ParseIdentity(bus)
	if err != nil {
		t.Fatalf("ParseIdentity(%q): %v", bus, err)
	}
	return id
}

func TestAllowDeny(t *testing.T) {
	spotify := mustIdentity(t, "org.mpris.MediaPlayer2.spotify")
	vlc := mustIdentity(t, "org.mpris.MediaPlayer2.vlc")
	firefox := mustIdentity(t, "org.mpris.MediaPlayer2.firefox.instance_1")

	tests := []struct {
		name  string
		allow []string
		deny  []string
		id    Identity
		want  bool
	}{
		{"empty lists return nil filter", nil, nil, spotify, true},
		{"allow by short name", []string{"spotify"}, nil, spotify, true},
		{"allow rejects others", []string{"spotify"}, nil, vlc, false},
		{"allow by bus prefix", []string{"org.mpris.MediaPlayer2.firefox"}, nil, firefox, true},
		{"deny by short name", nil, []string{"vlc"}, vlc, false},
		{"deny passes others", nil, []string{"vlc"}, spotify, true},
		{"deny wins over allow", []string{"spotify"}, []string{"spotify"}, spotify, false},
		{"allow and deny disjoint", []string{"spotify", "vlc"}, []string{"firefox"}, vlc, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := AllowDeny(tt.allow, tt.deny)
			if f == nil {
				if len(tt.allow) != 0 || len(tt.deny) != 0 {
					t.Fatal("non-empty lists should produce a filter")
				}
				// nil filter means accept-all
				return
			}
			if got := f(tt.id); got != tt.want {
				t.Errorf("filter(%s) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestAllowDenyNilForEmpty(t *testing.T) {
	if AllowDeny(nil, nil) != nil {
		t.Error("AllowDeny(nil, nil) should be nil (accept all)")
	}
	if AllowDeny([]string{}, []string{}) != nil {
		t.Error("AllowDeny with empty slices should be nil")
	}
}
