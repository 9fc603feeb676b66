package api

import (
	"errors"
	"net/http"

	"github.com/b0bbywan/go-mpris-watch/mpris"
)

// playerView is the JSON shape of one tracked player.
type playerView struct {
	Identity mpris.Identity       `json:"identity"`
	Owner    string               `json:"owner"`
	Status   mpris.PlaybackStatus `json:"status,omitempty"`
	Position int64                `json:"position_us,omitempty"`
	Title    string               `json:"title,omitempty"`
	Artists  []string             `json:"artists,omitempty"`
	Album    string               `json:"album,omitempty"`
}

type notFoundError struct {
	name string
}

func (e *notFoundError) Error() string {
	return "no tracked player matches " + e.name
}

// findPlayer resolves a short name or bus name prefix against the registry.
func findPlayer(m *mpris.Mpris, name string) (*mpris.Player, error) {
	for _, p := range m.Players() {
		if p.Identity().MatchesEither(name) {
			return p, nil
		}
	}
	return nil, &notFoundError{name}
}

// ListPlayersHandler returns the identities of all tracked players.
func ListPlayersHandler(m *mpris.Mpris) http.HandlerFunc {
	return JSONHandler(func(w http.ResponseWriter, r *http.Request) (any, error) {
		players := m.Players()
		ids := make([]mpris.Identity, 0, len(players))
		for _, p := range players {
			ids = append(ids, p.Identity())
		}
		return ids, nil
	})
}

// GetPlayerHandler returns a live snapshot of one player. Status, position
// and metadata are read from the player; fields it cannot serve are omitted.
func GetPlayerHandler(m *mpris.Mpris) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := findPlayer(m, r.PathValue("player"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, snapshot(p))
	}
}

func snapshot(p *mpris.Player) playerView {
	view := playerView{
		Identity: p.Identity(),
		Owner:    p.UniqueName(),
	}
	if status, err := p.PlaybackStatus(); err == nil {
		view.Status = status
	}
	if pos, err := p.Position(); err == nil {
		view.Position = pos.Microseconds()
	}
	if meta, err := p.Metadata(); err == nil {
		view.Title, _ = meta.Title()
		view.Artists, _ = meta.Artists()
		view.Album, _ = meta.Album()
	}
	return view
}

// handleError maps engine errors to HTTP status codes.
func handleError(w http.ResponseWriter, err error) {
	var invalidName *mpris.InvalidNameError
	if errors.As(err, &invalidName) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var notFound *notFoundError
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	var capErr *mpris.CapabilityError
	if errors.As(err, &capErr) {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	http.Error(w, err.Error(), http.StatusInternalServerError)
}
