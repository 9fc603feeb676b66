package mpris

// Filter decides whether a discovered player should be tracked. A nil
// Filter accepts every player.
type Filter func(Identity) bool

// AllowDeny builds a Filter from allow/deny name lists. Entries are matched
// through the identity's own predicates, so both short labels ("spotify")
// and bus prefixes ("org.mpris.MediaPlayer2.spotify") work. Deny wins over
// allow; an empty allow list accepts everything not denied. Returns nil when
// both lists are empty.
func AllowDeny(allow, deny []string) Filter {
	if len(allow) == 0 && len(deny) == 0 {
		return nil
	}
	return func(id Identity) bool {
		for _, d := range deny {
			if id.MatchesEither(d) {
				return false
			}
		}
		if len(allow) == 0 {
			return true
		}
		for _, a := range allow {
			if id.MatchesEither(a) {
				return true
			}
		}
		return false
	}
}
