// Package session folds sorted timestamp sequences into session windows.
//
// A session is a maximal run of one subject's events in which every gap
// between consecutive events stays within the inactivity threshold.
package session

import "github.com/xtxerr/sessionstats/internal/grouper"

// DefaultGapSeconds is the default inactivity gap that closes a session.
const DefaultGapSeconds int64 = 1800

// Window is a non-empty ascending timestamp sequence in which any two
// consecutive elements differ by at most the gap threshold.
type Window []int64

// Length returns the duration of the window in seconds.
func (w Window) Length() int64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1] - w[0]
}

// KeySessions maps each key to its ordered, non-overlapping, maximal
// session windows.
type KeySessions map[string][]Window

// Split folds one key's ascending timestamps into session windows.
// A timestamp within gap seconds of the current session's last event
// extends that session; anything later starts a new one.
func Split(ts []int64, gap int64) []Window {
	if len(ts) == 0 {
		return nil
	}

	sessions := make([]Window, 0, 1)
	current := Window{ts[0]}
	for _, t := range ts[1:] {
		if t-current[len(current)-1] <= gap {
			current = append(current, t)
		} else {
			sessions = append(sessions, current)
			current = Window{t}
		}
	}
	return append(sessions, current)
}

// Sessionize splits every key's run into session windows. The grouped
// input must be fully combined first: sessionization of partial runs
// would produce bogus windows at partition boundaries.
func Sessionize(g grouper.Grouped, gap int64) KeySessions {
	ks := make(KeySessions, len(g))
	for key, run := range g {
		ks[key] = Split(run, gap)
	}
	return ks
}

// Count returns the total number of sessions across all keys.
func (ks KeySessions) Count() int64 {
	var n int64
	for _, windows := range ks {
		n += int64(len(windows))
	}
	return n
}
