package sessions

import (
	"stocktrack/infra/metrics"
	"stocktrack/session"
)

// TrackActiveSessions keeps the active sessions gauge in line with the store.
func TrackActiveSessions(store *session.Store) (unsubscribe func()) {
	return store.Subscribe(func(change session.AuthChange) {
		switch change.Event {
		case session.SignedIn:
			metrics.ActiveSessions.Inc()
		case session.SignedOut:
			metrics.ActiveSessions.Dec()
		}
	})
}
