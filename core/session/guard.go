package session

// AnonymousEntry is where denied navigations are sent.
const AnonymousEntry = "/"

// Snapshotter is anything that can report the current session, typically *Session.
type Snapshotter interface {
	Current() Snapshot
}

// Decision is the outcome of Authorize: either Allow, or a redirect target.
type Decision struct {
	Allow    bool
	Redirect string
}

// Authorize allows access iff the session is authenticated with exactly requiredRole.
// It is meant to be evaluated on every access, not once per navigation.
func Authorize(src Snapshotter, requiredRole string) Decision {
	snap := src.Current()
	if snap.Authenticated() && snap.Role() == requiredRole {
		return Decision{Allow: true}
	}
	return Decision{Redirect: AnonymousEntry}
}
