package session

// GuardState is what a protected screen should do given the session.
type GuardState int

const (
	// GuardRestoring shows a neutral loading line and never redirects.
	GuardRestoring GuardState = iota
	// GuardAuthenticated renders the protected screen.
	GuardAuthenticated
	// GuardUnauthenticated redirects to login.
	GuardUnauthenticated
)

func (g GuardState) String() string {
	switch g {
	case GuardRestoring:
		return "restoring"
	case GuardAuthenticated:
		return "authenticated"
	case GuardUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Guard derives the guard state. It holds no state of its own.
func (s Snapshot) Guard() GuardState {
	switch {
	case s.Loading:
		return GuardRestoring
	case s.IsAuthenticated():
		return GuardAuthenticated
	default:
		return GuardUnauthenticated
	}
}
