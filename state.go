package steamsync

// State is the lifecycle state of a Session.
type State int32

const (
	// StateNew is a session that was created but not connected.
	StateNew State = iota
	StateConnecting
	StateAuthenticating
	StateRosterLoading
	StatePolling
	StateDisconnecting
	StateDisconnected
	// StateFailed is terminal and reached from any non-terminal state.
	StateFailed
)

var stateNames = [...]string{
	StateNew:            "new",
	StateConnecting:     "connecting",
	StateAuthenticating: "authenticating",
	StateRosterLoading:  "roster_loading",
	StatePolling:        "polling",
	StateDisconnecting:  "disconnecting",
	StateDisconnected:   "disconnected",
	StateFailed:         "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Closing reports whether the session is shutting down or gone. Results that
// arrive in a closing state are dropped.
func (s State) Closing() bool {
	return s == StateDisconnecting || s == StateDisconnected || s == StateFailed
}

// Terminal reports whether the session has been released.
func (s State) Terminal() bool {
	return s == StateDisconnected || s == StateFailed
}
