package lifecycle

// StopOutcome is the result of StopServer
type StopOutcome string

const (
	// StopStopped means the server no longer answered after termination
	StopStopped StopOutcome = "stopped"
	// StopAlreadyStopped means nothing was running; the terminator was not invoked
	StopAlreadyStopped StopOutcome = "already_stopped"
	// StopDeclined means the user did not confirm
	StopDeclined StopOutcome = "declined"
	// StopStillRunning means the server still answered after termination
	StopStillRunning StopOutcome = "still_running"
)

// OK reports whether the server is down after the call
func (o StopOutcome) OK() bool {
	return o == StopStopped || o == StopAlreadyStopped
}

// Message is the user-facing text for the outcome
func (o StopOutcome) Message() string {
	switch o {
	case StopStopped:
		return MsgStopped
	case StopAlreadyStopped:
		return MsgAlreadyStopped
	case StopStillRunning:
		return MsgStillRunning
	default:
		return "Stop cancelled."
	}
}
