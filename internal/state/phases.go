// Package state tracks the lifecycle phase of the MCP Shark server as seen by
// the controller. The tracker is observational: it feeds logs, metrics and the
// status views, and no lifecycle decision reads it.
package state

// Phase is the controller's view of the server
type Phase string

const (
	PhaseUnknown     Phase = "unknown"
	PhaseProbing     Phase = "probing"
	PhaseRunning     Phase = "running"
	PhaseNotRunning  Phase = "not_running"
	PhaseLaunching   Phase = "launching"
	PhasePolling     Phase = "polling"
	PhaseStartFailed Phase = "start_failed"
	PhaseStopping    Phase = "stopping"
)

// Info provides metadata about each phase
type Info struct {
	Name        Phase
	Description string
	UserMessage string
	IsError     bool
}

var phaseInfo = map[Phase]Info{
	PhaseUnknown: {
		Name:        PhaseUnknown,
		Description: "Server state not yet probed",
		UserMessage: "Checking MCP Shark server...",
	},
	PhaseProbing: {
		Name:        PhaseProbing,
		Description: "Probing the server endpoint",
		UserMessage: "Checking MCP Shark server...",
	},
	PhaseRunning: {
		Name:        PhaseRunning,
		Description: "Server answered the reachability probe",
		UserMessage: "MCP Shark server is running",
	},
	PhaseNotRunning: {
		Name:        PhaseNotRunning,
		Description: "Server did not answer the reachability probe",
		UserMessage: "MCP Shark server is not running",
	},
	PhaseLaunching: {
		Name:        PhaseLaunching,
		Description: "Spawning the server process",
		UserMessage: "Starting server...",
	},
	PhasePolling: {
		Name:        PhasePolling,
		Description: "Waiting for the server to become reachable",
		UserMessage: "Waiting for MCP Shark server...",
	},
	PhaseStartFailed: {
		Name:        PhaseStartFailed,
		Description: "Server did not become reachable within the poll budget",
		UserMessage: "MCP Shark server may not have started",
		IsError:     true,
	},
	PhaseStopping: {
		Name:        PhaseStopping,
		Description: "Termination issued, waiting to re-probe",
		UserMessage: "Stopping MCP Shark server...",
	},
}

// GetInfo returns metadata for a given phase
func GetInfo(p Phase) Info {
	if info, ok := phaseInfo[p]; ok {
		return info
	}
	return Info{Name: p, Description: string(p), UserMessage: string(p)}
}

var validTransitions = map[Phase][]Phase{
	PhaseUnknown:     {PhaseProbing},
	PhaseProbing:     {PhaseRunning, PhaseNotRunning},
	PhaseRunning:     {PhaseProbing, PhaseStopping},
	PhaseNotRunning:  {PhaseProbing, PhaseLaunching},
	PhaseLaunching:   {PhasePolling, PhaseStartFailed},
	PhasePolling:     {PhaseRunning, PhaseStartFailed},
	PhaseStartFailed: {PhaseProbing, PhaseLaunching},
	PhaseStopping:    {PhaseProbing},
}

// CanTransition checks if a transition from one phase to another is expected
func CanTransition(from, to Phase) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
