// Package tray shows the MCP Shark panel as a system tray menu.
package tray

import (
	"github.com/mcp-shark/sharkctl/internal/panel"
)

// menuState is what the tray menu shows for one panel view
type menuState struct {
	Status   string
	Tooltip  string
	Route    panel.Route
	CanStart bool
	CanStop  bool
	CanOpen  bool
}

func routeLabel(route panel.Route) string {
	switch route {
	case panel.RouteTraffic:
		return "Running, capturing traffic"
	case panel.RouteSetup:
		return "Running, setup required"
	case panel.RouteStarting:
		return "Starting"
	default:
		return "Not running"
	}
}

// stateFor maps a panel view to menu state. While busy no flow can be started.
func stateFor(v panel.View, busy bool, inspectorURL string) menuState {
	s := menuState{
		Status: "MCP Shark: " + routeLabel(v.Route),
		Route:  v.Route,
	}

	s.Tooltip = s.Status
	if v.Message != "" {
		s.Tooltip += "\n" + v.Message
	}
	if v.Route.Ready() {
		s.Tooltip += "\n" + inspectorURL
	}

	if busy {
		return s
	}
	s.CanStart = v.Route == panel.RouteNotStarted
	s.CanStop = v.Route.Ready()
	s.CanOpen = v.Route.Ready()
	return s
}
