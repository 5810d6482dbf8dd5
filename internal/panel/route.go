// Package panel decides which view the MCP Shark panel shows and drives the
// start and stop flows a user can trigger from it.
package panel

// Route is the view a panel renders
type Route string

const (
	RouteNotStarted Route = "not-started"
	RouteStarting   Route = "starting"
	RouteSetup      Route = "setup"
	RouteTraffic    Route = "traffic"
)

// Decide classifies the server state. It has no memory: the same inputs
// always give the same route. RouteStarting is never returned; the start
// flow sets it directly.
func Decide(reachable, setupComplete bool) Route {
	switch {
	case !reachable:
		return RouteNotStarted
	case !setupComplete:
		return RouteSetup
	default:
		return RouteTraffic
	}
}

// Ready reports whether the route shows the running server's UI
func (r Route) Ready() bool {
	return r == RouteSetup || r == RouteTraffic
}
