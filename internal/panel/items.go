package panel

// Command ids
const (
	CommandStartServer       = "mcp-shark.viewer.startServer"
	CommandStopServer        = "mcp-shark.viewer.stopServer"
	CommandShowDatabasePanel = "mcp-shark.viewer.showDatabasePanel"
	CommandOpenInspector     = "mcp-shark.viewer.openInspector"
	CommandRefresh           = "mcp-shark.viewer.refresh"
)

// MsgStartFirst is shown when opening the inspector while the server is down
const MsgStartFirst = "MCP Shark server is not running. Please start it first."

// StatusItem is one entry of the status list shown next to the panel
type StatusItem struct {
	Label       string `json:"label" yaml:"label" toml:"label"`
	Command     string `json:"command,omitempty" yaml:"command,omitempty" toml:"command,omitempty"`
	Icon        string `json:"icon" yaml:"icon" toml:"icon"`
	Tooltip     string `json:"tooltip" yaml:"tooltip" toml:"tooltip"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Enabled     bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// StatusItems lists the actions available for the given server state.
// Everything but start is disabled while the server is down.
func StatusItems(running bool) []StatusItem {
	items := []StatusItem{{
		Label:   "Start MCP Shark Server",
		Command: CommandStartServer,
		Icon:    "play",
		Tooltip: "Start the MCP Shark server",
		Enabled: true,
	}}

	if running {
		return append(items,
			StatusItem{
				Label:   "Open Traffic Inspector",
				Command: CommandOpenInspector,
				Icon:    "radio-tower",
				Tooltip: "Open the MCP Shark Traffic Inspector panel",
				Enabled: true,
			},
			StatusItem{
				Label:   "Stop MCP Shark Server",
				Command: CommandStopServer,
				Icon:    "stop-circle",
				Tooltip: "Stop the MCP Shark server",
				Enabled: true,
			},
		)
	}

	return append(items, StatusItem{
		Label:       "Open Traffic Inspector",
		Command:     CommandOpenInspector,
		Icon:        "radio-tower",
		Tooltip:     "MCP Shark server must be running first",
		Description: "Server not running",
	})
}
