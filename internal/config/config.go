package config

import (
	"encoding/json"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

const (
	DefaultHost        = "localhost"
	DefaultPort        = 9853
	DefaultBridgePort  = 9854
	DefaultPackage     = "@mcp-shark/mcp-shark"
	DefaultCommand     = "npx"
	DefaultProbePath   = "/api/settings"
	DefaultSettingPath = "/api/settings"
	DefaultStatusPath  = "/api/mcp-server/status"
)

// Config represents the main configuration structure
type Config struct {
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	Server    ServerConfig    `json:"server" mapstructure:"server"`
	Launch    LaunchConfig    `json:"launch" mapstructure:"launch"`
	Lifecycle LifecycleConfig `json:"lifecycle" mapstructure:"lifecycle"`
	Panel     PanelConfig     `json:"panel" mapstructure:"panel"`
	Bridge    BridgeConfig    `json:"bridge" mapstructure:"bridge"`

	// Desktop notifications in addition to log output
	Notifications bool `json:"notifications" mapstructure:"notifications"`

	// Logging configuration
	Logging *LogConfig `json:"logging,omitempty" mapstructure:"logging"`

	Tracing TracingConfig `json:"tracing" mapstructure:"tracing"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level         string `json:"level" mapstructure:"level"`
	EnableFile    bool   `json:"enable_file" mapstructure:"enable_file"`
	EnableConsole bool   `json:"enable_console" mapstructure:"enable_console"`
	Filename      string `json:"filename" mapstructure:"filename"`
	LogDir        string `json:"log_dir,omitempty" mapstructure:"log_dir"` // Custom log directory
	MaxSize       int    `json:"max_size" mapstructure:"max_size"`         // MB
	MaxBackups    int    `json:"max_backups" mapstructure:"max_backups"`   // number of backup files
	MaxAge        int    `json:"max_age" mapstructure:"max_age"`           // days
	Compress      bool   `json:"compress" mapstructure:"compress"`
	JSONFormat    bool   `json:"json_format" mapstructure:"json_format"`
}

// ServerConfig identifies the inspected MCP Shark server.
type ServerConfig struct {
	Host         string `json:"host" mapstructure:"host"`
	Port         int    `json:"port" mapstructure:"port"`
	ProbePath    string `json:"probe_path" mapstructure:"probe_path"`
	SettingsPath string `json:"settings_path" mapstructure:"settings_path"`
	StatusPath   string `json:"status_path" mapstructure:"status_path"`
}

// LaunchConfig is the command line used to spawn the server.
type LaunchConfig struct {
	Command    string            `json:"command" mapstructure:"command"`
	Args       []string          `json:"args" mapstructure:"args"`
	Shell      bool              `json:"shell" mapstructure:"shell"`
	Env        map[string]string `json:"env,omitempty" mapstructure:"env"`
	WorkingDir string            `json:"working_dir,omitempty" mapstructure:"working_dir"`
}

// LifecycleConfig holds the probe, poll and stop timings.
type LifecycleConfig struct {
	ProbeTimeout    time.Duration `json:"probe_timeout" mapstructure:"probe_timeout"`
	FetchTimeout    time.Duration `json:"fetch_timeout" mapstructure:"fetch_timeout"`
	SettleDelay     time.Duration `json:"settle_delay" mapstructure:"settle_delay"`
	PollInterval    time.Duration `json:"poll_interval" mapstructure:"poll_interval"`
	MaxPollAttempts int           `json:"max_poll_attempts" mapstructure:"max_poll_attempts"`
	StopSettleDelay time.Duration `json:"stop_settle_delay" mapstructure:"stop_settle_delay"`
}

// PanelConfig holds the timings used by the panel flows.
type PanelConfig struct {
	StartRecheckDelay   time.Duration `json:"start_recheck_delay" mapstructure:"start_recheck_delay"`
	StopRecheckDelay    time.Duration `json:"stop_recheck_delay" mapstructure:"stop_recheck_delay"`
	StatusCheckInterval time.Duration `json:"status_check_interval" mapstructure:"status_check_interval"`
	OutputLines         int           `json:"output_lines" mapstructure:"output_lines"`
}

// BridgeConfig configures the local LLM analysis bridge.
type BridgeConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	Listen       string        `json:"listen" mapstructure:"listen"`
	Port         int           `json:"port" mapstructure:"port"`
	ModelVendor  string        `json:"model_vendor,omitempty" mapstructure:"model_vendor"`
	ModelBaseURL string        `json:"model_base_url" mapstructure:"model_base_url"`
	ModelAPIKey  string        `json:"model_api_key,omitempty" mapstructure:"model_api_key"`
	Models       []string      `json:"models,omitempty" mapstructure:"models"`
	Timeout      time.Duration `json:"timeout" mapstructure:"timeout"`
	EnableMetric bool          `json:"enable_metrics" mapstructure:"enable_metrics"`

	// MaxContextTokens keeps only the newest part of the analysis context; 0 disables the limit
	MaxContextTokens int    `json:"max_context_tokens" mapstructure:"max_context_tokens"`
	TokenEncoding    string `json:"token_encoding" mapstructure:"token_encoding"`
}

// TracingConfig holds configuration for OpenTelemetry tracing
type TracingConfig struct {
	Enabled      bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName  string  `json:"service_name" mapstructure:"service_name"`
	OTLPEndpoint string  `json:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	SampleRate   float64 `json:"sample_rate" mapstructure:"sample_rate"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         DefaultHost,
			Port:         DefaultPort,
			ProbePath:    DefaultProbePath,
			SettingsPath: DefaultSettingPath,
			StatusPath:   DefaultStatusPath,
		},
		Launch: LaunchConfig{
			Command: DefaultCommand,
			Args:    []string{"-y", DefaultPackage},
			Shell:   true,
		},
		Lifecycle: LifecycleConfig{
			ProbeTimeout:    1 * time.Second,
			FetchTimeout:    2 * time.Second,
			SettleDelay:     2 * time.Second,
			PollInterval:    1 * time.Second,
			MaxPollAttempts: 30,
			StopSettleDelay: 1 * time.Second,
		},
		Panel: PanelConfig{
			StartRecheckDelay:   3 * time.Second,
			StopRecheckDelay:    2 * time.Second,
			StatusCheckInterval: 5 * time.Second,
			OutputLines:         500,
		},
		Bridge: BridgeConfig{
			Enabled:      true,
			Listen:       "127.0.0.1",
			Port:         DefaultBridgePort,
			ModelBaseURL: "http://127.0.0.1:11434/v1",
			Timeout:      120 * time.Second,
			EnableMetric: true,

			MaxContextTokens: 8000,
			TokenEncoding:    "cl100k_base",
		},
		Notifications: true,
		Tracing: TracingConfig{
			ServiceName:  "sharkctl",
			OTLPEndpoint: "localhost:4318",
			SampleRate:   1.0,
		},
	}
}

// ManualStartCommand is the command line users are told to run by hand.
func (c *Config) ManualStartCommand() string {
	return ShellJoin(c.Launch.Command, c.Launch.Args)
}

// ShellJoin joins command and args into one POSIX shell line. Arguments are
// quoted when they need it; command is kept as written so it may itself hold
// shell syntax.
func ShellJoin(command string, args []string) string {
	words := make([]string, 0, len(args)+1)
	words = append(words, command)
	for _, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			quoted = arg
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " ")
}

// MarshalJSON implements json.Marshaler interface
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal((*Alias)(c))
}
