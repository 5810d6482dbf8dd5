package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultDataDir = ".mcp-shark"
	ConfigFileName = "sharkctl.json"
	EnvPrefix      = "SHARKCTL"
)

// flagKeys maps CLI flag names onto configuration keys.
var flagKeys = map[string]string{
	"host":          "server.host",
	"port":          "server.port",
	"data-dir":      "data_dir",
	"notifications": "notifications",
	"bridge-port":   "bridge.port",
}

// Load loads configuration from defaults, an optional JSON file, environment
// variables and the given flag set, in increasing order of precedence.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setupViper(v)

	path, err := ResolveConfigPath(configPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := readConfigFile(v, path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(homeDir, DefaultDataDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViper configures viper with environment variable handling and defaults
func setupViper(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Replace - and . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	d := DefaultConfig()

	v.SetDefault("data_dir", "")
	v.SetDefault("notifications", d.Notifications)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.probe_path", d.Server.ProbePath)
	v.SetDefault("server.settings_path", d.Server.SettingsPath)
	v.SetDefault("server.status_path", d.Server.StatusPath)

	v.SetDefault("launch.command", d.Launch.Command)
	v.SetDefault("launch.args", d.Launch.Args)
	v.SetDefault("launch.shell", d.Launch.Shell)
	v.SetDefault("launch.working_dir", "")

	v.SetDefault("lifecycle.probe_timeout", d.Lifecycle.ProbeTimeout)
	v.SetDefault("lifecycle.fetch_timeout", d.Lifecycle.FetchTimeout)
	v.SetDefault("lifecycle.settle_delay", d.Lifecycle.SettleDelay)
	v.SetDefault("lifecycle.poll_interval", d.Lifecycle.PollInterval)
	v.SetDefault("lifecycle.max_poll_attempts", d.Lifecycle.MaxPollAttempts)
	v.SetDefault("lifecycle.stop_settle_delay", d.Lifecycle.StopSettleDelay)

	v.SetDefault("panel.start_recheck_delay", d.Panel.StartRecheckDelay)
	v.SetDefault("panel.stop_recheck_delay", d.Panel.StopRecheckDelay)
	v.SetDefault("panel.status_check_interval", d.Panel.StatusCheckInterval)
	v.SetDefault("panel.output_lines", d.Panel.OutputLines)

	v.SetDefault("bridge.enabled", d.Bridge.Enabled)
	v.SetDefault("bridge.listen", d.Bridge.Listen)
	v.SetDefault("bridge.port", d.Bridge.Port)
	v.SetDefault("bridge.model_vendor", "")
	v.SetDefault("bridge.model_base_url", d.Bridge.ModelBaseURL)
	v.SetDefault("bridge.model_api_key", "")
	v.SetDefault("bridge.timeout", d.Bridge.Timeout)
	v.SetDefault("bridge.enable_metrics", d.Bridge.EnableMetric)
	v.SetDefault("bridge.max_context_tokens", d.Bridge.MaxContextTokens)
	v.SetDefault("bridge.token_encoding", d.Bridge.TokenEncoding)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
}

// ResolveConfigPath returns the explicit path, or the first config file found
// in the common locations, or "" when there is none.
func ResolveConfigPath(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return "", fmt.Errorf("config file %s: %w", configPath, err)
		}
		return configPath, nil
	}

	locations := []string{filepath.Join(".", ConfigFileName)}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, DefaultDataDir, ConfigFileName))
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", nil
}

// readConfigFile merges a JSON config file into viper. An empty file (including
// /dev/null) is treated as no configuration.
func readConfigFile(v *viper.Viper, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 || !info.Mode().IsRegular() {
		return nil
	}

	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}
