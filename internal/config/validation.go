package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ValidationError describes a single invalid configuration field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate fills zero values with defaults and reports the first invalid field
func (c *Config) Validate() error {
	c.applyDefaults()

	errs := c.ValidateDetailed()
	if len(errs) == 0 {
		return nil
	}

	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		joined = append(joined, e)
	}
	return errors.Join(joined...)
}

// ValidateDetailed returns every invalid field without modifying the config
func (c *Config) ValidateDetailed() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Server.Host) == "" {
		errs = append(errs, ValidationError{Field: "server.host", Message: "must not be empty"})
	}
	if !isValidPort(c.Server.Port) {
		errs = append(errs, ValidationError{Field: "server.port", Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port)})
	}
	for field, path := range map[string]string{
		"server.probe_path":    c.Server.ProbePath,
		"server.settings_path": c.Server.SettingsPath,
		"server.status_path":   c.Server.StatusPath,
	} {
		if !strings.HasPrefix(path, "/") {
			errs = append(errs, ValidationError{Field: field, Message: "must start with /"})
		}
	}

	if strings.TrimSpace(c.Launch.Command) == "" {
		errs = append(errs, ValidationError{Field: "launch.command", Message: "must not be empty"})
	}

	if c.Lifecycle.MaxPollAttempts <= 0 {
		errs = append(errs, ValidationError{Field: "lifecycle.max_poll_attempts", Message: "must be positive"})
	}
	if c.Lifecycle.ProbeTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "lifecycle.probe_timeout", Message: "must be positive"})
	}
	if c.Lifecycle.PollInterval <= 0 {
		errs = append(errs, ValidationError{Field: "lifecycle.poll_interval", Message: "must be positive"})
	}

	if c.Panel.OutputLines < 0 {
		errs = append(errs, ValidationError{Field: "panel.output_lines", Message: "must not be negative"})
	}

	if c.Bridge.MaxContextTokens < 0 {
		errs = append(errs, ValidationError{Field: "bridge.max_context_tokens", Message: "must not be negative"})
	}

	if c.Bridge.Enabled {
		if !isValidPort(c.Bridge.Port) {
			errs = append(errs, ValidationError{Field: "bridge.port", Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Bridge.Port)})
		}
		if c.Bridge.Port == c.Server.Port && isLocal(c.Bridge.Listen) && isLocal(c.Server.Host) {
			errs = append(errs, ValidationError{Field: "bridge.port", Message: "must differ from server.port"})
		}
		if c.Bridge.ModelBaseURL != "" {
			if u, err := url.Parse(c.Bridge.ModelBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, ValidationError{Field: "bridge.model_base_url", Message: "must be an absolute URL"})
			}
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, ValidationError{Field: "tracing.sample_rate", Message: "must be between 0 and 1"})
	}

	return errs
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()

	if c.Server.Host == "" {
		c.Server.Host = d.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.ProbePath == "" {
		c.Server.ProbePath = d.Server.ProbePath
	}
	if c.Server.SettingsPath == "" {
		c.Server.SettingsPath = d.Server.SettingsPath
	}
	if c.Server.StatusPath == "" {
		c.Server.StatusPath = d.Server.StatusPath
	}

	if c.Lifecycle.ProbeTimeout <= 0 {
		c.Lifecycle.ProbeTimeout = d.Lifecycle.ProbeTimeout
	}
	if c.Lifecycle.FetchTimeout <= 0 {
		c.Lifecycle.FetchTimeout = d.Lifecycle.FetchTimeout
	}
	if c.Lifecycle.PollInterval <= 0 {
		c.Lifecycle.PollInterval = d.Lifecycle.PollInterval
	}
	if c.Lifecycle.MaxPollAttempts == 0 {
		c.Lifecycle.MaxPollAttempts = d.Lifecycle.MaxPollAttempts
	}
	if c.Lifecycle.SettleDelay < 0 {
		c.Lifecycle.SettleDelay = 0
	}
	if c.Lifecycle.StopSettleDelay < 0 {
		c.Lifecycle.StopSettleDelay = 0
	}

	if c.Panel.StatusCheckInterval <= 0 {
		c.Panel.StatusCheckInterval = d.Panel.StatusCheckInterval
	}
	if c.Panel.OutputLines == 0 {
		c.Panel.OutputLines = d.Panel.OutputLines
	}

	if c.Bridge.Listen == "" {
		c.Bridge.Listen = d.Bridge.Listen
	}
	if c.Bridge.Port == 0 {
		c.Bridge.Port = d.Bridge.Port
	}
	if c.Bridge.Timeout <= 0 {
		c.Bridge.Timeout = d.Bridge.Timeout
	}

	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}

	if c.Logging == nil {
		c.Logging = DefaultLogConfig()
	}
}

// DefaultLogConfig returns the logging defaults used when none are configured
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:         "info",
		EnableFile:    false,
		EnableConsole: true,
		Filename:      "sharkctl.log",
		MaxSize:       10,
		MaxBackups:    5,
		MaxAge:        30,
		Compress:      true,
		JSONFormat:    false,
	}
}

func isValidPort(port int) bool {
	return port > 0 && port <= 65535
}

func isLocal(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1", "0.0.0.0":
		return true
	}
	return false
}
