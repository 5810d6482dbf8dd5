package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mcp-shark/sharkctl/internal/config"
	"github.com/mcp-shark/sharkctl/internal/lifecycle"
	"github.com/mcp-shark/sharkctl/internal/llm"
	"github.com/mcp-shark/sharkctl/internal/logs"
	"github.com/mcp-shark/sharkctl/internal/monitor"
	"github.com/mcp-shark/sharkctl/internal/notify"
	"github.com/mcp-shark/sharkctl/internal/observability"
	"github.com/mcp-shark/sharkctl/internal/prompt"
	"github.com/mcp-shark/sharkctl/internal/secret"
	"github.com/mcp-shark/sharkctl/internal/shark"
	"github.com/mcp-shark/sharkctl/internal/state"
)

const shutdownTimeout = 5 * time.Second

// appOptions selects how a command wires the shared components
type appOptions struct {
	// longRunning commands log at INFO by default, others at WARN
	longRunning bool
	// fullScreen commands own the terminal, so nothing is written to the console
	fullScreen bool
}

// app holds the components shared by every subcommand
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	sugar      *zap.SugaredLogger
	notifier   *notify.Manager
	confirm    lifecycle.ConfirmFunc
	obs        *observability.Manager
	client     *shark.Client
	launcher   *monitor.Launcher
	controller *lifecycle.Controller
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, configError(err)
	}

	// ${env:NAME} and ${keyring:NAME} references are resolved before the
	// logger starts so the redactor sees the real key
	apiKey, keyErr := secret.NewResolver().Expand(cmd.Context(), cfg.Bridge.ModelAPIKey)
	cfg.Bridge.ModelAPIKey = apiKey

	logger, err := setupLogger(cmd, cfg, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	sugar := logger.Sugar()

	sugar.Debugw("Configuration loaded",
		"config_file", configFile,
		"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		"data_dir", cfg.DataDir,
		"version", version)
	if keyErr != nil {
		sugar.Warnw("Model API key could not be resolved, continuing without it", "error", keyErr)
	}

	notifier := notify.NewManager(notify.NewLogHandler(sugar))
	if !opts.fullScreen {
		out := cmd.ErrOrStderr()
		notifier.AddHandler(notify.HandlerFunc(func(n *notify.Notification) {
			fmt.Fprintln(out, n.Message)
		}))
	}
	if cfg.Notifications {
		notifier.AddHandler(notify.NewDesktopHandler(sugar))
	}

	var confirmer prompt.Confirmer = prompt.NewConsoleConfirmer()
	if assumeYes {
		confirmer = prompt.AutoConfirmer{Answer: true}
	}

	obs, err := observability.NewManager(sugar, cfg, version)
	if err != nil {
		return nil, fmt.Errorf("failed to setup observability: %w", err)
	}
	metrics := obs.Metrics()

	client := shark.NewClient(shark.NewEndpoint(cfg.Server), sugar,
		shark.WithRecorder(metrics),
		shark.WithTimeouts(cfg.Lifecycle))

	var launcherOpts []monitor.LauncherOption
	if outputLog, err := logs.NewServerOutputLogger(cfg.Logging); err != nil {
		sugar.Warnw("Server output will not be recorded", "error", err)
	} else {
		launcherOpts = append(launcherOpts, monitor.WithOutputLog(outputLog))
	}
	launcher := monitor.NewLauncher(sugar, launcherOpts...)

	controller := lifecycle.NewController(cfg, client, launcher, monitor.NewTerminator(sugar), sugar,
		lifecycle.WithNotifier(notifier),
		lifecycle.WithTracker(state.NewTracker(sugar, metrics)),
		lifecycle.WithMetrics(metrics),
		lifecycle.WithTracing(obs.Tracing()))

	obs.Health().AddReadinessChecker(observability.CheckFunc("mcp-shark", func(ctx context.Context) error {
		if !client.IsRunning(ctx) {
			return errors.New(lifecycle.MsgAlreadyStopped)
		}
		return nil
	}))

	return &app{
		cfg:        cfg,
		logger:     logger,
		sugar:      sugar,
		notifier:   notifier,
		confirm:    lifecycle.ConfirmFunc(prompt.Func(confirmer, sugar)),
		obs:        obs,
		client:     client,
		launcher:   launcher,
		controller: controller,
	}, nil
}

// setupLogger applies the logging flags on top of the configured logging.
// Short commands log at WARN unless a level was chosen explicitly.
func setupLogger(cmd *cobra.Command, cfg *config.Config, opts appOptions) (*zap.Logger, error) {
	logCfg := config.DefaultLogConfig()
	if cfg.Logging != nil {
		copied := *cfg.Logging
		logCfg = &copied
	}

	switch {
	case cmd.Flags().Changed("log-level"):
		logCfg.Level = logLevel
	case !opts.longRunning && logCfg.Level == config.DefaultLogConfig().Level:
		logCfg.Level = logs.LogLevelWarn
	}
	if cmd.Flags().Changed("log-to-file") {
		logCfg.EnableFile = logToFile
	}
	if logDir != "" {
		logCfg.LogDir = logDir
	}
	if opts.fullScreen {
		// The terminal belongs to the panel
		logCfg.EnableConsole = false
		logCfg.EnableFile = true
	}

	cfg.Logging = logCfg
	return logs.SetupLogger(logCfg, cfg.Bridge.ModelAPIKey)
}

// newAnalyzer builds the LLM analyzer over the configured OpenAI-compatible endpoint
func (a *app) newAnalyzer() (*llm.Analyzer, *llm.OpenAISource) {
	b := a.cfg.Bridge
	source := llm.NewOpenAISource(b.ModelBaseURL, b.ModelAPIKey, b.Models, b.Timeout, a.sugar)
	analyzer := llm.NewAnalyzer(source, a.sugar,
		llm.WithVendor(b.ModelVendor),
		llm.WithContextLimit(llm.NewContextLimiter(b.MaxContextTokens, b.TokenEncoding, a.sugar)),
		llm.WithMetrics(a.obs.Metrics()),
		llm.WithTracing(a.obs.Tracing()))
	return analyzer, source
}

// inspectorURL is where the traffic inspector is served
func (a *app) inspectorURL() string {
	return a.client.Endpoint().BaseURL()
}

func (a *app) Close() {
	a.launcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.obs.Close(ctx); err != nil {
		a.sugar.Warnw("Failed to close observability", "error", err)
	}
	_ = a.logger.Sync()
}
