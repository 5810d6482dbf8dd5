package logs

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mcp-shark/sharkctl/internal/config"
)

// Log level constants
const (
	LogLevelTrace = "trace"
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	// MainLogFile is the controller's own log
	MainLogFile = "sharkctl.log"
	// ServerOutputLogFile holds captured stdout/stderr of an observed server
	ServerOutputLogFile = "server-output.log"

	maxTailLines = 500
)

// SetupLogger creates a logger with file and console outputs based on configuration.
// Any secrets passed in are masked in every entry written.
func SetupLogger(cfg *config.LogConfig, secrets ...string) (*zap.Logger, error) {
	if cfg == nil {
		cfg = config.DefaultLogConfig()
	}

	level := parseLevel(cfg.Level)

	var cores []zapcore.Core

	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(
			getConsoleEncoder(),
			zapcore.AddSync(os.Stderr),
			level,
		))
	}

	if cfg.EnableFile {
		fileCore, err := createFileCore(cfg, level)
		if err != nil {
			return nil, fmt.Errorf("failed to create file core: %w", err)
		}
		cores = append(cores, fileCore)
	}

	if len(cores) == 0 {
		return nil, fmt.Errorf("no log outputs configured")
	}

	redactor := NewRedactor(zapcore.NewTee(cores...))
	for _, secret := range secrets {
		redactor.Register(secret)
	}

	return zap.New(redactor, zap.AddCaller()), nil
}

// NewServerOutputLogger returns a file-only logger that records lines captured
// from an observed server process.
func NewServerOutputLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = config.DefaultLogConfig()
	}

	outputCfg := *cfg
	outputCfg.Filename = ServerOutputLogFile
	outputCfg.EnableConsole = false

	fileCore, err := createFileCore(&outputCfg, zap.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create server output log: %w", err)
	}

	return zap.New(fileCore).With(zap.String("source", "mcp-shark")), nil
}

// ReadServerOutputTail reads the last N lines of the captured server output log
func ReadServerOutputTail(logDir string, lines int) ([]string, error) {
	if lines <= 0 {
		lines = 50
	}
	if lines > maxTailLines {
		lines = maxTailLines
	}

	logFilePath, err := GetLogFilePathWithDir(logDir, ServerOutputLogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to get server output log path: %w", err)
	}

	file, err := os.Open(logFilePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open server output log: %w", err)
	}
	defer file.Close()

	// Ring of the last N lines
	ring := make([]string, 0, lines)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if len(ring) == lines {
			ring = append(ring[1:], scanner.Text())
			continue
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read server output log: %w", err)
	}

	return ring, nil
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zap.DebugLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func createFileCore(cfg *config.LogConfig, level zapcore.Level) (zapcore.Core, error) {
	logFilePath, err := GetLogFilePathWithDir(cfg.LogDir, cfg.Filename)
	if err != nil {
		return nil, fmt.Errorf("failed to get log file path: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	encoder := getFileEncoder()
	if cfg.JSONFormat {
		encoder = getJSONEncoder()
	}

	return zapcore.NewCore(encoder, zapcore.AddSync(rotator), level), nil
}

func getConsoleEncoder() zapcore.Encoder {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getFileEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	encoderConfig.ConsoleSeparator = " | "
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func getJSONEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}
