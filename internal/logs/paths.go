package logs

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const appDirName = "mcp-shark"

// GetLogDir returns the standard log directory for the current OS:
//
//	windows  %LOCALAPPDATA%\mcp-shark\logs
//	darwin   ~/Library/Logs/mcp-shark
//	linux    $XDG_STATE_HOME/mcp-shark/logs (or /var/log/mcp-shark as root)
func GetLogDir() (string, error) {
	return logDirFor(runtime.GOOS, os.Getenv, os.UserHomeDir, os.Getuid())
}

// logDirFor resolves the log directory with injectable environment lookups
func logDirFor(goos string, getenv func(string) string, home func() (string, error), uid int) (string, error) {
	homeDir, homeErr := home()
	fallback := filepath.Join(os.TempDir(), appDirName, "logs")
	if homeErr == nil {
		fallback = filepath.Join(homeDir, "."+appDirName, "logs")
	}

	switch goos {
	case "windows":
		localAppData := getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := getenv("USERPROFILE")
			if userProfile == "" {
				return fallback, nil
			}
			localAppData = filepath.Join(userProfile, "AppData", "Local")
		}
		return filepath.Join(localAppData, appDirName, "logs"), nil
	case "darwin":
		if homeErr != nil {
			return fallback, nil
		}
		return filepath.Join(homeDir, "Library", "Logs", appDirName), nil
	case "linux":
		if uid == 0 {
			return filepath.Join("/var/log", appDirName), nil
		}
		stateDir := getenv("XDG_STATE_HOME")
		if stateDir == "" {
			if homeErr != nil {
				return fallback, nil
			}
			stateDir = filepath.Join(homeDir, ".local", "state")
		}
		return filepath.Join(stateDir, appDirName, "logs"), nil
	default:
		return fallback, nil
	}
}

// EnsureLogDir creates the log directory if it doesn't exist
func EnsureLogDir(logDir string) error {
	return os.MkdirAll(logDir, 0755)
}

// GetLogFilePathWithDir returns the full path for a log file, creating its
// directory. An empty logDir selects the OS standard directory; a leading ~/
// is expanded.
func GetLogFilePathWithDir(logDir, filename string) (string, error) {
	if logDir == "" {
		dir, err := GetLogDir()
		if err != nil {
			return "", err
		}
		logDir = dir
	}

	if strings.HasPrefix(logDir, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		logDir = filepath.Join(homeDir, logDir[2:])
	}

	if err := EnsureLogDir(logDir); err != nil {
		return "", err
	}

	return filepath.Join(logDir, filename), nil
}
