// Package paths resolves the per-platform application-data directory
// and the default location of the database file.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appDirName is the directory created under the platform's
// application-data root.
const appDirName = "astana"

// DBFileName is the fixed name of the database file.
const DBFileName = "astana.db"

// EnvDataDir overrides the data directory when set.
const EnvDataDir = "ASTANA_DATA_DIR"

// platformDir holds platform-detection functions that can be overridden
// in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultDataDir returns the platform-specific application-data
// directory.
//
// Linux:   $XDG_DATA_HOME/astana (fallback ~/.local/share/astana)
// macOS:   ~/Library/Application Support/astana
// Windows: %AppData%/astana
func DefaultDataDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appDirName), nil
	default:
		// macOS and Windows use os.UserConfigDir, which returns
		// ~/Library/Application Support on macOS and %AppData% on
		// Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appDirName), nil
	}
}

// ResolveDatabasePath returns the database file location following the
// precedence chain: explicit override (flag or config) > ASTANA_DATA_DIR
// env > platform default directory.
func ResolveDatabasePath(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	if env := os.Getenv(EnvDataDir); env != "" {
		abs, err := filepath.Abs(env)
		if err != nil {
			return "", err
		}
		return filepath.Join(abs, DBFileName), nil
	}
	dir, err := DefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DBFileName), nil
}
