package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// GetDefaultConfigPaths returns the OS-conventional search paths for the
// engine's config.yaml: the executable directory first on Windows;
// elsewhere ~/.config/f2lnk then /etc/f2lnk, without the executable
// directory.
func GetDefaultConfigPaths() ([]string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("error fetching executable path: %w", err)
	}
	exeDir := filepath.Dir(exePath)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	var configPaths []string
	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			exeDir,
			filepath.Join(homeDir, "AppData", "Roaming", "f2lnk"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "f2lnk"),
			"/etc/f2lnk",
		}
	}
	return configPaths, nil
}

// GetBasePath expands environment variables in path and ensures the
// resulting directory exists.
func GetBasePath(path string) string {
	expanded := os.ExpandEnv(path)
	basePath := filepath.Clean(expanded)
	if _, err := os.Stat(basePath); os.IsNotExist(err) {
		if err := os.MkdirAll(basePath, 0o755); err != nil {
			fmt.Printf("failed to create directory %q: %v\n", basePath, err)
		}
	}
	return basePath
}

// RunningInContainer reports whether the process appears to run inside a
// container, used to pick sane defaults for scratch directory placement.
func RunningInContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/run/.containerenv"); err == nil {
		return true
	}
	if v, ok := os.LookupEnv("container"); ok && v != "" {
		return true
	}
	return false
}
