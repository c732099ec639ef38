// Package conf loads and validates the engine's runtime configuration:
// transport credentials, owner ids, quota tiers, scratch paths, and the
// tunables for the download pool, watchdog, and restart coordinator.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Settings holds the full engine configuration, populated from the
// embedded default config.yaml, an optional config file on disk, and
// environment variable overrides (see env.go).
type Settings struct {
	Debug bool

	Main struct {
		Name string
		Log  LogConfig
	}

	Transport struct {
		APIID        string
		APIHash      string
		BotToken     string
		WorkerTokens []string // extra worker bot tokens, space-separated in env
		OwnerIDs     []int64
		LogChannelID int64
		BinChannelID int64
		PingInterval int // seconds
	}

	Storage struct {
		DatabaseURI  string
		TasksRoot    string
		DownloadRoot string
		PublicBaseURL string
	}

	Quota struct {
		DefaultTier    string
		DailyLimitGiB  map[string]float64 // tier -> daily limit in GiB
		SplitCeilingMB int64              // single-file upload ceiling, default ~1996 MiB (1.95 GiB)
	}

	Torrent struct {
		RPCHost string
		RPCPort int
		RPCUser string
		RPCPass string
	}

	Server struct {
		BindAddress string
		BindPort    int
	}

	Download struct {
		StaggerSeconds   int // delay between sibling download starts, default 5
		MaxConcurrent    int
		IdleReadTimeout  int // seconds, default 600
	}

	Watchdog struct {
		IntervalSeconds    int     // default 300
		StartupGraceSeconds int    // grace period before first tick
		CPUThresholdPct    float64 // default 90
		RAMThresholdPct    float64 // default 90
		IdleTimeoutHours   int     // default 24
	}

	Notify struct {
		WebhookURL string // shoutrrr service URL for owner/restart notifications
	}

	Telemetry struct {
		SentryDSN   string
		Environment string
	}
}

// LogConfig defines the configuration for the rotated log file.
type LogConfig struct {
	Enabled    bool
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads defaults, the on-disk config file (if any), and environment
// overrides into a fresh Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	applyEnvOverrides(settings)

	if err := validateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settingsInstance = settings
	return settings, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return viper.ReadInConfig()
}

func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("error reading embedded config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance without reloading.
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings, loading them on first call.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
