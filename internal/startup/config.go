package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"terra/internal/logging"
	"terra/internal/media"
)

const (
	envPrefix     = "TERRA"
	configFileEnv = "TERRA_CONFIG"
	appDirName    = "terra"
	libraryName   = "Terra"
	databaseFile  = "photos.db"
)

// Config holds all application configuration
type Config struct {
	DataDir       string
	LibraryDir    string
	Port          string
	MetricsPort   string
	ScanWorkers   int
	ProbeMode     media.ProbeMode
	StatsInterval time.Duration
	LogHTTP       bool

	MetricsEnabled bool

	// Derived paths
	DatabasePath string
}

// newViper returns a viper instance with defaults, TERRA_* environment
// bindings and, when TERRA_CONFIG names one, a config file.
func newViper() (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("library_dir", defaultLibraryDir())
	v.SetDefault("port", "8080")
	v.SetDefault("metrics_port", "9090")
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("scan_workers", 0)
	v.SetDefault("probe_mode", string(media.ProbeHeader))
	v.SetDefault("log_http", true)
	v.SetDefault("stats_interval", time.Minute)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := os.Getenv(configFileEnv); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file not found: %w", err)
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return v, nil
}

// resolveConfig reads settings from v without touching the filesystem.
func resolveConfig(v *viper.Viper) (*Config, error) {
	probeMode, err := media.ParseProbeMode(v.GetString("probe_mode"))
	if err != nil {
		return nil, err
	}

	statsInterval := v.GetDuration("stats_interval")
	if statsInterval <= 0 {
		logging.Warn("  Invalid stats_interval, using default: 1m")
		statsInterval = time.Minute
	}

	scanWorkers := v.GetInt("scan_workers")
	if scanWorkers < 0 {
		return nil, fmt.Errorf("scan_workers must not be negative, got %d", scanWorkers)
	}

	dataDir, err := filepath.Abs(v.GetString("data_dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	libraryDir, err := filepath.Abs(v.GetString("library_dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}

	return &Config{
		DataDir:        dataDir,
		LibraryDir:     libraryDir,
		Port:           v.GetString("port"),
		MetricsPort:    v.GetString("metrics_port"),
		ScanWorkers:    scanWorkers,
		ProbeMode:      probeMode,
		StatsInterval:  statsInterval,
		LogHTTP:        v.GetBool("log_http"),
		MetricsEnabled: v.GetBool("metrics_enabled"),
		DatabasePath:   filepath.Join(dataDir, databaseFile),
	}, nil
}

// LoadConfig loads configuration, then creates and write-tests the data
// and library directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	v, err := newViper()
	if err != nil {
		return nil, err
	}
	if file := v.ConfigFileUsed(); file != "" {
		logging.Info("  Config file:     %s", file)
	}

	config, err := resolveConfig(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Info("  DATA_DIR:        %s", config.DataDir)
	logging.Info("  LIBRARY_DIR:     %s", config.LibraryDir)
	logging.Info("  PORT:            %s", config.Port)
	logging.Info("  METRICS_PORT:    %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED: %v", config.MetricsEnabled)
	logging.Info("  SCAN_WORKERS:    %d", config.ScanWorkers)
	logging.Info("  PROBE_MODE:      %s", config.ProbeMode)
	logging.Info("  STATS_INTERVAL:  %v", config.StatsInterval)
	logging.Info("  LOG_HTTP:        %v", config.LogHTTP)
	logging.Info("  LOG_LEVEL:       %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := prepareDirectory(config.DataDir, "data"); err != nil {
		return nil, err
	}
	if err := prepareDirectory(config.LibraryDir, "library"); err != nil {
		return nil, err
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    %s", config.DatabasePath)
	logging.Info("    Metrics:     %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// ReadConfig resolves the same settings as LoadConfig without the startup
// banner, and only creates the data and library directories.
func ReadConfig() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	config, err := resolveConfig(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	for _, dir := range []string{config.DataDir, config.LibraryDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return config, nil
}

// prepareDirectory creates dir if needed and confirms it is writable.
func prepareDirectory(dir, name string) error {
	if err := ensureDirectory(dir, name); err != nil {
		return fmt.Errorf("%s directory error: %w", name, err)
	}

	logging.Debug("  Testing %s directory write access...", name)
	if err := testWriteAccess(dir); err != nil {
		return fmt.Errorf("%s directory is not writable: %w", name, err)
	}
	logging.Info("  [OK] %s directory is writable: %s", name, dir)
	return nil
}

// defaultDataDir returns the per-user local application data directory.
func defaultDataDir() string {
	home, _ := os.UserHomeDir()

	switch runtime.GOOS {
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, appDirName)
		}
		return filepath.Join(home, "AppData", "Local", appDirName)
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", appDirName)
	default:
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appDirName)
		}
		return filepath.Join(home, ".local", "share", appDirName)
	}
}

// defaultLibraryDir returns the managed library inside the user's
// pictures directory.
func defaultLibraryDir() string {
	if pictures := os.Getenv("XDG_PICTURES_DIR"); pictures != "" {
		return filepath.Join(pictures, libraryName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Pictures", libraryName)
}
