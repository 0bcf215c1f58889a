package config

import (
	"fmt"
	"os"
	"pagelab/logger"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type DefaultPaths struct {
	ConfigDir  string
	LogPathApp string
	DBPath     string
	LogLevel   string
}

// Bucket is a fast/slow threshold pair in seconds used by the dashboard.
type Bucket struct {
	Fast float64 `mapstructure:"fast"`
	Slow float64 `mapstructure:"slow"`
}

type Configuration struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Server struct {
		Port               string   `mapstructure:"port"`
		LogPath            string   `mapstructure:"log_path"`
		CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	} `mapstructure:"server"`
	Logging struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"logging"`
	Ingest struct {
		MastheadTimingName string `mapstructure:"masthead_timing_name"`
		MaxBodyBytes       int64  `mapstructure:"max_body_bytes"`
		RateLimitPerMinute int    `mapstructure:"rate_limit_per_minute"`
	} `mapstructure:"ingest"`
	Browse struct {
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"browse"`
	Dashboard struct {
		FCP Bucket `mapstructure:"fcp"`
		FMP Bucket `mapstructure:"fmp"`
		TTI Bucket `mapstructure:"tti"`
	} `mapstructure:"dashboard"`
}

var AppConfig Configuration

func init() {
	// Usable values before Init runs (tests, library use).
	AppConfig = Defaults()
}

func expandTilde(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, path[1:]), nil
}

// ExpandTilde is exported for the cmd package, which resolves --dbpath itself.
func ExpandTilde(path string) (string, error) {
	return expandTilde(path)
}

func GetDefaultConfigPaths() DefaultPaths {
	var paths DefaultPaths
	userConfigDirBase, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not get user config dir: %v. Using current directory.\n", err)
		userConfigDirBase = "."
	}

	paths.ConfigDir = filepath.Join(userConfigDirBase, "pagelab")
	paths.LogPathApp = filepath.Join(paths.ConfigDir, "logs", "app.log")
	paths.DBPath = filepath.Join(paths.ConfigDir, "pagelab.db")
	paths.LogLevel = "INFO"
	return paths
}

// Defaults returns the configuration used when no file or environment overrides exist.
func Defaults() Configuration {
	defaults := GetDefaultConfigPaths()
	var c Configuration
	c.Database.Path = defaults.DBPath
	c.Server.Port = "8000"
	c.Server.LogPath = defaults.LogPathApp
	c.Logging.Level = defaults.LogLevel
	c.Ingest.MastheadTimingName = "V18-masthead-load"
	c.Ingest.MaxBodyBytes = 32 << 20
	c.Ingest.RateLimitPerMinute = 120
	c.Browse.PageSize = 20
	c.Dashboard.FCP = Bucket{Fast: 1.6, Slow: 2.4}
	c.Dashboard.FMP = Bucket{Fast: 2, Slow: 3}
	c.Dashboard.TTI = Bucket{Fast: 3, Slow: 4.5}
	return c
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.log_path", d.Server.LogPath)
	v.SetDefault("server.cors_allowed_origins", []string{})
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("ingest.masthead_timing_name", d.Ingest.MastheadTimingName)
	v.SetDefault("ingest.max_body_bytes", d.Ingest.MaxBodyBytes)
	v.SetDefault("ingest.rate_limit_per_minute", d.Ingest.RateLimitPerMinute)
	v.SetDefault("browse.page_size", d.Browse.PageSize)
	v.SetDefault("dashboard.fcp.fast", d.Dashboard.FCP.Fast)
	v.SetDefault("dashboard.fcp.slow", d.Dashboard.FCP.Slow)
	v.SetDefault("dashboard.fmp.fast", d.Dashboard.FMP.Fast)
	v.SetDefault("dashboard.fmp.slow", d.Dashboard.FMP.Slow)
	v.SetDefault("dashboard.tti.fast", d.Dashboard.TTI.Fast)
	v.SetDefault("dashboard.tti.slow", d.Dashboard.TTI.Slow)
}

func Init(cfgFile string, flagAppLogPath, flagLogLevel string) error {
	v := viper.New()
	defaults := GetDefaultConfigPaths()
	setDefaults(v)

	if cfgFile != "" {
		expandedCfgFile, err := expandTilde(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in config file path '%s': %v. Trying original path.\n", cfgFile, err)
			expandedCfgFile = cfgFile
		}
		v.SetConfigFile(expandedCfgFile)
		v.SetConfigType("yaml")
	} else {
		v.AddConfigPath(defaults.ConfigDir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PAGELAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	configUsedMsg := "Using default/environment configuration."
	readErr := v.ReadInConfig()
	if readErr == nil {
		configUsedMsg = fmt.Sprintf("Using config file: %s", v.ConfigFileUsed())
	} else {
		if _, ok := readErr.(viper.ConfigFileNotFoundError); ok {
			if cfgFile != "" {
				fmt.Fprintf(os.Stderr, "Warning: Config file specified by flag (%s) not found: %v\n", cfgFile, readErr)
			}
		} else {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", v.ConfigFileUsed(), readErr)
		}
	}

	var loaded Configuration
	if err := v.Unmarshal(&loaded); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Error unmarshalling configuration: %v\n", err)
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	AppConfig = loaded

	if flagAppLogPath != "" {
		expandedPath, err := expandTilde(flagAppLogPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in --app-log path '%s': %v. Using original path.\n", flagAppLogPath, err)
			expandedPath = flagAppLogPath
		}
		AppConfig.Server.LogPath = expandedPath
	}
	if flagLogLevel != "" {
		AppConfig.Logging.Level = strings.ToUpper(flagLogLevel)
	}

	var err error
	AppConfig.Database.Path, err = expandTilde(AppConfig.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in database.path '%s': %v.\n", AppConfig.Database.Path, err)
	}
	AppConfig.Server.LogPath, err = expandTilde(AppConfig.Server.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not expand tilde in server.log_path '%s': %v.\n", AppConfig.Server.LogPath, err)
	}

	if err := os.MkdirAll(defaults.ConfigDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create main config directory %s: %v\n", defaults.ConfigDir, err)
	}

	if err := logger.InitGlobalLoggers(AppConfig.Server.LogPath, AppConfig.Logging.Level); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to initialize global loggers with final config: %v\n", err)
		return fmt.Errorf("failed to initialize global loggers with final config: %w", err)
	}

	logger.Info("%s", configUsedMsg)
	if readErr != nil && cfgFile != "" {
		logger.Error("Error occurred reading specified config file '%s': %v", cfgFile, readErr)
	}
	if AppConfig.Ingest.MastheadTimingName == "" {
		logger.Warn("ingest.masthead_timing_name is empty; masthead_onscreen will always be 0.")
	}
	if AppConfig.Browse.PageSize <= 0 {
		logger.Warn("browse.page_size %d is not positive, using 20.", AppConfig.Browse.PageSize)
		AppConfig.Browse.PageSize = 20
	}

	logger.Debug("Final AppConfig Initialized: %+v", AppConfig)
	return nil
}
