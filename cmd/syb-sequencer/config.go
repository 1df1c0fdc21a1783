package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tokamak-network/syb-circuits/db"
	"github.com/tokamak-network/syb-circuits/internal"
)

const (
	defaultBatchTime = 300 * time.Second
	defaultDBType    = db.TypePebble
	defaultLogLevel  = "info"
	defaultLogOutput = "stdout"
	defaultDatadir   = ".syb" // prefixed with the user's home directory
)

// Version is the build version, set at build time with -ldflags.
var Version = internal.Version

// Config holds the application configuration.
type Config struct {
	Batch   BatchConfig
	DB      DBConfig
	Log     LogConfig
	Datadir string
}

// BatchConfig holds batch processing configuration.
type BatchConfig struct {
	Time time.Duration `mapstructure:"time"`
}

// DBConfig holds the key-value backend configuration.
type DBConfig struct {
	Type string `mapstructure:"type"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Output string `mapstructure:"output"`
}

// loadConfig loads configuration from flags, environment variables, and
// defaults.
func loadConfig() (*Config, error) {
	v := viper.New()

	userHomeDir, err := os.UserHomeDir()
	if err != nil {
		userHomeDir = "."
	}
	defaultDatadirPath := filepath.Join(userHomeDir, defaultDatadir)

	v.SetDefault("batch.time", defaultBatchTime)
	v.SetDefault("db.type", defaultDBType)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("log.output", defaultLogOutput)
	v.SetDefault("datadir", defaultDatadirPath)

	flag.DurationP("batch.time", "b", defaultBatchTime, "sequencer batch max time window (i.e 10m or 1h)")
	flag.String("db.type", defaultDBType, fmt.Sprintf("key-value backend (%s or %s)", db.TypePebble, db.TypeInMemory))
	flag.StringP("log.level", "l", defaultLogLevel, "log level (debug, info, warn, error, fatal)")
	flag.StringP("log.output", "o", defaultLogOutput, "log output (stdout, stderr or filepath)")
	flag.StringP("datadir", "d", defaultDatadirPath, "data directory for database and storage files")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "syb-sequencer v%s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: syb-sequencer [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables are also available with the same name as flags,\n")
		fmt.Fprintf(os.Stderr, "  except for dashes (-) and dots (.) which are replaced by underscores (_).\n")
		fmt.Fprintf(os.Stderr, "  For example, SYB_BATCH_TIME or SYB_DATADIR\n")
	}

	flag.CommandLine.SortFlags = false
	flag.Parse()

	v.SetEnvPrefix("SYB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flag.CommandLine); err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

// validateConfig validates the loaded configuration.
func validateConfig(cfg *Config) error {
	if cfg.Batch.Time <= 0 {
		return fmt.Errorf("batch time window must be positive")
	}
	if cfg.DB.Type != db.TypePebble && cfg.DB.Type != db.TypeInMemory {
		return fmt.Errorf("invalid db type %q, available types: %q %q",
			cfg.DB.Type, db.TypePebble, db.TypeInMemory)
	}
	return nil
}
