package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
	"github.com/oshokin/tib2xxu/internal/logger"
)

// Config holds the settings shared by a conversion run.
type Config struct {
	// Profile selects the header finalization strategy ("patch" or "rewrite").
	Profile string `yaml:"profile"`
	// ChunkSize is the number of bytes copied per read/write cycle.
	ChunkSize int `yaml:"chunk_size"`
	// LogLevel is the minimum level of diagnostic log entries.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultChunkSize matches the stdio buffer size of the historical tool.
	DefaultChunkSize = 8192

	// MaxChunkSize bounds the copy buffer.
	MaxChunkSize = 16 << 20

	// DefaultLogLevel keeps successful runs silent.
	DefaultLogLevel = "warn"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadChunkSize is returned for chunk sizes outside (0, MaxChunkSize].
	errBadChunkSize = errors.New("chunk size out of range")
	// errBadLogLevel is returned for unknown log level names.
	errBadLogLevel = errors.New("unknown log level")
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	return &Config{
		Profile:   string(xxu.DefaultProfile),
		ChunkSize: DefaultChunkSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills empty fields with defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	profile, err := xxu.ParseProfile(settings.Profile)
	if err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	settings.Profile = string(profile)

	if settings.ChunkSize == 0 {
		settings.ChunkSize = DefaultChunkSize
	}

	if settings.ChunkSize < 0 || settings.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%w: %d", errBadChunkSize, settings.ChunkSize)
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(settings.LogLevel); !ok {
		return fmt.Errorf("%w: %q", errBadLogLevel, settings.LogLevel)
	}

	return nil
}
