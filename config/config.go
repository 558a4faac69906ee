// Package config holds the top-level configuration for the pipeline
// processor. All fields have safe defaults so callers can start with
// Config{} and override only what they need.
package config

import (
	"errors"
	"time"

	"github.com/creasty/defaults"
)

// EngineKind selects the processing backend.
type EngineKind string

const (
	EngineVips   EngineKind = "vips"
	EngineNative EngineKind = "native"
)

// Config is the top-level configuration struct.
type Config struct {
	// Engine selection and tuning.
	Engine EngineKind `mapstructure:"engine" default:"vips"`
	Vips   VipsConfig `mapstructure:"vips"`

	// Hard limit on source size read from a stream. 0 disables the limit.
	MaxInputBytes int64 `mapstructure:"max_input_bytes" default:"67108864"`

	// Default encode quality applied when the query does not override it.
	DefaultQuality int `mapstructure:"default_quality" default:"85"`

	// Upper bound for a single request; 0 disables the deadline.
	RequestTimeout time.Duration `mapstructure:"request_timeout" default:"30s"`

	// Storage target for Put-style delivery.
	Storage StorageConfig `mapstructure:"storage"`

	// Logging / metrics.
	LogLevel      string `mapstructure:"log_level" default:"info"`
	EnableMetrics bool   `mapstructure:"enable_metrics"`
}

// VipsConfig tunes the libvips backend.
type VipsConfig struct {
	MaxCacheSize     int  `mapstructure:"max_cache_size" default:"104857600"`
	ConcurrencyLevel int  `mapstructure:"concurrency_level"`
	ReportLeaks      bool `mapstructure:"report_leaks"`
}

// StorageConfig selects and configures the output target.
type StorageConfig struct {
	Backend string      `mapstructure:"backend" default:"local"`
	Local   LocalConfig `mapstructure:"local"`
	S3      S3Config    `mapstructure:"s3"`
}

// LocalConfig configures the local filesystem target.
type LocalConfig struct {
	RootDir     string `mapstructure:"root_dir" default:"./output"`
	Permissions uint32 `mapstructure:"permissions" default:"420"` // 0644
}

// S3Config configures the S3 target.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // optional: MinIO, localstack
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// Default returns a Config populated with production defaults.
func Default() Config {
	var c Config
	_ = defaults.Set(&c)
	return c
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	switch c.Engine {
	case EngineVips, EngineNative:
	default:
		return errors.New("config: Engine must be \"vips\" or \"native\"")
	}
	if c.DefaultQuality < 1 || c.DefaultQuality > 100 {
		return errors.New("config: DefaultQuality must be between 1 and 100")
	}
	if c.MaxInputBytes < 0 {
		return errors.New("config: MaxInputBytes must not be negative")
	}
	switch c.Storage.Backend {
	case "local", "s3", "":
	default:
		return errors.New("config: Storage.Backend must be \"local\" or \"s3\"")
	}
	return nil
}
