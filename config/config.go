package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/AntonStoeckl/venue-shards-go/venuestore/partition"
)

// EnvPrefix is the prefix of all environment overrides.
const EnvPrefix = "VENUES"

// Supported values of the enumerated settings.
const (
	AdapterPGXPool = "pgxpool"
	AdapterSQLDB   = "sqldb"
	AdapterSQLX    = "sqlx"

	LockBackendNone  = "none"
	LockBackendLocal = "local"
	LockBackendRedis = "redis"

	LogFormatText = "text"
	LogFormatJSON = "json"
)

const (
	defaultAdapter           = AdapterPGXPool
	defaultPartitionTimeout  = 5 * time.Second
	defaultHealthInterval    = 10 * time.Second
	defaultHealthMaxFailures = 3
	defaultMaxConns          = 8
	defaultMinConns          = 1
	defaultMaxConnLifetime   = time.Hour
	defaultMaxConnIdleTime   = 5 * time.Minute
	defaultLockBackend       = LockBackendLocal
	defaultLockTTL           = 10 * time.Second
	defaultLogLevel          = "info"
	defaultLogFormat         = LogFormatText
	defaultServiceName       = "venue-shards"
	defaultOTLPEndpoint      = "localhost:4317"
)

var (
	ErrReadingConfigFailed = errors.New("reading config failed")
	ErrInvalidConfig       = errors.New("invalid config")
)

// PartitionConfig is one partition database.
type PartitionConfig struct {
	Name string `yaml:"name"`
	DSN  string `yaml:"dsn"`
}

// Partitions is the ordered partition list. The position is the partition ID.
type Partitions []PartitionConfig

// Decode parses "name=dsn;name=dsn" from an environment variable.
func (p *Partitions) Decode(value string) error {
	parsed := make(Partitions, 0)

	for _, entry := range strings.Split(value, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, dsn, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("partition entry %q is not name=dsn", entry)
		}

		parsed = append(parsed, PartitionConfig{Name: strings.TrimSpace(name), DSN: strings.TrimSpace(dsn)})
	}

	*p = parsed

	return nil
}

// PoolConfig tunes the connection pool of every partition.
type PoolConfig struct {
	MaxConns        int           `yaml:"max_conns" envconfig:"MAX_CONNS"`
	MinConns        int           `yaml:"min_conns" envconfig:"MIN_CONNS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" envconfig:"MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" envconfig:"MAX_CONN_IDLE_TIME"`
}

// LockConfig selects the per-venue locker.
type LockConfig struct {
	Backend   string        `yaml:"backend" envconfig:"BACKEND"`
	RedisAddr string        `yaml:"redis_addr" envconfig:"REDIS_ADDR"`
	TTL       time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL"`
	Format string `yaml:"format" envconfig:"FORMAT"`
}

// TelemetryConfig configures the OpenTelemetry export.
type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName  string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	OTLPEndpoint string `yaml:"otlp_endpoint" envconfig:"OTLP_ENDPOINT"`
}

// Config is the complete configuration.
type Config struct {
	Partitions        Partitions      `yaml:"partitions" envconfig:"PARTITIONS"`
	Adapter           string          `yaml:"adapter" envconfig:"ADAPTER"`
	PartitionTimeout  time.Duration   `yaml:"partition_timeout" envconfig:"PARTITION_TIMEOUT"`
	HealthInterval    time.Duration   `yaml:"health_interval" envconfig:"HEALTH_INTERVAL"`
	HealthMaxFailures int             `yaml:"health_max_failures" envconfig:"HEALTH_MAX_FAILURES"`
	Pool              PoolConfig      `yaml:"pool" envconfig:"POOL"`
	Lock              LockConfig      `yaml:"lock" envconfig:"LOCK"`
	Log               LogConfig       `yaml:"log" envconfig:"LOG"`
	Telemetry         TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// Load reads the YAML file at path, applies environment overrides and defaults, and validates.
// An empty path skips the file.
func Load(path string) (Config, error) {
	var data []byte

	if path != "" {
		var err error

		data, err = os.ReadFile(path)
		if err != nil {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}
	}

	return Parse(data)
}

// Parse is Load for YAML content already in memory.
func Parse(data []byte) (Config, error) {
	var cfg Config

	if len(bytes.TrimSpace(data)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)

		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Join(ErrReadingConfigFailed, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Join(ErrReadingConfigFailed, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Adapter, defaultAdapter)
	setDefault(&c.PartitionTimeout, defaultPartitionTimeout)
	setDefault(&c.HealthInterval, defaultHealthInterval)
	setDefault(&c.HealthMaxFailures, defaultHealthMaxFailures)
	setDefault(&c.Pool.MaxConns, defaultMaxConns)
	setDefault(&c.Pool.MinConns, defaultMinConns)
	setDefault(&c.Pool.MaxConnLifetime, defaultMaxConnLifetime)
	setDefault(&c.Pool.MaxConnIdleTime, defaultMaxConnIdleTime)
	setDefault(&c.Lock.Backend, defaultLockBackend)
	setDefault(&c.Lock.TTL, defaultLockTTL)
	setDefault(&c.Log.Level, defaultLogLevel)
	setDefault(&c.Log.Format, defaultLogFormat)
	setDefault(&c.Telemetry.ServiceName, defaultServiceName)
	setDefault(&c.Telemetry.OTLPEndpoint, defaultOTLPEndpoint)

	c.Adapter = strings.ToLower(c.Adapter)
	c.Lock.Backend = strings.ToLower(c.Lock.Backend)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

func setDefault[T comparable](field *T, value T) {
	var zero T
	if *field == zero {
		*field = value
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := partition.NewSet(c.Descriptors()); err != nil {
		return errors.Join(ErrInvalidConfig, err)
	}

	for _, p := range c.Partitions {
		if strings.TrimSpace(p.DSN) == "" {
			return invalid("partition %q has no dsn", p.Name)
		}
	}

	switch c.Adapter {
	case AdapterPGXPool, AdapterSQLDB, AdapterSQLX:
	default:
		return invalid("adapter must be one of pgxpool, sqldb, sqlx, got %q", c.Adapter)
	}

	if c.PartitionTimeout <= 0 || c.HealthInterval <= 0 {
		return invalid("partition_timeout and health_interval must be positive")
	}

	if c.HealthMaxFailures < 1 {
		return invalid("health_max_failures must be at least 1, got %d", c.HealthMaxFailures)
	}

	if c.Pool.MaxConns < 1 || c.Pool.MinConns < 0 || c.Pool.MinConns > c.Pool.MaxConns {
		return invalid("pool needs 0 <= min_conns <= max_conns and max_conns >= 1, got %d/%d", c.Pool.MinConns, c.Pool.MaxConns)
	}

	switch c.Lock.Backend {
	case LockBackendNone, LockBackendLocal:
	case LockBackendRedis:
		if c.Lock.RedisAddr == "" {
			return invalid("lock backend redis needs redis_addr")
		}
	default:
		return invalid("lock backend must be one of none, local, redis, got %q", c.Lock.Backend)
	}

	if c.Lock.TTL <= 0 {
		return invalid("lock ttl must be positive")
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	if c.Log.Format != LogFormatText && c.Log.Format != LogFormatJSON {
		return invalid("log format must be text or json, got %q", c.Log.Format)
	}

	return nil
}

// Descriptors returns the partitions with their IDs.
func (c Config) Descriptors() []partition.Descriptor {
	descriptors := make([]partition.Descriptor, 0, len(c.Partitions))
	for i, p := range c.Partitions {
		descriptors = append(descriptors, partition.Descriptor{ID: partition.ID(i), Name: p.Name, DSN: p.DSN})
	}

	return descriptors
}

func invalid(format string, args ...any) error {
	return errors.Join(ErrInvalidConfig, fmt.Errorf(format, args...))
}
