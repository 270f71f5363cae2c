package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	Elastic     ElasticConfig    `mapstructure:"elastic"`
	ServiceBus  ServiceBusConfig `mapstructure:"servicebus"`
	Tracing     TracingConfig    `mapstructure:"tracing"`
	Logging     LoggingConfig    `mapstructure:"logging"`
	Restaurant  RestaurantConfig `mapstructure:"restaurant"`
	Worker      WorkerConfig     `mapstructure:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	Timeout         time.Duration `mapstructure:"timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsEnabled     bool          `mapstructure:"cors_enabled"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
	MetricsEnabled  bool          `mapstructure:"metrics_enabled"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Debug           bool          `mapstructure:"debug"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	MenuTTL  time.Duration `mapstructure:"menu_ttl"`
}

// Addr returns the host:port pair of the Redis server
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticConfig holds Elasticsearch configuration
type ElasticConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Prefix   string `mapstructure:"prefix"`
	Index    string `mapstructure:"index"`
}

// Enabled reports whether sales indexing is configured
func (c ElasticConfig) Enabled() bool {
	return c.URL != ""
}

// IndexName returns the sales index name with the environment prefix
func (c ElasticConfig) IndexName() string {
	if c.Prefix == "" {
		return c.Index
	}
	return fmt.Sprintf("%s-%s", c.Prefix, c.Index)
}

// ServiceBusConfig holds Azure Service Bus configuration
type ServiceBusConfig struct {
	ConnectionString string `mapstructure:"connection_string"`
	QueueName        string `mapstructure:"queue_name"`
}

// Enabled reports whether event publishing is configured
func (c ServiceBusConfig) Enabled() bool {
	return c.ConnectionString != ""
}

// TracingConfig holds New Relic configuration
type TracingConfig struct {
	LicenseKey     string `mapstructure:"license_key"`
	AppName        string `mapstructure:"app_name"`
	LogEnabled     bool   `mapstructure:"log_enabled"`
	DistribTracing bool   `mapstructure:"distributed_tracing_enabled"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RestaurantConfig holds the business settings of the restaurant
type RestaurantConfig struct {
	Name       string `mapstructure:"name"`
	Timezone   string `mapstructure:"timezone"`
	TableCount int    `mapstructure:"table_count"`
}

// Location loads the configured time zone used for business dates
func (c RestaurantConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid restaurant timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WorkerConfig holds background job configuration
type WorkerConfig struct {
	ReconcileInterval time.Duration `mapstructure:"reconcile_interval"`
}

// LoadConfig reads configuration from a file and environment variables.
// When file is empty, config.yaml is searched in path and ./config.
func LoadConfig(path, file string) (Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if path != "" {
			v.AddConfigPath(path)
		}
		v.AddConfigPath("./config")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No configuration file found, using defaults and environment")
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("server.address", "0.0.0.0:8080")
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_enabled", true)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=cevicheria sslmode=disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.debug", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.menu_ttl", "10m")

	v.SetDefault("elastic.url", "")
	v.SetDefault("elastic.username", "")
	v.SetDefault("elastic.password", "")
	v.SetDefault("elastic.prefix", "")
	v.SetDefault("elastic.index", "pos-sales")

	v.SetDefault("servicebus.connection_string", "")
	v.SetDefault("servicebus.queue_name", "pos-events")

	v.SetDefault("tracing.license_key", "")
	v.SetDefault("tracing.app_name", "cevicheria-pos")
	v.SetDefault("tracing.log_enabled", false)
	v.SetDefault("tracing.distributed_tracing_enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("restaurant.name", "Cevicheria Puerto Prado")
	v.SetDefault("restaurant.timezone", "America/Lima")
	v.SetDefault("restaurant.table_count", 18)

	v.SetDefault("worker.reconcile_interval", "5m")
}
