package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/infinity-clubs/roulette-display/logging"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Environment      string                 `mapstructure:"environment"`
	Server           ServerConfig           `mapstructure:"server"`
	Redis            RedisConfig            `mapstructure:"redis"`
	Postgres         PostgresConfig         `mapstructure:"postgres"`
	Kafka            KafkaConfig            `mapstructure:"kafka"`
	JWT              JWTConfig              `mapstructure:"jwt"`
	Logging          logging.Config         `mapstructure:"logging"`
	Display          DisplayConfig          `mapstructure:"display"`
	ExternalServices ExternalServicesConfig `mapstructure:"external_services"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// PostgresConfig holds Postgres connection configuration
type PostgresConfig struct {
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers       []string          `mapstructure:"brokers"`
	ConsumerGroup string            `mapstructure:"consumer_group"`
	Topics        map[string]string `mapstructure:"topics"`
}

// SpinTopic returns the topic carrying authoritative spin events.
func (c *KafkaConfig) SpinTopic() string {
	if c.Topics != nil {
		if t, ok := c.Topics["spins"]; ok {
			return t
		}
	}
	return "roulette.spins"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

// DisplayConfig holds per-club display engine configuration
type DisplayConfig struct {
	FrameInterval   time.Duration `mapstructure:"frame_interval"`
	HeartbeatPeriod time.Duration `mapstructure:"heartbeat_period"`
	ResultTimeout   time.Duration `mapstructure:"result_timeout"`
	QueueCap        int           `mapstructure:"queue_cap"`
	FeedSeedLimit   int           `mapstructure:"feed_seed_limit"`
	Reel            ReelConfig    `mapstructure:"reel"`
}

// ReelConfig holds the reel geometry and animation parameters
type ReelConfig struct {
	ItemWidth          float64       `mapstructure:"item_width"`
	PaddingLeft        float64       `mapstructure:"padding_left"`
	ViewportWidth      float64       `mapstructure:"viewport_width"`
	IdleSpeed          float64       `mapstructure:"idle_speed"`
	MaxFrameUnits      float64       `mapstructure:"max_frame_units"`
	SpinDuration       time.Duration `mapstructure:"spin_duration"`
	ExtraRotations     int           `mapstructure:"extra_rotations"`
	MinCopies          int           `mapstructure:"min_copies"`
	ReplenishThreshold int           `mapstructure:"replenish_threshold"`
	ReplenishCount     int           `mapstructure:"replenish_count"`
	EasingExponent     float64       `mapstructure:"easing_exponent"`
}

// ExternalServicesConfig holds external service configurations
type ExternalServicesConfig struct {
	PrizeService  ServiceConfig `mapstructure:"prize_service"`
	PlayerService ServiceConfig `mapstructure:"player_service"`
}

// ServiceConfig holds external service configuration
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load loads configuration from YAML file using Viper
func Load(filename string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(filename)
	v.SetConfigType("yaml")

	// Enable environment variable substitution
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// LoadByEnv loads configuration based on environment using Viper
func LoadByEnv(configDir string) (*Config, error) {
	v := viper.New()

	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	env := viper.GetString("ENV")
	if env == "" {
		env = viper.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	v.SetConfigName(fmt.Sprintf("config-%s", env))
	v.SetConfigType("yaml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.setDefaults()

	return &config, nil
}

// setDefaults sets default values for missing configuration
func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	// WriteTimeout stays 0 unless configured: a server-wide write
	// deadline would sever the SSE and WebSocket streams.
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 5
	}
	if c.Postgres.MaxConns == 0 {
		c.Postgres.MaxConns = 8
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Display.FrameInterval == 0 {
		c.Display.FrameInterval = 50 * time.Millisecond
	}
	if c.Display.HeartbeatPeriod == 0 {
		c.Display.HeartbeatPeriod = 30 * time.Second
	}
	if c.Display.ResultTimeout == 0 {
		c.Display.ResultTimeout = 7 * time.Second
	}
	if c.Display.FeedSeedLimit == 0 {
		c.Display.FeedSeedLimit = 10
	}
	c.Display.Reel.setDefaults()
	if c.ExternalServices.PrizeService.Timeout == 0 {
		c.ExternalServices.PrizeService.Timeout = 10 * time.Second
	}
	if c.ExternalServices.PlayerService.Timeout == 0 {
		c.ExternalServices.PlayerService.Timeout = 10 * time.Second
	}
}

func (r *ReelConfig) setDefaults() {
	if r.ItemWidth == 0 {
		r.ItemWidth = 424 // 400px card + 24px gap
	}
	if r.PaddingLeft == 0 {
		r.PaddingLeft = 20
	}
	if r.ViewportWidth == 0 {
		r.ViewportWidth = 1920
	}
	if r.IdleSpeed == 0 {
		r.IdleSpeed = 15.5
	}
	if r.MaxFrameUnits == 0 {
		r.MaxFrameUnits = 50
	}
	if r.SpinDuration == 0 {
		r.SpinDuration = 15 * time.Second
	}
	if r.ExtraRotations == 0 {
		r.ExtraRotations = 6
	}
	if r.MinCopies == 0 {
		r.MinCopies = 50
	}
	if r.ReplenishThreshold == 0 {
		r.ReplenishThreshold = 25
	}
	if r.ReplenishCount == 0 {
		r.ReplenishCount = 25
	}
	if r.EasingExponent == 0 {
		r.EasingExponent = 8
	}
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return c.Addr
}

// IsDevelopment returns true if environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
