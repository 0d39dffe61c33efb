package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Backend struct {
		Type         string        `yaml:"type"`
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers       []string `yaml:"brokers"`
		ReadingsTopic string   `yaml:"readings_topic"`
		ResultsTopic  string   `yaml:"results_topic"`
		LogsTopic     string   `yaml:"logs_topic"`
		RequiredAcks  int      `yaml:"required_acks"`
		Compression   string   `yaml:"compression"`
		Producer      struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Source struct {
		Type string `yaml:"type"` // poll, websocket, mqtt, replay, synthetic
		Poll struct {
			Endpoint string        `yaml:"endpoint"`
			Interval time.Duration `yaml:"interval"`
			Timeout  time.Duration `yaml:"timeout"`
		} `yaml:"poll"`
		WebSocket struct {
			URL            string        `yaml:"url"`
			ReconnectDelay time.Duration `yaml:"reconnect_delay"`
			PingInterval   time.Duration `yaml:"ping_interval"`
		} `yaml:"websocket"`
		MQTT struct {
			Broker   string `yaml:"broker"`
			ClientID string `yaml:"client_id"`
			Topic    string `yaml:"topic"`
			QoS      int    `yaml:"qos"`
			Username string `yaml:"username"`
			Password string `yaml:"password"`
		} `yaml:"mqtt"`
		Replay struct {
			Path string        `yaml:"path"`
			Pace time.Duration `yaml:"pace"`
		} `yaml:"replay"`
		Synthetic struct {
			Interval time.Duration `yaml:"interval"`
			Seed     int64         `yaml:"seed"`
		} `yaml:"synthetic"`
	} `yaml:"source"`
	Scoring struct {
		Products           []string `yaml:"products"`
		DefaultProduct     string   `yaml:"default_product"`
		Window             int      `yaml:"window"`
		Mode               string   `yaml:"mode"` // adaptive or simple
		RequireConsecutive int      `yaml:"require_consecutive"`
	} `yaml:"scoring"`
	Cache struct {
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		LatestTTL time.Duration `yaml:"latest_ttl"`
	} `yaml:"cache"`
	Export struct {
		Dir        string        `yaml:"dir"`
		Workers    int           `yaml:"workers"`
		JobTimeout time.Duration `yaml:"job_timeout"`
	} `yaml:"export"`
	Predictor struct {
		Enabled  bool          `yaml:"enabled"`
		URL      string        `yaml:"url"`
		Timeout  time.Duration `yaml:"timeout"`
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"predictor"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("SENSOR_ENDPOINT"); v != "" {
		c.Source.Poll.Endpoint = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		c.Source.MQTT.Broker = v
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_READINGS_TOPIC"); v != "" {
		c.Kafka.ReadingsTopic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PRODUCTS"); v != "" {
		c.Scoring.Products = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Backend.Type == "" {
		return fmt.Errorf("backend.type is required")
	}
	if c.Backend.Type != "kafka" && c.Backend.Type != "clickhouse" {
		return fmt.Errorf("backend.type must be 'kafka' or 'clickhouse', got '%s'", c.Backend.Type)
	}
	switch c.Source.Type {
	case "poll", "websocket", "mqtt", "replay", "synthetic":
	default:
		return fmt.Errorf("source.type must be one of poll, websocket, mqtt, replay, synthetic, got '%s'", c.Source.Type)
	}
	if c.Source.Type == "poll" && c.Source.Poll.Endpoint == "" {
		return fmt.Errorf("source.poll.endpoint is required for poll source")
	}
	if c.Source.Type == "mqtt" && c.Source.MQTT.Broker == "" {
		return fmt.Errorf("source.mqtt.broker is required for mqtt source")
	}
	if c.Source.Type == "replay" && c.Source.Replay.Path == "" {
		return fmt.Errorf("source.replay.path is required for replay source")
	}
	if len(c.Scoring.Products) == 0 {
		return fmt.Errorf("scoring.products cannot be empty")
	}
	if c.Scoring.Mode != "" && c.Scoring.Mode != "adaptive" && c.Scoring.Mode != "simple" {
		return fmt.Errorf("scoring.mode must be 'adaptive' or 'simple', got '%s'", c.Scoring.Mode)
	}
	return nil
}
