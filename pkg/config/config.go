package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults returns a Config populated with the documented default values.
func Defaults() *Config {
	cfg := &Config{}
	cfg.Server.Address = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.DBPath = "./data"
	cfg.Server.Engine = "nethttp"
	cfg.Logging.Level = "info"

	cfg.Engine.SentimentThreshold = 0.30
	cfg.Engine.SentimentWindow = 2
	cfg.Engine.ConfidenceThreshold = 0.65
	cfg.Engine.MaxUnresolvedAttempts = 2
	cfg.Engine.SummaryMaxChars = 500
	cfg.Engine.ReopenResolvedWithin = Duration(24 * time.Hour)
	cfg.Engine.ReopenEscalated = false

	cfg.Channels.Email.MaxWords = 500
	cfg.Channels.Chat.MaxChars = 300
	cfg.Channels.WebForm.MaxWords = 300

	cfg.Lanes.Workers = 8
	cfg.Lanes.QueueCapacity = 1024

	cfg.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Kafka.InteractionsTopic = "triage.interactions.incoming"
	cfg.Kafka.DecisionsTopic = "triage.decisions"
	cfg.Kafka.EscalationsTopic = "triage.escalations"
	cfg.Kafka.DLQTopic = "triage.dlq"
	cfg.Kafka.GroupID = "triaged-engine"

	cfg.Handoff.MaxAttempts = 2
	cfg.Handoff.InitialBackoff = Duration(500 * time.Millisecond)
	cfg.Handoff.MaxBackoff = Duration(5 * time.Second)

	cfg.Sweeper.Enabled = true
	cfg.Sweeper.Cron = "*/10 * * * *"
	cfg.Sweeper.IdleResolveAfter = Duration(24 * time.Hour)
	return cfg
}

// Load reads the YAML config at path (when present) over the defaults and
// then applies TRIAGED_* environment overrides. A missing file is not an
// error; a malformed one is.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides config values from TRIAGED_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TRIAGED_ADDR"); v != "" {
		if host, port, ok := SplitHostPort(v); ok {
			cfg.Server.Address = host
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("TRIAGED_DB_PATH"); v != "" {
		cfg.Server.DBPath = v
	}
	if v := os.Getenv("TRIAGED_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TRIAGED_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
		cfg.Kafka.Enabled = true
	}
	if v := os.Getenv("TRIAGED_BACKEND_KEY"); v != "" {
		cfg.Security.APIKeys.Backend = append(cfg.Security.APIKeys.Backend, v)
	}
	if v := os.Getenv("TRIAGED_ADMIN_KEY"); v != "" {
		cfg.Security.APIKeys.Admin = append(cfg.Security.APIKeys.Admin, v)
	}
}

// SplitHostPort parses "host:port" into its parts. An empty host maps to
// 0.0.0.0 so flag values like ":8080" work.
func SplitHostPort(v string) (string, int, bool) {
	i := strings.LastIndex(v, ":")
	if i < 0 {
		return "", 0, false
	}
	host := v[:i]
	port, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return "", 0, false
	}
	if host == "" {
		host = "0.0.0.0"
	}
	return host, port, true
}

// Validate rejects configs the engine cannot run with. Called once at
// startup so bad deployments fail fast.
func (c *Config) Validate() error {
	if c.Engine.SentimentThreshold < 0 || c.Engine.SentimentThreshold > 1 {
		return fmt.Errorf("engine.sentiment_threshold must be in [0,1], got %v", c.Engine.SentimentThreshold)
	}
	if c.Engine.ConfidenceThreshold < 0 || c.Engine.ConfidenceThreshold > 1 {
		return fmt.Errorf("engine.confidence_threshold must be in [0,1], got %v", c.Engine.ConfidenceThreshold)
	}
	if c.Engine.SentimentWindow < 1 {
		return fmt.Errorf("engine.sentiment_window must be >= 1, got %d", c.Engine.SentimentWindow)
	}
	if c.Engine.MaxUnresolvedAttempts < 1 {
		return fmt.Errorf("engine.max_unresolved_attempts must be >= 1, got %d", c.Engine.MaxUnresolvedAttempts)
	}
	if c.Lanes.Workers < 1 {
		return fmt.Errorf("lanes.workers must be >= 1, got %d", c.Lanes.Workers)
	}
	switch c.Server.Engine {
	case "", "nethttp", "fasthttp":
	default:
		return fmt.Errorf("server.engine must be nethttp or fasthttp, got %q", c.Server.Engine)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.enabled requires at least one broker")
	}
	return nil
}
