package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"triaged/pkg/models"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
	Engine   EngineConfig   `yaml:"engine"`
	Channels ChannelsConfig `yaml:"channels"`
	Lanes    LanesConfig    `yaml:"lanes"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Handoff  HandoffConfig  `yaml:"handoff"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// ServerConfig holds http and storage settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	Engine  string    `yaml:"engine"` // nethttp | fasthttp
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	AuditDir string `yaml:"audit_dir"`
}

// SecurityConfig holds API keys and rate limiting.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys struct {
		Backend []string `yaml:"backend"`
		Admin   []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// EngineConfig is the decision engine's tunable surface. Values, not code:
// the rule order itself is fixed.
type EngineConfig struct {
	SentimentThreshold    float64  `yaml:"sentiment_threshold"`
	SentimentWindow       int      `yaml:"sentiment_window"`
	ConfidenceThreshold   float64  `yaml:"confidence_threshold"`
	MaxUnresolvedAttempts int      `yaml:"max_unresolved_attempts"`
	SummaryMaxChars       int      `yaml:"summary_max_chars"`
	ReopenResolvedWithin  Duration `yaml:"reopen_resolved_within"`
	ReopenEscalated       bool     `yaml:"reopen_escalated"`
}

// ChannelLimit is a per-channel response-length budget. It is passed
// through to the formatting collaborator unchanged, never enforced here.
type ChannelLimit struct {
	MaxWords int `yaml:"max_words,omitempty"`
	MaxChars int `yaml:"max_chars,omitempty"`
}

// ChannelsConfig holds per-channel limits.
type ChannelsConfig struct {
	Email   ChannelLimit `yaml:"email"`
	Chat    ChannelLimit `yaml:"chat"`
	WebForm ChannelLimit `yaml:"web_form"`
}

// LanesConfig controls the per-customer processing lanes.
type LanesConfig struct {
	Workers       int `yaml:"workers"`
	QueueCapacity int `yaml:"queue_capacity"`
}

// KafkaConfig holds the stream transport settings. When disabled the HTTP
// API is the only ingestion path.
type KafkaConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Brokers           []string `yaml:"brokers"`
	InteractionsTopic string   `yaml:"interactions_topic"`
	DecisionsTopic    string   `yaml:"decisions_topic"`
	EscalationsTopic  string   `yaml:"escalations_topic"`
	DLQTopic          string   `yaml:"dlq_topic"`
	GroupID           string   `yaml:"group_id"`
}

// HandoffConfig bounds the human-handoff notification retries.
type HandoffConfig struct {
	MaxAttempts    int      `yaml:"max_attempts"`
	InitialBackoff Duration `yaml:"initial_backoff"`
	MaxBackoff     Duration `yaml:"max_backoff"`
}

// SweeperConfig holds the background maintenance schedule.
type SweeperConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Cron             string   `yaml:"cron"`
	IdleResolveAfter Duration `yaml:"idle_resolve_after"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ResponseLimits returns the configured per-channel limits as the map that
// rides along, values unchanged, in decision events and handoff payloads.
func (c *Config) ResponseLimits() map[string]models.ResponseLimit {
	out := map[string]models.ResponseLimit{}
	if l := c.Channels.Email; l.MaxWords > 0 || l.MaxChars > 0 {
		out["email"] = models.ResponseLimit{MaxWords: l.MaxWords, MaxChars: l.MaxChars}
	}
	if l := c.Channels.Chat; l.MaxWords > 0 || l.MaxChars > 0 {
		out["chat"] = models.ResponseLimit{MaxWords: l.MaxWords, MaxChars: l.MaxChars}
	}
	if l := c.Channels.WebForm; l.MaxWords > 0 || l.MaxChars > 0 {
		out["web_form"] = models.ResponseLimit{MaxWords: l.MaxWords, MaxChars: l.MaxChars}
	}
	return out
}

// Duration is a wrapper around time.Duration that supports YAML parsing
// from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	raw := strings.TrimSpace(node.Value)
	if raw == "" {
		*d = Duration(0)
		return nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		*d = Duration(td)
		return nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(time.Duration(f * float64(time.Second)))
		return nil
	}
	return fmt.Errorf("invalid duration value: %q", node.Value)
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }
