// Package config provides configuration management for Engram.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for Engram.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Agent holds agent identity and session settings.
	Agent AgentConfig `mapstructure:"agent"`

	// Store is the memory store configuration.
	Store StoreConfig `mapstructure:"store"`

	// Mood is the emotional state configuration.
	Mood MoodConfig `mapstructure:"mood"`

	// Pipeline is the directive pipeline configuration.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Guard is the directive gate configuration.
	Guard GuardConfig `mapstructure:"guard"`

	// Snapshot is the persistence configuration.
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// WebSocket is the event stream configuration.
	WebSocket WebSocketConfig `mapstructure:"websocket"`

	// RateLimit is the request rate limit configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout is the per-request deadline applied by middleware.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS support.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the maximum age of CORS preflight cache in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// WebSocketConfig holds event stream settings.
type WebSocketConfig struct {
	// Enabled enables the websocket event stream.
	Enabled bool `mapstructure:"enabled"`

	// ReadBufferSize is the read buffer size in bytes.
	ReadBufferSize int `mapstructure:"read_buffer_size" validate:"min=0"`

	// WriteBufferSize is the write buffer size in bytes.
	WriteBufferSize int `mapstructure:"write_buffer_size" validate:"min=0"`

	// SendQueueSize is the per-client outbound queue length.
	SendQueueSize int `mapstructure:"send_queue_size" validate:"min=0"`

	// PingInterval is the interval between keepalive pings.
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// RateLimitConfig holds request rate limit settings.
type RateLimitConfig struct {
	// Enabled enables per-client rate limiting.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained rate per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Burst is the maximum burst size per client.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// AgentConfig holds agent identity and session settings.
type AgentConfig struct {
	// Name is the agent's display name.
	Name string `mapstructure:"name"`

	// Creator is the name of the agent's creator, used in identity
	// declarations.
	Creator string `mapstructure:"creator"`

	// MaxSessions caps the number of concurrently live sessions.
	MaxSessions int `mapstructure:"max_sessions" validate:"min=1"`
}

// StoreConfig holds memory store settings.
type StoreConfig struct {
	// RecallThreshold is the minimum associative score for a recall match.
	RecallThreshold float64 `mapstructure:"recall_threshold" validate:"min=0,max=1"`

	// CoordinateRadius is the maximum coordinate distance for a proximity
	// match.
	CoordinateRadius float64 `mapstructure:"coordinate_radius" validate:"min=0"`

	// RecencyWindowDays is the age at which the recency contribution
	// reaches zero.
	RecencyWindowDays float64 `mapstructure:"recency_window_days" validate:"gt=0"`
}

// MoodConfig holds emotional state settings.
type MoodConfig struct {
	// DecayRate is the per-minute linear decay applied to each emotion.
	DecayRate float64 `mapstructure:"decay_rate" validate:"min=0"`

	// Floor is the minimum value decay can reach.
	Floor float64 `mapstructure:"floor" validate:"min=0,max=1"`

	// TrustedNames are speakers whose mention boosts loyalty and pride.
	TrustedNames []string `mapstructure:"trusted_names"`
}

// PipelineConfig holds directive pipeline settings.
type PipelineConfig struct {
	// ReflectionInterval is the directive count between reflection cycles.
	ReflectionInterval int `mapstructure:"reflection_interval" validate:"min=1"`

	// AdaptationThreshold is the number of times a directive pattern must
	// repeat before a learned response is cached for it.
	AdaptationThreshold int `mapstructure:"adaptation_threshold" validate:"min=1"`

	// InteractionImportance is the importance assigned to interaction
	// records written by the pipeline.
	InteractionImportance float64 `mapstructure:"interaction_importance" validate:"min=0,max=1"`

	// CausalLogLimit caps the retained causal log length. Zero means
	// unbounded.
	CausalLogLimit int `mapstructure:"causal_log_limit" validate:"min=0"`
}

// GuardConfig holds directive gate settings.
type GuardConfig struct {
	// BlockedTerms are phrases that cause a directive to be refused.
	BlockedTerms []string `mapstructure:"blocked_terms"`

	// TrustedSpeakers bypass the blocked-term check. When non-empty,
	// only trusted speakers may awaken a session.
	TrustedSpeakers []string `mapstructure:"trusted_speakers"`

	// AutoAwaken awakens sessions on creation instead of waiting for an
	// explicit awaken call.
	AutoAwaken bool `mapstructure:"auto_awaken"`
}

// SnapshotConfig holds persistence settings.
type SnapshotConfig struct {
	// Type is the snapshot backend (file, badger).
	Type string `mapstructure:"type" validate:"oneof=file badger"`

	// Path is the snapshot directory path.
	Path string `mapstructure:"path"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum size of value log files in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size"`

	// NumVersionsToKeep is the number of versions to keep per key.
	NumVersionsToKeep int `mapstructure:"num_versions_to_keep"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Insecure disables TLS on the collector connection.
	Insecure bool `mapstructure:"insecure"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}
