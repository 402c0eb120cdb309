package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "engram",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 10 * time.Second,
				RequestTimeout:  15 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        true,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
				MaxAge:         300,
			},
			WebSocket: WebSocketConfig{
				Enabled:         true,
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				SendQueueSize:   64,
				PingInterval:    30 * time.Second,
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 50,
				Burst:             100,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Agent: AgentConfig{
			Name:        "engram",
			Creator:     "operator",
			MaxSessions: 256,
		},
		Store: StoreConfig{
			RecallThreshold:   0.3,
			CoordinateRadius:  0.1,
			RecencyWindowDays: 30,
		},
		Mood: MoodConfig{
			DecayRate: 0.02,
			Floor:     0.05,
		},
		Pipeline: PipelineConfig{
			ReflectionInterval:    5,
			AdaptationThreshold:   3,
			InteractionImportance: 0.6,
			CausalLogLimit:        1000,
		},
		Guard: GuardConfig{
			BlockedTerms: []string{"harm creator", "betray", "self destruct"},
			AutoAwaken:   true,
		},
		Snapshot: SnapshotConfig{
			Type: "file",
			Path: "./data/snapshots",
			Badger: BadgerConfig{
				SyncWrites:        true,
				ValueLogFileSize:  1073741824, // 1GB
				NumVersionsToKeep: 1,
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 0.1,
		},
	}
}
