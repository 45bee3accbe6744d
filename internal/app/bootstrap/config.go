package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the resolved runtime configuration for the mission service.
type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	KafkaGroupID string
	KafkaTopics  map[string]string

	JWTSecret string
	JWTIssuer string

	ReportingURL     string
	ReportingTimeout time.Duration

	MaxDBConns           int32
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
	ConsumerPollInterval time.Duration

	SweepTick      time.Duration
	SweepInterval  time.Duration
	SweepLockTTL   time.Duration
	SweepBatchSize int

	CheckInTolerance      time.Duration
	GeofenceMeters        float64
	MissionGracePeriod    time.Duration
	PriceTolerance        int
	MatchCacheTTL         time.Duration
	DefaultMatchLimit     int
	MaxMatchLimit         int
	PlaceholderDistanceKm float64
	DefaultAlertLimit     int
}

// configFile mirrors configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL  string   `yaml:"postgres_url"`
		RedisURL     string   `yaml:"redis_url"`
		KafkaBrokers []string `yaml:"kafka_brokers"`
		ReportingURL string   `yaml:"reporting_url"`
	} `yaml:"dependencies"`
	Events struct {
		GroupID string            `yaml:"group_id"`
		Topics  map[string]string `yaml:"topics"`
	} `yaml:"events"`
	Auth struct {
		Issuer string `yaml:"issuer"`
	} `yaml:"auth"`
	Missions struct {
		CheckInWindowMinutes int     `yaml:"checkin_window_minutes"`
		GeofenceMeters       float64 `yaml:"geofence_meters"`
		GraceMinutes         int     `yaml:"grace_minutes"`
		PriceTolerance       int     `yaml:"price_tolerance"`
	} `yaml:"missions"`
	Matching struct {
		DefaultLimit          int     `yaml:"default_limit"`
		MaxLimit              int     `yaml:"max_limit"`
		CacheTTLSeconds       int     `yaml:"cache_ttl_seconds"`
		PlaceholderDistanceKm float64 `yaml:"placeholder_distance_km"`
	} `yaml:"matching"`
	Sweep struct {
		TickSeconds     int `yaml:"tick_seconds"`
		IntervalSeconds int `yaml:"interval_seconds"`
		LockTTLSeconds  int `yaml:"lock_ttl_seconds"`
		BatchSize       int `yaml:"batch_size"`
	} `yaml:"sweep"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:        "care-mission-service",
		HTTPPort:         8080,
		GRPCPort:         9090,
		KafkaGroupID:     "care-mission-service",
		KafkaTopics:      map[string]string{},
		JWTIssuer:        "",
		ReportingTimeout: 10 * time.Second,

		MaxDBConns:           20,
		OutboxPollInterval:   2 * time.Second,
		OutboxBatchSize:      100,
		ConsumerPollInterval: 2 * time.Second,

		SweepTick:      time.Minute,
		SweepInterval:  5 * time.Minute,
		SweepLockTTL:   2 * time.Minute,
		SweepBatchSize: 200,

		CheckInTolerance:      30 * time.Minute,
		GeofenceMeters:        200,
		MissionGracePeriod:    30 * time.Minute,
		PriceTolerance:        20,
		MatchCacheTTL:         2 * time.Minute,
		DefaultMatchLimit:     5,
		MaxMatchLimit:         50,
		PlaceholderDistanceKm: 15,
		DefaultAlertLimit:     20,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		applyFile(&cfg, f)
	} else if !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("DATABASE_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaGroupID = envOrDefault("KAFKA_GROUP_ID", cfg.KafkaGroupID)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.ReportingURL = envOrDefault("REPORTING_URL", cfg.ReportingURL)

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.OutboxBatchSize = envInt("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.SweepBatchSize = envInt("SWEEP_BATCH_SIZE", cfg.SweepBatchSize)
	cfg.PriceTolerance = envInt("PRICE_TOLERANCE", cfg.PriceTolerance)
	cfg.GeofenceMeters = envFloat("GEOFENCE_METERS", cfg.GeofenceMeters)

	cfg.OutboxPollInterval = envSeconds("OUTBOX_POLL_SECONDS", cfg.OutboxPollInterval)
	cfg.ConsumerPollInterval = envSeconds("CONSUMER_POLL_SECONDS", cfg.ConsumerPollInterval)
	cfg.SweepTick = envSeconds("SWEEP_TICK_SECONDS", cfg.SweepTick)
	cfg.SweepInterval = envSeconds("SWEEP_INTERVAL_SECONDS", cfg.SweepInterval)
	cfg.SweepLockTTL = envSeconds("SWEEP_LOCK_TTL_SECONDS", cfg.SweepLockTTL)
	cfg.MatchCacheTTL = envSeconds("MATCH_CACHE_TTL_SECONDS", cfg.MatchCacheTTL)
	cfg.ReportingTimeout = envSeconds("REPORTING_TIMEOUT_SECONDS", cfg.ReportingTimeout)
	cfg.CheckInTolerance = time.Duration(envInt("CHECKIN_WINDOW_MINUTES", int(cfg.CheckInTolerance.Minutes()))) * time.Minute
	cfg.MissionGracePeriod = time.Duration(envInt("MISSION_GRACE_MINUTES", int(cfg.MissionGracePeriod.Minutes()))) * time.Minute

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("missing DB_URL/DATABASE_URL")
	}
	return cfg, nil
}

func applyFile(cfg *Config, f configFile) {
	if f.Service.ID != "" {
		cfg.ServiceID = f.Service.ID
	}
	if f.Service.HTTPPort > 0 {
		cfg.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		cfg.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		cfg.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		cfg.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		cfg.KafkaBrokers = f.Dependencies.KafkaBrokers
	}
	if f.Dependencies.ReportingURL != "" {
		cfg.ReportingURL = f.Dependencies.ReportingURL
	}
	if f.Events.GroupID != "" {
		cfg.KafkaGroupID = f.Events.GroupID
	}
	for eventType, topic := range f.Events.Topics {
		cfg.KafkaTopics[eventType] = topic
	}
	if f.Auth.Issuer != "" {
		cfg.JWTIssuer = f.Auth.Issuer
	}
	if f.Missions.CheckInWindowMinutes > 0 {
		cfg.CheckInTolerance = time.Duration(f.Missions.CheckInWindowMinutes) * time.Minute
	}
	if f.Missions.GeofenceMeters > 0 {
		cfg.GeofenceMeters = f.Missions.GeofenceMeters
	}
	if f.Missions.GraceMinutes > 0 {
		cfg.MissionGracePeriod = time.Duration(f.Missions.GraceMinutes) * time.Minute
	}
	if f.Missions.PriceTolerance > 0 {
		cfg.PriceTolerance = f.Missions.PriceTolerance
	}
	if f.Matching.DefaultLimit > 0 {
		cfg.DefaultMatchLimit = f.Matching.DefaultLimit
	}
	if f.Matching.MaxLimit > 0 {
		cfg.MaxMatchLimit = f.Matching.MaxLimit
	}
	if f.Matching.CacheTTLSeconds > 0 {
		cfg.MatchCacheTTL = time.Duration(f.Matching.CacheTTLSeconds) * time.Second
	}
	if f.Matching.PlaceholderDistanceKm > 0 {
		cfg.PlaceholderDistanceKm = f.Matching.PlaceholderDistanceKm
	}
	if f.Sweep.TickSeconds > 0 {
		cfg.SweepTick = time.Duration(f.Sweep.TickSeconds) * time.Second
	}
	if f.Sweep.IntervalSeconds > 0 {
		cfg.SweepInterval = time.Duration(f.Sweep.IntervalSeconds) * time.Second
	}
	if f.Sweep.LockTTLSeconds > 0 {
		cfg.SweepLockTTL = time.Duration(f.Sweep.LockTTLSeconds) * time.Second
	}
	if f.Sweep.BatchSize > 0 {
		cfg.SweepBatchSize = f.Sweep.BatchSize
	}
}

// SQLiteDSN reports whether the database URL points at a local sqlite file
// and returns the DSN to hand to the driver.
func (c Config) SQLiteDSN() (string, bool) {
	switch {
	case strings.HasPrefix(c.DatabaseURL, "sqlite://"):
		return strings.TrimPrefix(c.DatabaseURL, "sqlite://"), true
	case strings.HasPrefix(c.DatabaseURL, "sqlite:"):
		return strings.TrimPrefix(c.DatabaseURL, "sqlite:"), true
	case strings.HasPrefix(c.DatabaseURL, "file:"):
		return c.DatabaseURL, true
	default:
		return "", false
	}
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envSeconds(name string, fallback time.Duration) time.Duration {
	return time.Duration(envInt(name, int(fallback.Seconds()))) * time.Second
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
