package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "kbforge.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "KBFORGE_PORT")
	setString(&cfg.Server.CORSOrigin, "KBFORGE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "KBFORGE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "KBFORGE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "KBFORGE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "KBFORGE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "KBFORGE_PG_HEALTH_CHECK")
	setString(&cfg.Temporal.HostPort, "TEMPORAL_HOST_PORT")
	setString(&cfg.Temporal.Namespace, "TEMPORAL_NAMESPACE")
	setString(&cfg.Scoring.URL, "KBFORGE_SCORING_URL")
	setString(&cfg.Scoring.APIKey, "KBFORGE_SCORING_API_KEY")
	setDuration(&cfg.Scoring.Timeout, "KBFORGE_SCORING_TIMEOUT")
	setString(&cfg.NATS.URL, "NATS_URL")
	setInt64(&cfg.Cache.MaxEntries, "KBFORGE_CACHE_MAX_ENTRIES")
	setDuration(&cfg.Cache.CriteriaTTL, "KBFORGE_CACHE_CRITERIA_TTL")
	setString(&cfg.Logging.Level, "KBFORGE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "KBFORGE_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "KBFORGE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "KBFORGE_BREAKER_TIMEOUT")
	setFloat64(&cfg.Review.AutoApproveThreshold, "KBFORGE_REVIEW_AUTO_APPROVE")
	setFloat64(&cfg.Review.AutoRejectThreshold, "KBFORGE_REVIEW_AUTO_REJECT")
	setDuration(&cfg.Review.WaitTimeout, "KBFORGE_REVIEW_WAIT_TIMEOUT")
	setDuration(&cfg.Review.AssessmentTimeout, "KBFORGE_REVIEW_ASSESSMENT_TIMEOUT")

	// Routing ceilings
	setInt(&cfg.Routing.HeavyCompute.MaxConcurrentActivities, "KBFORGE_ROUTING_HEAVY_MAX_ACTIVITIES")
	setInt(&cfg.Routing.HeavyCompute.MaxConcurrentWorkflowTasks, "KBFORGE_ROUTING_HEAVY_MAX_WORKFLOW_TASKS")
	setInt(&cfg.Routing.StorageIO.MaxConcurrentActivities, "KBFORGE_ROUTING_STORAGE_MAX_ACTIVITIES")
	setInt(&cfg.Routing.StorageIO.MaxConcurrentWorkflowTasks, "KBFORGE_ROUTING_STORAGE_MAX_WORKFLOW_TASKS")
	setInt(&cfg.Routing.GeneralCoordination.MaxConcurrentActivities, "KBFORGE_ROUTING_GENERAL_MAX_ACTIVITIES")
	setInt(&cfg.Routing.GeneralCoordination.MaxConcurrentWorkflowTasks, "KBFORGE_ROUTING_GENERAL_MAX_WORKFLOW_TASKS")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Temporal.HostPort == "" {
		return errors.New("temporal.host_port is required")
	}
	if cfg.Temporal.Namespace == "" {
		return errors.New("temporal.namespace is required")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Review.AutoRejectThreshold > cfg.Review.AutoApproveThreshold {
		return errors.New("review.auto_reject_threshold must not exceed review.auto_approve_threshold")
	}
	if cfg.Review.WaitTimeout <= 0 {
		return errors.New("review.wait_timeout must be positive")
	}
	for _, t := range []struct {
		name   string
		limits TierLimits
	}{
		{"heavy_compute", cfg.Routing.HeavyCompute},
		{"storage_io", cfg.Routing.StorageIO},
		{"general_coordination", cfg.Routing.GeneralCoordination},
	} {
		if t.limits.MaxConcurrentActivities < 1 || t.limits.MaxConcurrentWorkflowTasks < 1 {
			return fmt.Errorf("routing.%s concurrency ceilings must be >= 1", t.name)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
