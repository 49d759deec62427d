package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr                string
	DatabaseURL         string
	RedisURL            string
	KafkaBrokers        []string
	AuditTopic          string
	PurposesFile        string
	AnonymizationSecret string
	JWTSigningKey       string
	SweepInterval       time.Duration
	SweepParallelism    int
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                getenv("LETHE_ADDR", ":8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		AuditTopic:          getenv("AUDIT_TOPIC", "lethe.audit"),
		PurposesFile:        os.Getenv("PURPOSES_FILE"),
		AnonymizationSecret: os.Getenv("ANONYMIZATION_SECRET"),
		JWTSigningKey:       os.Getenv("JWT_SIGNING_KEY"),
		SweepInterval:       time.Hour,
		SweepParallelism:    8,
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			cfg.SweepInterval = d
		}
	}
	if cfg.AnonymizationSecret == "" {
		// Development default; production must set its own secret, rotating
		// it breaks reversibility of already anonymized values.
		cfg.AnonymizationSecret = "dev-secret-change-in-production"
	}
	if cfg.JWTSigningKey == "" {
		cfg.JWTSigningKey = "dev-secret-key-change-in-production"
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
