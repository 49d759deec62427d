package bootstrap

import (
	"log/slog"

	"lethe/internal/platform/config"
	"lethe/pkg/platform/audit"
)

// NewAuditStore picks the audit backend from configuration: Kafka when
// brokers are set, an in-memory store otherwise. The returned closer is
// always safe to call.
func NewAuditStore(cfg config.Server, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("KAFKA_BROKERS not set, keeping audit events in memory")
		return audit.NewMemoryStore(), func() {}, nil
	}
	store, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
