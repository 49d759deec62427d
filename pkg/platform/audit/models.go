// Package audit records compliance-relevant actions: consent lifecycle
// changes, anonymization runs, sweep outcomes. Audit events are evidence,
// so emission is fire-and-forget but storage is append-only.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryConsent       Category = "consent"
	CategoryAnonymization Category = "anonymization"
	CategorySweep         Category = "sweep"
)

type Action string

const (
	ActionConsentGranted   Action = "consent.granted"
	ActionConsentRevoked   Action = "consent.revoked"
	ActionEntityAnonymized Action = "entity.anonymized"
	ActionEntityRestored   Action = "entity.restored"
	ActionSweepCompleted   Action = "sweep.completed"
)

// Event is one audit record. Detail values must already be safe to store;
// never put raw personal data in an event.
type Event struct {
	ID       uuid.UUID         `json:"id"`
	Category Category          `json:"category"`
	Action   Action            `json:"action"`
	Entity   string            `json:"entity,omitempty"`
	Actor    string            `json:"actor,omitempty"`
	Detail   map[string]string `json:"detail,omitempty"`
	At       time.Time         `json:"at"`
}

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, ev Event) error
}

// JoinDetail renders a string list as a single detail value.
func JoinDetail(values []string) string {
	return strings.Join(values, ",")
}
