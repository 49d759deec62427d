package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/mssola/useragent"

	"lethe/internal/consent"
	"lethe/internal/entity"
	"lethe/internal/platform/middleware"
	"lethe/internal/transport/http/shared"
	dErrors "lethe/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_consent.go -destination=mocks/consent_service.go -package=mocks

// ConsentService defines the interface for consent operations.
type ConsentService interface {
	CreateConsent(ctx context.Context, ref entity.Ref, slugs []string, opts ...consent.GrantOption) (*consent.LegalReason, error)
	DeactivateConsent(ctx context.Context, slug string, e entity.Entity) ([]*consent.LegalReason, error)
	RenewConsent(ctx context.Context, e entity.Entity, slugs []string, opts ...consent.GrantOption) (*consent.LegalReason, error)
	List(ctx context.Context, ref entity.Ref) ([]*consent.LegalReason, error)
	ExistsValidConsent(ctx context.Context, slug string, ref entity.Ref) (bool, error)
}

type grantConsentRequest struct {
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Purposes   []string   `json:"purposes"`
	Tag        string     `json:"tag,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type revokeConsentRequest struct {
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Purpose    string `json:"purpose"`
}

type legalReasonResponse struct {
	ID        string    `json:"id"`
	Entity    string    `json:"entity"`
	Purposes  []string  `json:"purposes"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
	Tag       string    `json:"tag,omitempty"`
}

func toReasonResponse(lr *consent.LegalReason) legalReasonResponse {
	return legalReasonResponse{
		ID:        lr.ID.String(),
		Entity:    lr.Entity.String(),
		Purposes:  lr.Purposes,
		IssuedAt:  lr.IssuedAt,
		ExpiresAt: lr.ExpiresAt,
		Active:    lr.Active,
		Tag:       lr.Tag,
	}
}

// handleGrantConsent records a new consent for the addressed entity.
func (h *Handler) handleGrantConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	var req grantConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid grant consent request",
			"request_id", requestID,
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.EntityType == "" || req.EntityID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entity_type and entity_id are required"))
		return
	}

	tag := req.Tag
	if tag == "" {
		// No explicit source: record the client platform so a grant can
		// still be traced back to a channel.
		ua := useragent.New(r.UserAgent())
		name, _ := ua.Browser()
		if name != "" {
			tag = name + "/" + ua.OS()
		}
	}

	opts := []consent.GrantOption{consent.WithTag(tag)}
	if req.ExpiresAt != nil {
		opts = append(opts, consent.WithExpiresAt(*req.ExpiresAt))
	}
	ref := entity.Ref{Type: req.EntityType, ID: req.EntityID}
	lr, err := h.consent.CreateConsent(ctx, ref, req.Purposes, opts...)
	if err != nil {
		h.writeServiceError(ctx, w, "grant consent", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ConsentsGranted.Inc()
	}
	shared.WriteJSON(w, http.StatusCreated, toReasonResponse(lr))
}

// handleRevokeConsent deactivates consent for one purpose and anonymizes
// the now unprotected fields before responding.
func (h *Handler) handleRevokeConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req revokeConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.EntityType == "" || req.EntityID == "" || req.Purpose == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entity_type, entity_id and purpose are required"))
		return
	}

	ent, err := h.loader.Load(ctx, entity.Ref{Type: req.EntityType, ID: req.EntityID})
	if err != nil {
		h.writeServiceError(ctx, w, "revoke consent", err)
		return
	}
	revoked, err := h.consent.DeactivateConsent(ctx, req.Purpose, ent)
	if err != nil {
		h.writeServiceError(ctx, w, "revoke consent", err)
		return
	}
	if h.metrics != nil {
		h.metrics.ConsentsRevoked.Add(float64(len(revoked)))
	}
	out := make([]legalReasonResponse, 0, len(revoked))
	for _, lr := range revoked {
		out = append(out, toReasonResponse(lr))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"revoked": out})
}

// handleRenewConsent grants consent anew and restores covered fields.
func (h *Handler) handleRenewConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req grantConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.EntityType == "" || req.EntityID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entity_type and entity_id are required"))
		return
	}

	ent, err := h.loader.Load(ctx, entity.Ref{Type: req.EntityType, ID: req.EntityID})
	if err != nil {
		h.writeServiceError(ctx, w, "renew consent", err)
		return
	}
	opts := []consent.GrantOption{consent.WithTag(req.Tag)}
	if req.ExpiresAt != nil {
		opts = append(opts, consent.WithExpiresAt(*req.ExpiresAt))
	}
	lr, err := h.consent.RenewConsent(ctx, ent, req.Purposes, opts...)
	if err != nil {
		h.writeServiceError(ctx, w, "renew consent", err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, toReasonResponse(lr))
}

// handleListConsents lists all reasons, active and not, for an entity.
func (h *Handler) handleListConsents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	if entityType == "" || entityID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entity_type and entity_id are required"))
		return
	}
	reasons, err := h.consent.List(ctx, entity.Ref{Type: entityType, ID: entityID})
	if err != nil {
		h.writeServiceError(ctx, w, "list consents", err)
		return
	}
	out := make([]legalReasonResponse, 0, len(reasons))
	for _, lr := range reasons {
		out = append(out, toReasonResponse(lr))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"consents": out})
}

// handleCheckConsent answers "is this purpose currently covered".
func (h *Handler) handleCheckConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType := r.URL.Query().Get("entity_type")
	entityID := r.URL.Query().Get("entity_id")
	purpose := r.URL.Query().Get("purpose")
	if entityType == "" || entityID == "" || purpose == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "entity_type, entity_id and purpose are required"))
		return
	}
	valid, err := h.consent.ExistsValidConsent(ctx, purpose, entity.Ref{Type: entityType, ID: entityID})
	if err != nil {
		h.writeServiceError(ctx, w, "check consent", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]bool{"valid": valid})
}

func (h *Handler) writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	code := dErrors.CodeOf(err)
	if code == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, op+" failed"))
		return
	}
	h.logger.WarnContext(ctx, op+" rejected",
		"request_id", middleware.GetRequestID(ctx),
		"error", err.Error(),
	)
	shared.WriteError(w, err)
}
