package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lethe/internal/entity"
	"lethe/internal/transport/http/shared"
	dErrors "lethe/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_entity.go -destination=mocks/anonymization_service.go -package=mocks

// AnonymizationService defines the interface for engine operations.
type AnonymizationService interface {
	AnonymizeEntity(ctx context.Context, e entity.Entity) error
	DeanonymizeEntity(ctx context.Context, e entity.Entity, fields []string) error
	AnonymizablePaths(ctx context.Context, ref entity.Ref) ([]string, error)
}

type deanonymizeRequest struct {
	Fields []string `json:"fields"`
}

// handleAnonymizeEntity forces an immediate anonymization pass over the
// addressed entity, honouring whatever protection is still active.
func (h *Handler) handleAnonymizeEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := entity.Ref{Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")}

	ent, err := h.loader.Load(ctx, ref)
	if err != nil {
		h.writeServiceError(ctx, w, "anonymize entity", err)
		return
	}
	if err := h.engine.AnonymizeEntity(ctx, ent); err != nil {
		h.writeServiceError(ctx, w, "anonymize entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeanonymizeEntity restores the named fields. All or nothing: any
// irreversible or never-anonymized field fails the whole request.
func (h *Handler) handleDeanonymizeEntity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := entity.Ref{Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")}

	var req deanonymizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Fields) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fields are required"))
		return
	}

	ent, err := h.loader.Load(ctx, ref)
	if err != nil {
		h.writeServiceError(ctx, w, "deanonymize entity", err)
		return
	}
	if err := h.engine.DeanonymizeEntity(ctx, ent, req.Fields); err != nil {
		h.writeServiceError(ctx, w, "deanonymize entity", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAnonymizablePaths reports which field paths would be transformed
// for the entity right now.
func (h *Handler) handleAnonymizablePaths(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ref := entity.Ref{Type: chi.URLParam(r, "type"), ID: chi.URLParam(r, "id")}

	paths, err := h.engine.AnonymizablePaths(ctx, ref)
	if err != nil {
		h.writeServiceError(ctx, w, "list anonymizable paths", err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"fields": paths})
}
