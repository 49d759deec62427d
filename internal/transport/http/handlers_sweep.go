package httptransport

import (
	"context"
	"net/http"

	"lethe/internal/sweeper"
	"lethe/internal/transport/http/shared"
)

//go:generate mockgen -source=handlers_sweep.go -destination=mocks/sweep_service.go -package=mocks

// SweepService defines the interface for retention sweep operations.
type SweepService interface {
	Run(ctx context.Context) (sweeper.Result, error)
}

// handleSweep triggers one retention sweep and reports what it did.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	result, err := h.sweep.Run(ctx)
	if err != nil {
		h.writeServiceError(ctx, w, "sweep", err)
		return
	}
	if result.Skipped {
		shared.WriteJSON(w, http.StatusConflict, map[string]any{"skipped": true})
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"reasons_deactivated": result.ReasonsDeactivated,
		"entities":            result.EntitiesAnonymized,
		"failed":              result.EntitiesFailed,
	})
}
