package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/domain/diffstat"
	"github.com/helixml/patchlog/infrastructure/api/middleware"
	"github.com/helixml/patchlog/infrastructure/api/v1/dto"
)

// DiffRouter exposes diff statistics without storing anything.
type DiffRouter struct {
	logger *slog.Logger
}

// NewDiffRouter creates a new DiffRouter.
func NewDiffRouter(client *patchlog.Client) *DiffRouter {
	return &DiffRouter{logger: client.Logger()}
}

// Routes returns the chi router for diff endpoints.
func (r *DiffRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/stats", r.Stats)
	return router
}

// Stats handles POST /api/v1/diff/stats.
//
//	@Summary		Diff statistics
//	@Description	Count added lines, removed lines and changed files in a unified diff
//	@Tags			diff
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.DiffStatsRequest	true	"Diff"
//	@Success		200		{object}	dto.DiffStatsResponse
//	@Failure		400		{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/diff/stats [post]
func (r *DiffRouter) Stats(w http.ResponseWriter, req *http.Request) {
	var body dto.DiffStatsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "Invalid request body", err), r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.DiffStatsResponse{
		Stats:     diffstat.Parse(body.Diff),
		FileNames: diffstat.FileNames(body.Diff),
	})
}
