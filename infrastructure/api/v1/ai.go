package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/infrastructure/api/middleware"
	"github.com/helixml/patchlog/infrastructure/api/v1/dto"
)

// Messages returned by the AI endpoints.
const (
	MsgNoDiff           = "No diff provided"
	MsgGenerationFailed = "AI Generation Failed"
)

// AIRouter handles summary generation endpoints.
type AIRouter struct {
	client *patchlog.Client
	logger *slog.Logger
}

// NewAIRouter creates a new AIRouter.
func NewAIRouter(client *patchlog.Client) *AIRouter {
	return &AIRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for AI endpoints.
func (r *AIRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/generate", r.Generate)
	return router
}

// Generate handles POST /api/v1/ai/generate.
//
// Rate-limited or unconfigured backends still answer 200 with a simulated
// result so clients can keep going.
//
//	@Summary		Summarise a diff
//	@Description	Generate a summary, tags and risk analysis for a unified diff
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.GenerateRequest	true	"Diff and optional context"
//	@Success		200		{object}	dto.GenerateResponse
//	@Failure		400		{object}	middleware.ErrorResponse
//	@Failure		500		{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/ai/generate [post]
func (r *AIRouter) Generate(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.GenerateRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "Invalid request body", err), r.logger)
		return
	}
	if strings.TrimSpace(body.Diff) == "" {
		middleware.WriteMessage(w, http.StatusBadRequest, MsgNoDiff)
		return
	}

	result, err := r.client.Summarizer.Generate(ctx, body.Diff, body.FullContext)
	if err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusInternalServerError, MsgGenerationFailed, err), r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.GenerateResponse{
		Summary:  result.Summary,
		Tags:     result.Tags,
		Analysis: result.Analysis,
	})
}
