// Package v1 provides the v1 API routes.
package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/helixml/patchlog"
	"github.com/helixml/patchlog/domain/record"
	"github.com/helixml/patchlog/infrastructure/api/middleware"
	"github.com/helixml/patchlog/infrastructure/api/v1/dto"
)

// MsgRecordDeleted is returned after a successful delete.
const MsgRecordDeleted = "Record deleted successfully"

const dateLayout = "2006-01-02"

// RecordsRouter handles record API endpoints.
type RecordsRouter struct {
	client *patchlog.Client
	logger *slog.Logger
}

// NewRecordsRouter creates a new RecordsRouter.
func NewRecordsRouter(client *patchlog.Client) *RecordsRouter {
	return &RecordsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for record endpoints.
func (r *RecordsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.List)
	router.Post("/", r.Create)
	router.Get("/summary", r.Summary)
	router.Get("/{id}", r.Get)
	router.Put("/{id}", r.Update)
	router.Delete("/{id}", r.Delete)

	return router
}

// List handles GET /api/v1/records.
//
//	@Summary		List records
//	@Description	List the caller's records, newest first
//	@Tags			records
//	@Produce		json
//	@Param			environment	query	string	false	"DEV, UAT or LIVE"
//	@Param			branch		query	string	false	"Branch substring"
//	@Param			author		query	string	false	"Author substring"
//	@Param			startDate	query	string	false	"Created at or after (RFC3339 or YYYY-MM-DD)"
//	@Param			endDate		query	string	false	"Created at or before (RFC3339 or YYYY-MM-DD)"
//	@Param			limit		query	int		false	"Maximum results"
//	@Success		200	{array}		dto.RecordResponse
//	@Failure		400	{object}	middleware.ErrorResponse
//	@Failure		500	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/records [get]
func (r *RecordsRouter) List(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	filter, err := parseFilter(req)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	records, err := r.client.Records.List(ctx, middleware.UserFromContext(ctx), filter)
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewRecordListResponse(records))
}

// Create handles POST /api/v1/records.
//
//	@Summary		Create record
//	@Description	Store a code change; diff statistics are derived from the diff
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.CreateRecordRequest	true	"Record"
//	@Success		201		{object}	dto.RecordResponse
//	@Failure		400		{object}	middleware.ErrorResponse
//	@Failure		500		{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/records [post]
func (r *RecordsRouter) Create(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.CreateRecordRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "Invalid request body", err), r.logger)
		return
	}

	created, err := r.client.Records.Create(ctx, middleware.UserFromContext(ctx), body.Draft())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, dto.NewRecordResponse(created))
}

// Get handles GET /api/v1/records/{id}.
//
//	@Summary		Get record
//	@Tags			records
//	@Produce		json
//	@Param			id	path		string	true	"Record ID"
//	@Success		200	{object}	dto.RecordResponse
//	@Failure		404	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/records/{id} [get]
func (r *RecordsRouter) Get(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	rec, err := r.client.Records.Get(ctx, middleware.UserFromContext(ctx), chi.URLParam(req, "id"))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewRecordResponse(rec))
}

// Update handles PUT /api/v1/records/{id}.
//
//	@Summary		Update record
//	@Description	Partially update a record; statistics are recomputed when the diff changes
//	@Tags			records
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Record ID"
//	@Param			body	body		dto.UpdateRecordRequest	true	"Fields to change"
//	@Success		200		{object}	dto.RecordResponse
//	@Failure		400		{object}	middleware.ErrorResponse
//	@Failure		404		{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/records/{id} [put]
func (r *RecordsRouter) Update(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.UpdateRecordRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteError(w, req, middleware.NewAPIError(http.StatusBadRequest, "Invalid request body", err), r.logger)
		return
	}

	updated, err := r.client.Records.Update(ctx, middleware.UserFromContext(ctx), chi.URLParam(req, "id"), body.Patch())
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewRecordResponse(updated))
}

// Delete handles DELETE /api/v1/records/{id}.
//
//	@Summary		Delete record
//	@Tags			records
//	@Produce		json
//	@Param			id	path		string	true	"Record ID"
//	@Success		200	{object}	middleware.ErrorResponse
//	@Failure		404	{object}	middleware.ErrorResponse
//	@Security		APIKeyAuth
//	@Router			/records/{id} [delete]
func (r *RecordsRouter) Delete(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	if err := r.client.Records.Delete(ctx, middleware.UserFromContext(ctx), chi.URLParam(req, "id")); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteMessage(w, http.StatusOK, MsgRecordDeleted)
}

// Summary handles GET /api/v1/records/summary.
//
//	@Summary		Record totals
//	@Description	Count the caller's records and sum their statistics
//	@Tags			records
//	@Produce		json
//	@Success		200	{object}	dto.SummaryResponse
//	@Security		APIKeyAuth
//	@Router			/records/summary [get]
func (r *RecordsRouter) Summary(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	totals, err := r.client.Records.Summary(ctx, middleware.UserFromContext(ctx))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dto.NewSummaryResponse(totals))
}

func parseFilter(req *http.Request) (record.Filter, error) {
	q := req.URL.Query()
	filter := record.NewFilter().
		WithEnvironment(q.Get("environment")).
		WithBranch(q.Get("branch")).
		WithAuthor(q.Get("author"))

	if v := q.Get("startDate"); v != "" {
		t, err := parseDate(v, false)
		if err != nil {
			return record.Filter{}, middleware.NewAPIError(http.StatusBadRequest, "Invalid startDate", err)
		}
		filter = filter.WithStartDate(t)
	}
	if v := q.Get("endDate"); v != "" {
		t, err := parseDate(v, true)
		if err != nil {
			return record.Filter{}, middleware.NewAPIError(http.StatusBadRequest, "Invalid endDate", err)
		}
		filter = filter.WithEndDate(t)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return record.Filter{}, middleware.NewAPIError(http.StatusBadRequest, "Invalid limit", err)
		}
		filter = filter.WithLimit(n)
	}
	return filter, nil
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the
// whole day.
func parseDate(v string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
