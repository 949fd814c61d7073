package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"watchlist/internal/screening/metrics"
	"watchlist/internal/screening/models"
	dErrors "watchlist/pkg/domain-errors"
	"watchlist/pkg/platform/httputil"
	"watchlist/pkg/requestcontext"
)

// Service defines the screening operations exposed over HTTP.
type Service interface {
	Screen(ctx context.Context, req models.ScreeningRequest) (*models.ScreeningResult, error)
	Subject(ctx context.Context, id int64) (*models.Subject, error)
	ListLogs(ctx context.Context, filter models.LogFilter) (*models.LogPage, error)
	RecordLog(ctx context.Context, entry models.LogEntry) (*models.LogEntry, error)
}

// Handler wires screening endpoints to the screening service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New constructs a screening handler with its dependencies.
func New(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// Register mounts screening endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/sanction-entities", h.HandleScreen)
	r.Post("/sanction-entities", h.HandleScreen)
	r.Get("/sanction-entities/{id}", h.HandleGetSubject)
	r.Get("/screening-logs", h.HandleListLogs)
	r.Post("/screening-logs", h.HandleRecordLog)
}

// HandleScreen handles GET and POST /sanction-entities. GET reads the query
// string, POST a JSON body with the same fields.
func (h *Handler) HandleScreen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		h.writeError(w, "screen", dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	var req *ScreenRequest
	if r.Method == http.MethodGet {
		parsed, err := ScreenRequestFromQuery(r.URL.Query())
		if err == nil {
			err = parsed.Validate()
		}
		if err != nil {
			h.logger.WarnContext(ctx, "invalid screening request",
				"request_id", requestID,
				"error", err,
			)
			h.writeError(w, "screen", err)
			return
		}
		req = parsed
	} else {
		decoded, ok := httputil.DecodeAndPrepare[ScreenRequest](w, r, h.logger, ctx, requestID)
		if !ok {
			return
		}
		req = decoded
	}

	result, err := h.service.Screen(ctx, req.ToModel(userID))
	if err != nil {
		h.logger.ErrorContext(ctx, "screening failed",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		h.writeError(w, "screen", err)
		return
	}

	h.logger.InfoContext(ctx, "screening served",
		"request_id", requestID,
		"user_id", userID,
		"filtered_results", result.FilteredResults,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Status:  statusSuccess,
		Message: "Found screening results.",
		Data:    FromResult(result),
	})
}

// HandleGetSubject handles GET /sanction-entities/{id}.
func (h *Handler) HandleGetSubject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		h.writeError(w, "subject", dErrors.New(dErrors.CodeBadRequest, "invalid subject id"))
		return
	}

	subject, err := h.service.Subject(ctx, id)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.ErrorContext(ctx, "failed to load subject",
				"request_id", requestcontext.RequestID(ctx),
				"subject_id", id,
				"error", err,
			)
		}
		h.writeError(w, "subject", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Status:  statusSuccess,
		Message: "Screening subject retrieved successfully",
		Data:    subject,
	})
}

// HandleListLogs handles GET /screening-logs for the authenticated user.
func (h *Handler) HandleListLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		h.writeError(w, "list_logs", dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	filter, err := LogFilterFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, "list_logs", err)
		return
	}
	filter.UserID = userID

	page, err := h.service.ListLogs(ctx, filter)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list screening logs",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		h.writeError(w, "list_logs", err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, Envelope{
		Status:  statusSuccess,
		Message: "Screening logs retrieved successfully",
		Data:    FromLogPage(page),
	})
}

// HandleRecordLog handles POST /screening-logs. The entry is attributed to
// the authenticated user.
func (h *Handler) HandleRecordLog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	userID := requestcontext.UserID(ctx)
	if userID == "" {
		h.writeError(w, "record_log", dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[RecordLogRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.RecordLog(ctx, req.ToModel(userID))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to record screening log",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		h.writeError(w, "record_log", err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, Envelope{
		Status:  statusSuccess,
		Message: "Screening log created successfully",
		Data:    entry,
	})
}

// writeError counts the failure against endpoint and writes the error response.
func (h *Handler) writeError(w http.ResponseWriter, endpoint string, err error) {
	code := dErrors.CodeInternal
	if de, ok := dErrors.From(err); ok {
		code = de.Code
	}
	h.metrics.IncrementRequestError(endpoint, string(code))
	httputil.WriteError(w, err)
}
