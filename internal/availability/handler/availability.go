package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"carebook/internal/availability/service"
	apperrors "carebook/pkg/errors"
	httputil "carebook/pkg/http"
	"carebook/pkg/interval"
	"carebook/pkg/logger"
	"carebook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type AvailabilityHandler struct {
	store service.AvailabilityStore
	log   *logger.Logger
}

func NewAvailabilityHandler(store service.AvailabilityStore, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		store: store,
		log:   log,
	}
}

func (h *AvailabilityHandler) PublishWindow(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var window model.AvailabilityWindow
	if err := json.NewDecoder(r.Body).Decode(&window); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "PublishWindow", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.store.PublishWindow(r.Context(), &window); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "PublishWindow", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, window); err != nil {
		h.log.Error("failed to write created response", "handler", "PublishWindow", "operation", "WriteCreated", "error", err)
	}
}

func (h *AvailabilityHandler) ListWindows(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	caregiverID := query.Get("caregiver_id")
	if caregiverID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("caregiver_id query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListWindows", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	from, err := parseTimeParam(query.Get("from"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid from parameter, want RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListWindows", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	to, err := parseTimeParam(query.Get("to"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid to parameter, want RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListWindows", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	windows, err := h.store.Windows(r.Context(), caregiverID, from, to)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListWindows", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, windows); err != nil {
		h.log.Error("failed to write success response", "handler", "ListWindows", "operation", "WriteSuccess", "error", err)
	}
}

type freeResponse struct {
	CaregiverID string    `json:"caregiver_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Free        bool      `json:"free"`
}

func (h *AvailabilityHandler) IsFree(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	caregiverID := query.Get("caregiver_id")
	if caregiverID == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("caregiver_id query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "IsFree", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	start, err := time.Parse(time.RFC3339, query.Get("start_time"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid start_time parameter, want RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "IsFree", "operation", "WriteError", "error", writeErr)
		}
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end_time"))
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("invalid end_time parameter, want RFC3339")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "IsFree", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	iv, err := interval.New(start, end)
	if err != nil {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput(err.Error())); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "IsFree", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	free, err := h.store.IsFree(r.Context(), caregiverID, iv)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "IsFree", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, freeResponse{
		CaregiverID: caregiverID,
		StartTime:   iv.Start,
		EndTime:     iv.End,
		Free:        free,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "IsFree", "operation", "WriteSuccess", "error", err)
	}
}

func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/availability/windows", h.PublishWindow)
	router.GET("/api/v1/availability/windows", h.ListWindows)
	router.GET("/api/v1/availability/free", h.IsFree)
}
