package streak

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stridefit/backend/internal/telemetry/tracing"
	"github.com/stridefit/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type service interface {
	RecordQualifyingEvent(ctx context.Context, userID uuid.UUID) (*TransitionResult, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*Record, error)
}

type Handler struct {
	service service
}

func NewHandler(service service) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/streak/event", h.HandleQualifyingEvent).Methods("POST", "OPTIONS").Name("new-streak-event")
	router.HandleFunc("/streak/{userID}", h.HandleGetStatus).Methods("GET", "OPTIONS").Name("get-streak")
}

type qualifyingEventRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

func (h *Handler) HandleQualifyingEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streak.qualifyingEvent")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req qualifyingEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("new streak event, unmarshal json params: %s", err)
		http.Error(w, "add streak event failed", http.StatusBadRequest)
		return
	}
	if req.UserID == uuid.Nil {
		http.Error(w, "user id missing", http.StatusBadRequest)
		return
	}

	result, err := h.service.RecordQualifyingEvent(ctx, req.UserID)
	if err != nil {
		log.Errorf("new streak event for user %s: %s", req.UserID, err)
		http.Error(w, "add streak event failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, result)
}

func (h *Handler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.streak.getStatus")
	defer span.End()

	vars := mux.Vars(r)
	userID, err := uuid.Parse(vars["userID"])
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	record, err := h.service.GetStatus(ctx, userID)
	if err != nil {
		log.Errorf("get streak status for user %s: %s", userID, err)
		http.Error(w, "get streak status failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, record)
}
