package activity

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/stridefit/backend/internal/streak"
	"github.com/stridefit/backend/internal/telemetry/tracing"
	"github.com/stridefit/backend/pkg"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type service interface {
	AddTrainingStart(ctx context.Context, ts TrainingStart) (int, error)
	AddTrainingFinish(ctx context.Context, tf TrainingFinish) (int, *streak.TransitionResult, error)
	List(ctx context.Context, params ListParams) ([]*Event, error)
	Count(ctx context.Context, params EventParams) (int, error)
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
	router.HandleFunc("/activity/training/start", h.HandleTrainingStart).Methods("POST", "OPTIONS")
	router.HandleFunc("/activity/training/finish", h.HandleTrainingFinished).Methods("POST", "OPTIONS")
	router.HandleFunc("/activity/list/page/{page}/size/{size}", h.HandleList).Methods("GET", "OPTIONS")
}

func (h *Handler) HandleTrainingStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.trainingstart")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var trainingStart TrainingStart
	if err := json.NewDecoder(r.Body).Decode(&trainingStart); err != nil {
		log.Errorf("new training start, unmarshal json params: %s", err)
		http.Error(w, "add training start failed", http.StatusBadRequest)
		return
	}
	if trainingStart.UserID == uuid.Nil {
		http.Error(w, "user id missing", http.StatusBadRequest)
		return
	}

	id, err := h.service.AddTrainingStart(ctx, trainingStart)
	if err != nil {
		log.Errorf("new training start: %s", err)
		http.Error(w, "add training start failed", http.StatusInternalServerError)
		return
	}
	trainingStart.ID = id

	pkg.WriteJSONResponse(w, http.StatusCreated, trainingStart)
}

type trainingFinishResponse struct {
	TrainingFinish
	Streak *streak.TransitionResult `json:"streak"`
}

func (h *Handler) HandleTrainingFinished(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.trainingfinish")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var trainingFinish TrainingFinish
	if err := json.NewDecoder(r.Body).Decode(&trainingFinish); err != nil {
		log.Errorf("new training finish, unmarshal json params: %s", err)
		http.Error(w, "add training finish failed", http.StatusBadRequest)
		return
	}
	if trainingFinish.UserID == uuid.Nil {
		http.Error(w, "user id missing", http.StatusBadRequest)
		return
	}

	id, streakResult, err := h.service.AddTrainingFinish(ctx, trainingFinish)
	if err != nil {
		log.Errorf("new training finish: %s", err)
		http.Error(w, "add training finish failed", http.StatusInternalServerError)
		return
	}
	trainingFinish.ID = id

	pkg.WriteJSONResponse(w, http.StatusCreated, trainingFinishResponse{
		TrainingFinish: trainingFinish,
		Streak:         streakResult,
	})
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.list")
	defer span.End()

	vars := mux.Vars(r)
	page, err := strconv.Atoi(vars["page"])
	if err != nil || page < 0 {
		http.Error(w, "invalid page", http.StatusBadRequest)
		return
	}
	size, err := strconv.Atoi(vars["size"])
	if err != nil || size <= 0 {
		http.Error(w, "invalid size", http.StatusBadRequest)
		return
	}

	params := ListParams{Page: page, Size: size}
	if userIDStr := r.URL.Query().Get("user_id"); userIDStr != "" {
		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
		params.UserID = &userID
	}
	if typeStr := r.URL.Query().Get("type"); typeStr != "" {
		eventType := EventType(typeStr)
		if !eventType.IsValid() {
			http.Error(w, "invalid event type", http.StatusBadRequest)
			return
		}
		params.Type = &eventType
	}

	events, err := h.service.List(ctx, params)
	if err != nil {
		log.Errorf("list activity events: %s", err)
		http.Error(w, "list events failed", http.StatusInternalServerError)
		return
	}

	total, err := h.service.Count(ctx, params.EventParams)
	if err != nil {
		log.Errorf("count activity events: %s", err)
		http.Error(w, "list events failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, struct {
		Events []*Event `json:"events"`
		Total  int      `json:"total"`
	}{
		Events: events,
		Total:  total,
	})
}
