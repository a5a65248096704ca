package streak_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stridefit/backend/internal/streak"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestHandler_HandleQualifyingEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockservice(ctrl)
	h := streak.NewHandler(mockService)

	userID := uuid.New()
	reqJson, err := json.Marshal(map[string]string{"user_id": userID.String()})
	require.NoError(t, err)

	req, err := http.NewRequest("POST", "/streak/event", bytes.NewBuffer(reqJson))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handlerFunc := http.HandlerFunc(h.HandleQualifyingEvent)

	mockService.EXPECT().
		RecordQualifyingEvent(gomock.Any(), userID).
		Return(&streak.TransitionResult{
			CurrentStreak: 6,
			LongestStreak: 10,
			Outcome:       streak.OutcomeFreezeUsed,
			FreezeUsed:    true,
		}, nil)

	// Call the HandlerFunc
	handlerFunc.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var result streak.TransitionResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Equal(t, 6, result.CurrentStreak)
	assert.Equal(t, 10, result.LongestStreak)
	assert.Equal(t, streak.OutcomeFreezeUsed, result.Outcome)
	assert.True(t, result.FreezeUsed)
}

func TestHandler_HandleQualifyingEvent_InvalidRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockservice(ctrl)
	h := streak.NewHandler(mockService)
	handlerFunc := http.HandlerFunc(h.HandleQualifyingEvent)

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/streak/event", bytes.NewBufferString("{}"))
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing user id", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/streak/event", bytes.NewBufferString("{}"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("garbage json", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/streak/event", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		handlerFunc.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandler_HandleGetStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockservice(ctrl)
	h := streak.NewHandler(mockService)

	router := mux.NewRouter()
	h.SetupRoutes(router)

	userID := uuid.New()
	mockService.EXPECT().
		GetStatus(gomock.Any(), userID).
		Return(&streak.Record{
			UserID:           userID,
			CurrentStreak:    4,
			LongestStreak:    9,
			FreezesAvailable: 1,
		}, nil)

	req := httptest.NewRequest("GET", fmt.Sprintf("/streak/%s", userID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var record streak.Record
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &record))
	assert.Equal(t, 4, record.CurrentStreak)
	assert.Equal(t, 9, record.LongestStreak)
	assert.Equal(t, 1, record.FreezesAvailable)
}

func TestHandler_HandleGetStatus_InvalidUserID(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockService := NewMockservice(ctrl)
	h := streak.NewHandler(mockService)

	router := mux.NewRouter()
	h.SetupRoutes(router)

	req := httptest.NewRequest("GET", "/streak/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
