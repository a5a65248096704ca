package streak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stridefit/backend/internal/clock"
	"github.com/stridefit/backend/internal/telemetry/metrics"
	"github.com/stridefit/backend/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	statusCacheSizeBytes  = 10 * 1024 * 1024
	statusCacheTTLSeconds = 30
)

type recordsRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*Record, error)
	ProcessEvent(ctx context.Context, userID uuid.UUID, now time.Time) (*Record, Outcome, error)
}

type Service struct {
	repo           recordsRepo
	clock          clock.Clock
	notifier       Notifier
	metricsManager *metrics.Manager
	statusCache    *freecache.Cache
}

func NewService(
	repo recordsRepo,
	clk clock.Clock,
	notifier Notifier,
	metricsManager *metrics.Manager,
) *Service {
	return &Service{
		repo:           repo,
		clock:          clk,
		notifier:       notifier,
		metricsManager: metricsManager,
		statusCache:    freecache.NewCache(statusCacheSizeBytes),
	}
}

// RecordQualifyingEvent drives one streak transition for the given user at
// the current time. Serialization of concurrent events is handled by the
// repo; this never fails for streak-semantic reasons, only for storage ones.
func (s *Service) RecordQualifyingEvent(ctx context.Context, userID uuid.UUID) (_ *TransitionResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streak.recordQualifyingEvent")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("user-id", userID.String()))

	record, outcome, err := s.repo.ProcessEvent(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("process qualifying event: %w", err)
	}
	span.SetAttributes(attribute.String("outcome", outcome.String()))

	s.metricsManager.CounterStreakTransitions.With(
		prometheus.Labels{"outcome": outcome.String()},
	).Inc()

	// the cached status is stale now
	s.statusCache.Del(cacheKey(userID))

	result := TransitionResult{
		CurrentStreak: record.CurrentStreak,
		LongestStreak: record.LongestStreak,
		Outcome:       outcome,
		FreezeUsed:    outcome == OutcomeFreezeUsed,
	}
	s.notifier.StreakOutcome(ctx, userID, result)

	return &result, nil
}

// GetStatus returns the user's current streak record. A user without any
// qualifying events yet gets a zeroed record instead of an error.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.streak.getStatus")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if cached, cacheErr := s.statusCache.Get(cacheKey(userID)); cacheErr == nil {
		record := &Record{}
		if jsonErr := json.Unmarshal(cached, record); jsonErr == nil {
			span.SetAttributes(attribute.Bool("cache-hit", true))
			return record, nil
		}
		log.Warnf("streak status cache: unmarshal for user %s failed, ignoring entry", userID)
	}

	record, err := s.repo.Get(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		newUser := NewRecord(userID)
		record = &newUser
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak record: %w", err)
	}

	if recordBytes, jsonErr := json.Marshal(record); jsonErr == nil {
		if cacheErr := s.statusCache.Set(cacheKey(userID), recordBytes, statusCacheTTLSeconds); cacheErr != nil {
			log.Warnf("streak status cache: set for user %s: %s", userID, cacheErr)
		}
	}

	return record, nil
}

func cacheKey(userID uuid.UUID) []byte {
	return userID[:]
}
