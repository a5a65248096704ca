package activity

import (
	"context"
	"fmt"

	"github.com/stridefit/backend/internal/streak"
	"github.com/stridefit/backend/internal/telemetry/metrics"
	"github.com/stridefit/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
)

type eventsRepo interface {
	Add(ctx context.Context, event Event) (*Event, error)
	List(ctx context.Context, params ListParams) ([]*Event, error)
	Count(ctx context.Context, params EventParams) (int, error)
}

type streakRecorder interface {
	RecordQualifyingEvent(ctx context.Context, userID uuid.UUID) (*streak.TransitionResult, error)
}

type Service struct {
	repo           eventsRepo
	streaks        streakRecorder
	metricsManager *metrics.Manager
}

func NewService(repo eventsRepo, streaks streakRecorder, metricsManager *metrics.Manager) *Service {
	return &Service{
		repo:           repo,
		streaks:        streaks,
		metricsManager: metricsManager,
	}
}

func (s *Service) AddTrainingStart(ctx context.Context, ts TrainingStart) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.add.trainingstart")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	event, err := s.repo.Add(ctx, NewTrainingStartEvent(ts))
	if err != nil {
		return 0, fmt.Errorf("add training start event: %w", err)
	}
	s.metricsManager.CounterActivityEvents.Inc()
	return event.ID, nil
}

// AddTrainingFinish stores the finish event and, since a finished training
// is a qualifying event, drives the user's streak transition.
func (s *Service) AddTrainingFinish(ctx context.Context, tf TrainingFinish) (_ int, _ *streak.TransitionResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.add.trainingfinish")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	event, err := s.repo.Add(ctx, NewTrainingFinishEvent(tf))
	if err != nil {
		return 0, nil, fmt.Errorf("add training finish event: %w", err)
	}
	s.metricsManager.CounterActivityEvents.Inc()

	result, err := s.streaks.RecordQualifyingEvent(ctx, tf.UserID)
	if err != nil {
		return 0, nil, fmt.Errorf("record qualifying event: %w", err)
	}

	return event.ID, result, nil
}

func (s *Service) List(ctx context.Context, params ListParams) (_ []*Event, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.list")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	events, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Service) Count(ctx context.Context, params EventParams) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.activity.count")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	count, err := s.repo.Count(ctx, params)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
