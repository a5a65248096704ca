package streak

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stridefit/backend/internal/telemetry/tracing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrRecordNotFound = errors.New("streak record not found")

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streak.get")
	defer func() {
		if err != nil && !errors.Is(err, ErrRecordNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("user-id", userID.String()))

	record := &Record{}
	err = r.db.
		QueryRow(ctx, `
			SELECT user_id, current_streak, longest_streak, last_active_date,
			       freezes_available, freeze_week_start, grace_used_this_week
			FROM streak_record
			WHERE user_id = $1
		`, userID).
		Scan(
			&record.UserID, &record.CurrentStreak, &record.LongestStreak,
			&record.LastActiveDate, &record.FreezesAvailable,
			&record.FreezeWeekStart, &record.GraceUsedThisWeek,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// ProcessEvent runs the streak transition for one qualifying event inside a
// transaction. A per-user advisory lock plus SELECT FOR UPDATE serialize
// simultaneous events for the same user, so two events cannot both observe
// yesterday's record and double-increment the streak.
func (r *Repo) ProcessEvent(ctx context.Context, userID uuid.UUID, now time.Time) (_ *Record, _ Outcome, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.streak.processEvent")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("user-id", userID.String()))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = fmt.Errorf("failed to rollback transaction: %w: %w", rollbackErr, err)
			}
		} else {
			err = tx.Commit(ctx)
		}
	}()

	// the advisory lock also serializes concurrent first events, where no
	// row exists yet for FOR UPDATE to grab
	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, userID); err != nil {
		return nil, "", fmt.Errorf("acquire user lock: %w", err)
	}

	record := Record{}
	err = tx.
		QueryRow(ctx, `
			SELECT user_id, current_streak, longest_streak, last_active_date,
			       freezes_available, freeze_week_start, grace_used_this_week
			FROM streak_record
			WHERE user_id = $1
			FOR UPDATE
		`, userID).
		Scan(
			&record.UserID, &record.CurrentStreak, &record.LongestStreak,
			&record.LastActiveDate, &record.FreezesAvailable,
			&record.FreezeWeekStart, &record.GraceUsedThisWeek,
		)
	if errors.Is(err, pgx.ErrNoRows) {
		// a missing record is simply a new user
		record = NewRecord(userID)
		err = nil
	}
	if err != nil {
		return nil, "", err
	}

	newRecord, outcome := Transition(record, now)
	span.SetAttributes(attribute.String("outcome", outcome.String()))

	_, err = tx.Exec(ctx, `
		INSERT INTO streak_record
			(user_id, current_streak, longest_streak, last_active_date,
			 freezes_available, freeze_week_start, grace_used_this_week)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_active_date = EXCLUDED.last_active_date,
			freezes_available = EXCLUDED.freezes_available,
			freeze_week_start = EXCLUDED.freeze_week_start,
			grace_used_this_week = EXCLUDED.grace_used_this_week
	`,
		newRecord.UserID, newRecord.CurrentStreak, newRecord.LongestStreak,
		newRecord.LastActiveDate, newRecord.FreezesAvailable,
		newRecord.FreezeWeekStart, newRecord.GraceUsedThisWeek,
	)
	if err != nil {
		return nil, "", err
	}

	return &newRecord, outcome, nil
}
