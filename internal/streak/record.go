package streak

import (
	"time"

	"github.com/google/uuid"
)

// Record holds the per-user streak state. One row per user, created on the
// first qualifying event, never deleted. Field names are part of the
// persistence contract and must stay stable.
type Record struct {
	UserID            uuid.UUID  `json:"user_id"`
	CurrentStreak     int        `json:"current_streak"`
	LongestStreak     int        `json:"longest_streak"`
	LastActiveDate    *time.Time `json:"last_active_date"`
	FreezesAvailable  int        `json:"freezes_available"`
	FreezeWeekStart   time.Time  `json:"freeze_week_start"`
	GraceUsedThisWeek bool       `json:"grace_used_this_week"`
}

// NewRecord returns the state of a user that has no qualifying events yet.
// The zero FreezeWeekStart makes the first transition refresh the freeze
// allowance right away.
func NewRecord(userID uuid.UUID) Record {
	return Record{
		UserID: userID,
	}
}

// Outcome can be one of:
//   - bootstrapped
//   - already_counted
//   - extended
//   - freeze_used
//   - broken
type Outcome string

const (
	OutcomeBootstrapped   Outcome = "bootstrapped"
	OutcomeAlreadyCounted Outcome = "already_counted"
	OutcomeExtended       Outcome = "extended"
	OutcomeFreezeUsed     Outcome = "freeze_used"
	OutcomeBroken         Outcome = "broken"
)

func (o Outcome) String() string {
	return string(o)
}

func (o Outcome) IsValid() bool {
	switch o {
	case OutcomeBootstrapped,
		OutcomeAlreadyCounted,
		OutcomeExtended,
		OutcomeFreezeUsed,
		OutcomeBroken:
		return true
	default:
		return false
	}
}

// TransitionResult is what callers of the streak service get back; the
// notification dispatcher decides on user-facing alerts based on it.
type TransitionResult struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	Outcome       Outcome `json:"outcome"`
	FreezeUsed    bool    `json:"freeze_used"`
}
