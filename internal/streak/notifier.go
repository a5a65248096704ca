package streak

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Notifier is the boundary towards the push notification dispatcher. This
// package only hands over the outcome; what (if anything) the user sees is
// the dispatcher's business.
type Notifier interface {
	StreakOutcome(ctx context.Context, userID uuid.UUID, result TransitionResult)
}

// LogNotifier is the default Notifier used until the push pipeline is wired
// in; it just leaves a log trail for the interesting outcomes.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) StreakOutcome(_ context.Context, userID uuid.UUID, result TransitionResult) {
	switch result.Outcome {
	case OutcomeFreezeUsed:
		log.Infof("streak notifier: user %s spent the weekly freeze, streak at %d", userID, result.CurrentStreak)
	case OutcomeBroken:
		log.Infof("streak notifier: user %s streak broken", userID)
	default:
		// extensions and duplicates are not alert-worthy
	}
}
