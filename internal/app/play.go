package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quiz-play-service/internal/domain"
)

// PlayCode is the outcome class of a play-transition request.
type PlayCode string

const (
	PlayCodeCanPlay        PlayCode = "CAN_PLAY"
	PlayCodeAlreadyPlayed  PlayCode = "ALREADY_PLAYED_ALL_ACTIVITIES"
	PlayCodeNotYetOpen     PlayCode = "NOT_YET_AVAILABLE"
	PlayCodePlayPeriodOver PlayCode = "PLAY_PERIOD_OVER"
)

// PlayOutcome carries the outcome class plus the evaluated status fields the
// client plays from.
type PlayOutcome struct {
	Code   PlayCode
	Status domain.QuizStatus
}

// PlayController is the write path of the engine: it validates the current
// status and, only when starting is legal, records the start-of-play event
// exactly once per (user, scheduled quiz).
type PlayController struct {
	evaluator *StatusEvaluator
	progress  ProgressStore
	clock     func() time.Time
	logger    *zap.Logger
}

func NewPlayController(evaluator *StatusEvaluator, progress ProgressStore, logger *zap.Logger) *PlayController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlayController{
		evaluator: evaluator,
		progress:  progress,
		clock:     time.Now,
		logger:    logger,
	}
}

// WithClock is test-only for deterministic server timestamps.
func (c *PlayController) WithClock(now func() time.Time) *PlayController {
	c.clock = now
	return c
}

// StartOrContinue evaluates the live status and dispatches on it. In the
// CanStart case the store's transactional insert plus the unique index on
// (scheduled_quiz_id, user_id) guarantee at most one PlayStart record ever
// exists, no matter how many callers race; a lost race is a silent success.
func (c *PlayController) StartOrContinue(ctx context.Context, scheduledQuizID, userID string, clientTime time.Time) (PlayOutcome, error) {
	status, err := c.evaluator.Evaluate(ctx, scheduledQuizID, userID, false)
	if err != nil {
		return PlayOutcome{}, err
	}

	switch status.Status {
	case domain.StatusCanStart:
		created, err := c.progress.CreatePlayStart(ctx, domain.PlayStart{
			ScheduledQuizID: scheduledQuizID,
			UserID:          userID,
			ServerTime:      c.clock().UTC(),
			ClientTime:      clientTime,
		})
		if err != nil {
			return PlayOutcome{}, fmt.Errorf("record play start: %w", err)
		}
		if !created {
			c.logger.Debug("play start already recorded",
				zap.String("scheduledQuizId", scheduledQuizID),
				zap.String("userId", userID))
		}
		return PlayOutcome{Code: PlayCodeCanPlay, Status: status}, nil
	case domain.StatusCanContinue:
		return PlayOutcome{Code: PlayCodeCanPlay, Status: status}, nil
	case domain.StatusHasFinished:
		return PlayOutcome{Code: PlayCodeAlreadyPlayed, Status: status}, nil
	case domain.StatusIsOver:
		return PlayOutcome{Code: PlayCodePlayPeriodOver, Status: status}, nil
	case domain.StatusNotAvailable:
		return PlayOutcome{Code: PlayCodeNotYetOpen, Status: status}, nil
	default:
		return PlayOutcome{}, fmt.Errorf("unexpected status %q for %s", status.Status, scheduledQuizID)
	}
}
