package survey

import (
	"context"
	"fmt"
	"time"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// SubmitResult distinguishes a first submission from an idempotent replay.
type SubmitResult string

const (
	SubmitLogged        SubmitResult = "LOGGED"
	SubmitAlreadyLogged SubmitResult = "ALREADY_LOGGED"
)

// Service handles one-time survey submissions. A survey is open once play has
// finished (or the window closed) and stays open through the grace period.
type Service struct {
	store     Store
	schedules app.ScheduleStore
	evaluator *app.StatusEvaluator
	grace     time.Duration
	clock     func() time.Time
}

func NewService(store Store, schedules app.ScheduleStore, evaluator *app.StatusEvaluator, grace time.Duration) *Service {
	if grace <= 0 {
		grace = 24 * time.Hour
	}
	return &Service{
		store:     store,
		schedules: schedules,
		evaluator: evaluator,
		grace:     grace,
		clock:     time.Now,
	}
}

// WithClock is test-only for deterministic grace checks.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.clock = now
	return s
}

// Submit persists the user's survey answers exactly once. Duplicate submits
// are idempotent; submissions outside HasFinished/IsOver or past the grace
// period are rejected with ErrSurveyClosed.
func (s *Service) Submit(ctx context.Context, userID, scheduledQuizID string, answers map[string]string) (SubmitResult, error) {
	if userID == "" || len(answers) == 0 {
		return "", fmt.Errorf("survey submission empty: %w", domain.ErrInvalidArgument)
	}

	sq, err := s.schedules.Resolve(ctx, scheduledQuizID)
	if err != nil {
		return "", err
	}
	now := s.clock().UTC()
	if now.After(sq.EndAt) && now.Sub(sq.EndAt) > s.grace {
		return "", domain.ErrSurveyClosed
	}

	status, err := s.evaluator.Evaluate(ctx, scheduledQuizID, userID, false)
	if err != nil {
		return "", err
	}
	if status.Status != domain.StatusHasFinished && status.Status != domain.StatusIsOver {
		return "", domain.ErrSurveyClosed
	}

	created, err := s.store.Save(ctx, domain.SurveyAnswer{
		UserID:          userID,
		ScheduledQuizID: scheduledQuizID,
		Answers:         answers,
		SubmittedAt:     now,
	})
	if err != nil {
		return "", fmt.Errorf("save survey answer: %w", err)
	}
	if !created {
		return SubmitAlreadyLogged, nil
	}
	return SubmitLogged, nil
}
