package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"quiz-play-service/internal/domain"
)

// ScheduleStore resolves scheduled-quiz definitions (window, duration, quiz
// reference) from the schedule side table.
type ScheduleStore interface {
	Resolve(ctx context.Context, scheduledQuizID string) (domain.ScheduledQuiz, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduledQuiz, error)
}

// QuizCatalog loads quiz content (from cache/backing store).
type QuizCatalog interface {
	Quiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ProgressStore reads and writes per-user play facts: the answered-activity
// set and the one-time PlayStart record.
type ProgressStore interface {
	AnsweredActivities(ctx context.Context, userID, scheduledQuizID string) (map[string]struct{}, error)
	// PlayStart returns (nil, nil) when the user never started the quiz.
	PlayStart(ctx context.Context, userID, scheduledQuizID string) (*domain.PlayStart, error)
	// CreatePlayStart inserts the start record inside a transaction that
	// re-checks existence first. It reports created=false when a record
	// already existed, which callers treat as success.
	CreatePlayStart(ctx context.Context, start domain.PlayStart) (bool, error)
}

// SurveyResolver answers "has the user taken the post-quiz survey, and which
// questions are still offered".
type SurveyResolver interface {
	StatusFor(ctx context.Context, userID string, sq domain.ScheduledQuiz, answered, available []string) (domain.SurveyStatus, error)
}

const (
	defaultStaleCutoff = 4 * 30 * 24 * time.Hour // ~4 months
	defaultSurveyGrace = 24 * time.Hour
)

// StatusEvaluator derives the play status of one (user, scheduled quiz) pair.
// It performs reads only; the computation between reads is side-effect free.
type StatusEvaluator struct {
	schedules ScheduleStore
	quizzes   QuizCatalog
	progress  ProgressStore
	surveys   SurveyResolver

	staleCutoff time.Duration
	surveyGrace time.Duration
	clock       func() time.Time
}

func NewStatusEvaluator(schedules ScheduleStore, quizzes QuizCatalog, progress ProgressStore, surveys SurveyResolver) *StatusEvaluator {
	return &StatusEvaluator{
		schedules:   schedules,
		quizzes:     quizzes,
		progress:    progress,
		surveys:     surveys,
		staleCutoff: defaultStaleCutoff,
		surveyGrace: defaultSurveyGrace,
		clock:       time.Now,
	}
}

// WithCutoffs overrides the stale-quiz and survey-grace cutoffs.
func (e *StatusEvaluator) WithCutoffs(stale, grace time.Duration) *StatusEvaluator {
	if stale > 0 {
		e.staleCutoff = stale
	}
	if grace > 0 {
		e.surveyGrace = grace
	}
	return e
}

// WithClock is test-only for deterministic evaluation times.
func (e *StatusEvaluator) WithClock(now func() time.Time) *StatusEvaluator {
	e.clock = now
	return e
}

// Evaluate runs the status state machine for one scheduled quiz.
//
// With excludeOld set, schedules whose window closed longer ago than the
// stale cutoff short-circuit with ErrScheduleTooOld so bulk scans can skip
// them without the full read fan-out.
func (e *StatusEvaluator) Evaluate(ctx context.Context, scheduledQuizID, userID string, excludeOld bool) (domain.QuizStatus, error) {
	now := e.clock().UTC()

	sq, err := e.schedules.Resolve(ctx, scheduledQuizID)
	if err != nil {
		return domain.QuizStatus{}, err
	}
	if sq.StartAt.IsZero() || sq.EndAt.IsZero() || !sq.StartAt.Before(sq.EndAt) {
		return domain.QuizStatus{}, fmt.Errorf("schedule %s: malformed window: %w", scheduledQuizID, domain.ErrScheduleNotFound)
	}

	if excludeOld && now.After(sq.EndAt) && now.Sub(sq.EndAt) > e.staleCutoff {
		return domain.QuizStatus{}, domain.ErrScheduleTooOld
	}

	quiz, err := e.quizzes.Quiz(ctx, sq.QuizID)
	if err != nil {
		return domain.QuizStatus{}, err
	}
	possible := quiz.ActivityIDs

	if now.Before(sq.StartAt) {
		return domain.QuizStatus{ScheduledQuizID: sq.ID, Status: domain.StatusNotAvailable}, nil
	}
	inWindow := sq.InWindow(now)

	var (
		answered map[string]struct{}
		start    *domain.PlayStart
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		answered, err = e.progress.AnsweredActivities(gctx, userID, scheduledQuizID)
		return err
	})
	g.Go(func() error {
		var err error
		start, err = e.progress.PlayStart(gctx, userID, scheduledQuizID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.QuizStatus{}, fmt.Errorf("read progress for %s: %w", scheduledQuizID, err)
	}

	available := make([]string, 0, len(possible))
	for _, id := range possible {
		if _, ok := answered[id]; !ok {
			available = append(available, id)
		}
	}

	if start == nil {
		if inWindow {
			return domain.QuizStatus{
				ScheduledQuizID:         sq.ID,
				Status:                  domain.StatusCanStart,
				AvailableActivities:     possible,
				AvailablePlayTimeMicros: domain.PlayTime(sq.PlayDuration),
			}, nil
		}
		return domain.QuizStatus{ScheduledQuizID: sq.ID, Status: domain.StatusIsOver}, nil
	}

	remaining := sq.PlayDuration - now.Sub(start.ServerTime)
	finished := len(available) == 0
	outOfTime := remaining <= 0

	answeredIDs := make([]string, 0, len(answered))
	for id := range answered {
		answeredIDs = append(answeredIDs, id)
	}
	surveyStatus, err := e.surveys.StatusFor(ctx, userID, sq, answeredIDs, available)
	if err != nil {
		return domain.QuizStatus{}, fmt.Errorf("resolve survey for %s: %w", scheduledQuizID, err)
	}
	// Past the grace period no survey is offered anymore.
	if now.After(sq.EndAt) && now.Sub(sq.EndAt) > e.surveyGrace {
		surveyStatus.Questions = nil
	}

	switch {
	case finished || outOfTime:
		return domain.QuizStatus{
			ScheduledQuizID:          sq.ID,
			Status:                   domain.StatusHasFinished,
			AvailableSurveyQuestions: surveyStatus.Questions,
		}, nil
	case inWindow:
		return domain.QuizStatus{
			ScheduledQuizID:         sq.ID,
			Status:                  domain.StatusCanContinue,
			AvailableActivities:     available,
			AvailablePlayTimeMicros: domain.PlayTime(remaining),
		}, nil
	default:
		// Window elapsed mid-play before either finish condition tripped.
		return domain.QuizStatus{
			ScheduledQuizID:          sq.ID,
			Status:                   domain.StatusHasFinished,
			AvailableSurveyQuestions: surveyStatus.Questions,
		}, nil
	}
}
