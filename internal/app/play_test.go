package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

func newController(f *fixture) *app.PlayController {
	return app.NewPlayController(f.evaluator, f.progress, nil).
		WithClock(func() time.Time { return f.now })
}

func TestStartOrContinueStartsOnce(t *testing.T) {
	f := newFixture(t)
	controller := newController(f)

	outcome, err := controller.StartOrContinue(context.Background(), "sq-1", "u1", f.now)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if outcome.Code != app.PlayCodeCanPlay {
		t.Fatalf("expected CanPlay, got %s", outcome.Code)
	}
	if len(outcome.Status.AvailableActivities) != 3 {
		t.Fatalf("expected full activity list on first start, got %v", outcome.Status.AvailableActivities)
	}
	if f.progress.StartCount("u1", "sq-1") != 1 {
		t.Fatalf("expected exactly one play start record")
	}
}

func TestStartOrContinueConcurrentStartsCreateOneRecord(t *testing.T) {
	f := newFixture(t)
	controller := newController(f)

	const callers = 25
	var wg sync.WaitGroup
	outcomes := make([]app.PlayOutcome, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = controller.StartOrContinue(context.Background(), "sq-1", "u1", f.now)
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d failed: %v", i, errs[i])
		}
		if outcomes[i].Code != app.PlayCodeCanPlay {
			t.Fatalf("caller %d expected CanPlay, got %s", i, outcomes[i].Code)
		}
	}
	if got := f.progress.StartCount("u1", "sq-1"); got != 1 {
		t.Fatalf("expected exactly one play start record, got %d", got)
	}
}

func TestStartOrContinueDispatch(t *testing.T) {
	t.Run("continue mid-play", func(t *testing.T) {
		f := newFixture(t)
		f.startPlay(t, f.now)
		f.now = f.now.Add(10 * time.Minute)

		outcome, err := newController(f).StartOrContinue(context.Background(), "sq-1", "u1", f.now)
		if err != nil {
			t.Fatalf("continue: %v", err)
		}
		if outcome.Code != app.PlayCodeCanPlay || outcome.Status.Status != domain.StatusCanContinue {
			t.Fatalf("expected CanPlay/CanContinue, got %s/%s", outcome.Code, outcome.Status.Status)
		}
	})

	t.Run("already played", func(t *testing.T) {
		f := newFixture(t)
		f.startPlay(t, f.now)
		f.answer(t, "a1")
		f.answer(t, "a2")
		f.answer(t, "a3")

		outcome, err := newController(f).StartOrContinue(context.Background(), "sq-1", "u1", f.now)
		if err != nil {
			t.Fatalf("replay: %v", err)
		}
		if outcome.Code != app.PlayCodeAlreadyPlayed {
			t.Fatalf("expected AlreadyPlayed, got %s", outcome.Code)
		}
		if outcome.Status.AvailableSurveyQuestions == nil {
			t.Fatalf("expected survey info with AlreadyPlayed")
		}
	})

	t.Run("not yet available", func(t *testing.T) {
		f := newFixture(t)
		f.now = windowStart.Add(-time.Minute)

		outcome, err := newController(f).StartOrContinue(context.Background(), "sq-1", "u1", f.now)
		if err != nil {
			t.Fatalf("early start: %v", err)
		}
		if outcome.Code != app.PlayCodeNotYetOpen {
			t.Fatalf("expected NotYetOpen, got %s", outcome.Code)
		}
	})

	t.Run("period over", func(t *testing.T) {
		f := newFixture(t)
		f.now = windowEnd.Add(time.Minute)

		outcome, err := newController(f).StartOrContinue(context.Background(), "sq-1", "u1", f.now)
		if err != nil {
			t.Fatalf("late start: %v", err)
		}
		if outcome.Code != app.PlayCodePlayPeriodOver {
			t.Fatalf("expected PlayPeriodOver, got %s", outcome.Code)
		}
		if f.progress.StartCount("u1", "sq-1") != 0 {
			t.Fatalf("no play start may be written after the window")
		}
	})

	t.Run("unknown quiz", func(t *testing.T) {
		f := newFixture(t)
		_, err := newController(f).StartOrContinue(context.Background(), "sq-missing", "u1", f.now)
		if !errors.Is(err, domain.ErrScheduleNotFound) {
			t.Fatalf("expected ErrScheduleNotFound, got %v", err)
		}
	})
}
