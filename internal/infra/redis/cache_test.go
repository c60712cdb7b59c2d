package redis

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
)

type countingLoader struct {
	calls int32
	quiz  domain.Quiz
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	atomic.AddInt32(&l.calls, 1)
	if quizID != l.quiz.ID {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return l.quiz, nil
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return mr, goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestQuizCatalogCachesContent(t *testing.T) {
	mr, client := newTestRedis(t)
	loader := &countingLoader{quiz: domain.Quiz{
		ID:            "quiz-1",
		ActivityIDs:   []string{"a1", "a2"},
		SurveyEnabled: true,
	}}
	catalog := NewQuizCatalog(client, loader, time.Minute)

	ctx := context.Background()
	quiz, err := catalog.Quiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	if len(quiz.ActivityIDs) != 2 {
		t.Fatalf("expected 2 activities, got %v", quiz.ActivityIDs)
	}
	if !mr.Exists("quiz:quiz-1:content") {
		t.Fatalf("expected cache key to be set")
	}

	if _, err := catalog.Quiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	if got := atomic.LoadInt32(&loader.calls); got != 1 {
		t.Fatalf("expected one backing load, got %d", got)
	}
}

func TestQuizCatalogPropagatesLoaderError(t *testing.T) {
	_, client := newTestRedis(t)
	catalog := NewQuizCatalog(client, &countingLoader{quiz: domain.Quiz{ID: "quiz-1"}}, time.Minute)

	if _, err := catalog.Quiz(context.Background(), "quiz-missing"); err == nil {
		t.Fatalf("expected loader error to propagate")
	}
}

func TestScheduleCacheRoundTrip(t *testing.T) {
	mr, client := newTestRedis(t)
	sq := domain.ScheduledQuiz{
		ID:           "sq-1",
		CourseID:     "course-1",
		SessionID:    "s1",
		QuizID:       "quiz-1",
		StartAt:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndAt:        time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		PlayDuration: time.Hour,
	}
	cache := NewScheduleCache(client, memory.NewScheduleStore(sq), time.Minute)

	ctx := context.Background()
	got, err := cache.Resolve(ctx, "sq-1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.PlayDuration != time.Hour || !got.StartAt.Equal(sq.StartAt) {
		t.Fatalf("unexpected schedule from store: %+v", got)
	}
	if !mr.Exists("sched:sq-1") {
		t.Fatalf("expected cache key to be set")
	}

	// served from cache afterwards
	got, err = cache.Resolve(ctx, "sq-1")
	if err != nil {
		t.Fatalf("cached resolve: %v", err)
	}
	if got.QuizID != "quiz-1" || got.PlayDuration != time.Hour {
		t.Fatalf("unexpected schedule from cache: %+v", got)
	}
}

func TestScheduleCacheMissPropagates(t *testing.T) {
	_, client := newTestRedis(t)
	cache := NewScheduleCache(client, memory.NewScheduleStore(), time.Minute)
	if _, err := cache.Resolve(context.Background(), "sq-missing"); err == nil {
		t.Fatalf("expected not-found error to propagate")
	}
}
