package survey_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
	"quiz-play-service/internal/survey"
)

var (
	windowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
)

type harness struct {
	now      time.Time
	store    *memory.SurveyStore
	progress *memory.ProgressStore
	resolver *survey.Resolver
	service  *survey.Service
	schedule domain.ScheduledQuiz
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		now:      time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		store:    memory.NewSurveyStore(),
		progress: memory.NewProgressStore(),
		schedule: domain.ScheduledQuiz{
			ID: "sq-1", CourseID: "course-1", SessionID: "s1", QuizID: "quiz-1",
			StartAt: windowStart, EndAt: windowEnd, PlayDuration: time.Hour,
		},
	}
	schedules := memory.NewScheduleStore(h.schedule)
	quizzes := memory.NewQuizCatalog(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:              "quiz-1",
			ActivityIDs:     []string{"a1", "a2"},
			SurveyEnabled:   true,
			SurveyQuestions: []string{"sv-difficulty", "sv-comments", "sv-unknown-id"},
		},
		"quiz-nosurvey": {ID: "quiz-nosurvey", ActivityIDs: []string{"a1"}},
	}), time.Minute)
	h.resolver = survey.NewResolver(h.store, quizzes)
	evaluator := app.NewStatusEvaluator(schedules, quizzes, h.progress, h.resolver).
		WithClock(func() time.Time { return h.now })
	h.service = survey.NewService(h.store, schedules, evaluator, 24*time.Hour).
		WithClock(func() time.Time { return h.now })
	return h
}

func (h *harness) finishPlay(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := h.progress.CreatePlayStart(ctx, domain.PlayStart{
		ScheduledQuizID: "sq-1", UserID: "u1", ServerTime: h.now, ClientTime: h.now,
	}); err != nil {
		t.Fatalf("seed start: %v", err)
	}
	for _, a := range []string{"a1", "a2"} {
		if _, err := h.progress.Insert(ctx, domain.AnswerRecord{
			UserID: "u1", ActivityID: a, ScheduledQuizID: "sq-1", LoggedAt: h.now,
		}); err != nil {
			t.Fatalf("seed answer: %v", err)
		}
	}
}

func TestResolverOffersConfiguredQuestions(t *testing.T) {
	h := newHarness(t)
	status, err := h.resolver.StatusFor(context.Background(), "u1", h.schedule, []string{"a1", "a2"}, nil)
	if err != nil {
		t.Fatalf("status for: %v", err)
	}
	if status.ExistingAnswer {
		t.Fatalf("no submission yet, ExistingAnswer must be false")
	}
	// sv-unknown-id is skipped; nothing unanswered, so no unfinished question
	if len(status.Questions) != 2 {
		t.Fatalf("expected 2 catalog questions, got %v", status.Questions)
	}
}

func TestResolverAddsUnfinishedQuestion(t *testing.T) {
	h := newHarness(t)
	status, err := h.resolver.StatusFor(context.Background(), "u1", h.schedule, []string{"a1"}, []string{"a2"})
	if err != nil {
		t.Fatalf("status for: %v", err)
	}
	found := false
	for _, q := range status.Questions {
		if q.ID == survey.QuestionUnfinished {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the unfinished-reason question, got %v", status.Questions)
	}
}

func TestResolverReportsExistingAnswer(t *testing.T) {
	h := newHarness(t)
	if _, err := h.store.Save(context.Background(), domain.SurveyAnswer{
		UserID: "u1", ScheduledQuizID: "sq-1",
		Answers: map[string]string{"sv-difficulty": "4"}, SubmittedAt: h.now,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	status, err := h.resolver.StatusFor(context.Background(), "u1", h.schedule, nil, nil)
	if err != nil {
		t.Fatalf("status for: %v", err)
	}
	if !status.ExistingAnswer || status.Questions != nil {
		t.Fatalf("expected existing answer and no questions, got %+v", status)
	}
}

func TestResolverSkipsDisabledSurvey(t *testing.T) {
	h := newHarness(t)
	sq := h.schedule
	sq.QuizID = "quiz-nosurvey"
	status, err := h.resolver.StatusFor(context.Background(), "u1", sq, nil, nil)
	if err != nil {
		t.Fatalf("status for: %v", err)
	}
	if status.Questions != nil {
		t.Fatalf("disabled survey must offer no questions, got %v", status.Questions)
	}
}

func TestSubmitOnceThenIdempotent(t *testing.T) {
	h := newHarness(t)
	h.finishPlay(t)
	answers := map[string]string{"sv-difficulty": "3", "sv-comments": "fun"}

	result, err := h.service.Submit(context.Background(), "u1", "sq-1", answers)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result != survey.SubmitLogged {
		t.Fatalf("expected Logged, got %s", result)
	}

	result, err = h.service.Submit(context.Background(), "u1", "sq-1", answers)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if result != survey.SubmitAlreadyLogged {
		t.Fatalf("expected AlreadyLogged, got %s", result)
	}
}

func TestSubmitRejectedWhilePlaying(t *testing.T) {
	h := newHarness(t)
	_, err := h.service.Submit(context.Background(), "u1", "sq-1", map[string]string{"sv-pace": "true"})
	if !errors.Is(err, domain.ErrSurveyClosed) {
		t.Fatalf("expected ErrSurveyClosed before play finished, got %v", err)
	}
}

func TestSubmitRejectedAfterGrace(t *testing.T) {
	h := newHarness(t)
	h.finishPlay(t)
	h.now = windowEnd.Add(25 * time.Hour)
	_, err := h.service.Submit(context.Background(), "u1", "sq-1", map[string]string{"sv-pace": "true"})
	if !errors.Is(err, domain.ErrSurveyClosed) {
		t.Fatalf("expected ErrSurveyClosed past grace period, got %v", err)
	}
}
