package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/infra/memory"
)

func TestRecordIsIdempotent(t *testing.T) {
	store := memory.NewProgressStore()
	recorder := app.NewAnswerRecorder(store)

	rec := domain.AnswerRecord{
		UserID:          "u1",
		ActivityID:      "a1",
		ScheduledQuizID: "sq-1",
		LoggedAt:        time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC),
		Payload:         json.RawMessage(`{"choice":2}`),
	}

	result, err := recorder.Record(context.Background(), rec)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if result != app.ResultLogged {
		t.Fatalf("expected Logged, got %s", result)
	}

	result, err = recorder.Record(context.Background(), rec)
	if err != nil {
		t.Fatalf("duplicate record: %v", err)
	}
	if result != app.ResultAlreadyLogged {
		t.Fatalf("expected AlreadyLogged on resubmission, got %s", result)
	}
	if got := store.AnswerCount("u1", "sq-1"); got != 1 {
		t.Fatalf("expected one stored record, got %d", got)
	}
}

func TestRecordValidatesInput(t *testing.T) {
	recorder := app.NewAnswerRecorder(memory.NewProgressStore())
	_, err := recorder.Record(context.Background(), domain.AnswerRecord{UserID: "u1"})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRecordBatchDuplicatesDoNotBlockSiblings(t *testing.T) {
	store := memory.NewProgressStore()
	recorder := app.NewAnswerRecorder(store)
	ts := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)

	seed := domain.AnswerRecord{UserID: "u1", ActivityID: "a2", ScheduledQuizID: "sq-1", LoggedAt: ts}
	if _, err := recorder.Record(context.Background(), seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	batch := []domain.AnswerRecord{
		{UserID: "u1", ActivityID: "a1", ScheduledQuizID: "sq-1", LoggedAt: ts},
		seed, // duplicate
		{UserID: "u1", ActivityID: "a3", ScheduledQuizID: "sq-1", LoggedAt: ts},
	}
	result, err := recorder.RecordBatch(context.Background(), batch)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if result.Logged != 2 {
		t.Fatalf("expected 2 logged, got %d", result.Logged)
	}
	if len(result.AlreadyLogged) != 1 || result.AlreadyLogged[0] != 1 {
		t.Fatalf("expected index 1 already logged, got %v", result.AlreadyLogged)
	}
	if got := store.AnswerCount("u1", "sq-1"); got != 3 {
		t.Fatalf("expected 3 stored records, got %d", got)
	}
}

func TestRecordStampsMissingTimestamp(t *testing.T) {
	store := memory.NewProgressStore()
	now := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	recorder := app.NewAnswerRecorder(store).WithClock(func() time.Time { return now })

	result, err := recorder.Record(context.Background(), domain.AnswerRecord{
		UserID:     "u1",
		ActivityID: "a1",
	})
	if err != nil || result != app.ResultLogged {
		t.Fatalf("record: result=%s err=%v", result, err)
	}
	// same server timestamp: the retried submission dedupes
	result, err = recorder.Record(context.Background(), domain.AnswerRecord{
		UserID:     "u1",
		ActivityID: "a1",
	})
	if err != nil || result != app.ResultAlreadyLogged {
		t.Fatalf("retry: result=%s err=%v", result, err)
	}
}
