package app

import (
	"context"
	"fmt"
	"time"

	"quiz-play-service/internal/domain"
)

// AnswerStore persists answer submissions. Implementations detect duplicates
// through the storage-level unique key on (user, activity, scheduled-quiz
// context, timestamp), never via read-before-write.
type AnswerStore interface {
	// Insert reports inserted=false when an identical answer already exists.
	Insert(ctx context.Context, rec domain.AnswerRecord) (bool, error)
	// InsertBatch runs in one transaction. Duplicates are returned by index
	// in alreadyLogged while siblings proceed; any other error rolls back
	// the whole batch.
	InsertBatch(ctx context.Context, recs []domain.AnswerRecord) (alreadyLogged []int, err error)
}

// RecordResult distinguishes first-time logging from idempotent replays.
type RecordResult string

const (
	ResultLogged        RecordResult = "LOGGED"
	ResultAlreadyLogged RecordResult = "ALREADY_LOGGED"
)

// BatchRecordResult reports per-item outcomes of one batch submission.
type BatchRecordResult struct {
	Logged        int
	AlreadyLogged []int // indexes into the submitted slice
}

// AnswerRecorder idempotently logs answers within a scheduled-quiz or trial
// context. Resubmitting an identical answer is success, not failure.
type AnswerRecorder struct {
	answers AnswerStore
	clock   func() time.Time
}

func NewAnswerRecorder(answers AnswerStore) *AnswerRecorder {
	return &AnswerRecorder{answers: answers, clock: time.Now}
}

// WithClock is test-only for deterministic timestamps.
func (r *AnswerRecorder) WithClock(now func() time.Time) *AnswerRecorder {
	r.clock = now
	return r
}

// Record persists one answer. A zero LoggedAt is stamped with the server
// clock; a client-supplied one is kept so retried submissions dedupe.
func (r *AnswerRecorder) Record(ctx context.Context, rec domain.AnswerRecord) (RecordResult, error) {
	if rec.UserID == "" || rec.ActivityID == "" {
		return "", fmt.Errorf("answer missing user or activity: %w", domain.ErrInvalidArgument)
	}
	if rec.LoggedAt.IsZero() {
		rec.LoggedAt = r.clock().UTC()
	}
	inserted, err := r.answers.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("log answer: %w", err)
	}
	if !inserted {
		return ResultAlreadyLogged, nil
	}
	return ResultLogged, nil
}

// RecordBatch persists several answers in one transaction. Duplicates never
// block siblings; any other failure aborts the whole batch.
func (r *AnswerRecorder) RecordBatch(ctx context.Context, recs []domain.AnswerRecord) (BatchRecordResult, error) {
	now := r.clock().UTC()
	for i := range recs {
		if recs[i].UserID == "" || recs[i].ActivityID == "" {
			return BatchRecordResult{}, fmt.Errorf("answer %d missing user or activity: %w", i, domain.ErrInvalidArgument)
		}
		if recs[i].LoggedAt.IsZero() {
			recs[i].LoggedAt = now
		}
	}
	already, err := r.answers.InsertBatch(ctx, recs)
	if err != nil {
		return BatchRecordResult{}, fmt.Errorf("log answer batch: %w", err)
	}
	return BatchRecordResult{
		Logged:        len(recs) - len(already),
		AlreadyLogged: already,
	}, nil
}
