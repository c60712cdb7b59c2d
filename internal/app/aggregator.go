package app

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"quiz-play-service/internal/domain"
)

// DefaultBatchSize bounds how many evaluations run concurrently per chunk.
const DefaultBatchSize = 20

// StatusAggregator evaluates statuses for every scheduled quiz across a set
// of courses. Chunks run sequentially to cap data-store load; items inside a
// chunk run concurrently. A failing item is logged and omitted, never fatal.
type StatusAggregator struct {
	schedules ScheduleStore
	evaluator *StatusEvaluator
	batchSize int
	logger    *zap.Logger
}

func NewStatusAggregator(schedules ScheduleStore, evaluator *StatusEvaluator, batchSize int, logger *zap.Logger) *StatusAggregator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatusAggregator{
		schedules: schedules,
		evaluator: evaluator,
		batchSize: batchSize,
		logger:    logger,
	}
}

type evalResult struct {
	status domain.QuizStatus
	err    error
}

// EvaluateAll returns courseID -> scheduledQuizID -> status for userID.
// Stale schedules are dropped silently; errored ones are logged and omitted.
func (a *StatusAggregator) EvaluateAll(ctx context.Context, courseIDs []string, userID string) (map[string]map[string]domain.QuizStatus, error) {
	report := make(map[string]map[string]domain.QuizStatus, len(courseIDs))

	for _, courseID := range courseIDs {
		schedules, err := a.schedules.ListByCourse(ctx, courseID)
		if err != nil {
			a.logger.Warn("list course schedules failed",
				zap.String("courseId", courseID), zap.Error(err))
			continue
		}

		statuses := make(map[string]domain.QuizStatus, len(schedules))
		for offset := 0; offset < len(schedules); offset += a.batchSize {
			end := offset + a.batchSize
			if end > len(schedules) {
				end = len(schedules)
			}
			chunk := schedules[offset:end]
			results := make([]evalResult, len(chunk))

			var wg sync.WaitGroup
			for i, sq := range chunk {
				wg.Add(1)
				go func(i int, id string) {
					defer wg.Done()
					status, err := a.evaluator.Evaluate(ctx, id, userID, true)
					results[i] = evalResult{status: status, err: err}
				}(i, sq.ID)
			}
			wg.Wait()

			for i, res := range results {
				switch {
				case res.err == nil:
					statuses[chunk[i].ID] = res.status
				case errors.Is(res.err, domain.ErrScheduleTooOld):
					// pruned, not a failure
				default:
					a.logger.Warn("status evaluation failed",
						zap.String("scheduledQuizId", chunk[i].ID),
						zap.String("userId", userID),
						zap.Error(res.err))
				}
			}
		}
		report[courseID] = statuses
	}
	return report, nil
}
