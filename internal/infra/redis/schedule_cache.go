package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// scheduleEntry is the cached wire form of a schedule definition.
type scheduleEntry struct {
	ID             string    `json:"id"`
	CourseID       string    `json:"courseId"`
	SessionID      string    `json:"sessionId"`
	QuizID         string    `json:"quizId"`
	StartAt        time.Time `json:"startAt"`
	EndAt          time.Time `json:"endAt"`
	PlayDurationUs int64     `json:"playDurationUs"`
	Difficulty     string    `json:"difficulty,omitempty"`
}

// ScheduleCache decorates a ScheduleStore with a Redis lookaside cache for
// single-id resolution. Definitions are immutable once authored, so a plain
// TTL is enough. Course listings pass through: bulk scans already hit the
// indexed side table once per course.
type ScheduleCache struct {
	client *redis.Client
	next   app.ScheduleStore
	ttl    time.Duration
	sf     singleflight.Group
}

func NewScheduleCache(client *redis.Client, next app.ScheduleStore, ttl time.Duration) *ScheduleCache {
	return &ScheduleCache{client: client, next: next, ttl: ttl}
}

func (c *ScheduleCache) Resolve(ctx context.Context, scheduledQuizID string) (domain.ScheduledQuiz, error) {
	key := c.key(scheduledQuizID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil && len(raw) > 0 {
		var entry scheduleEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			return fromEntry(entry), nil
		}
	}

	result, err, _ := c.sf.Do(scheduledQuizID, func() (interface{}, error) {
		sq, err := c.next.Resolve(ctx, scheduledQuizID)
		if err != nil {
			return domain.ScheduledQuiz{}, err
		}
		if data, err := json.Marshal(toEntry(sq)); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttl).Err()
		}
		return sq, nil
	})
	if err != nil {
		return domain.ScheduledQuiz{}, err
	}
	return result.(domain.ScheduledQuiz), nil
}

func (c *ScheduleCache) ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduledQuiz, error) {
	return c.next.ListByCourse(ctx, courseID)
}

func (c *ScheduleCache) key(scheduledQuizID string) string {
	return "sched:" + scheduledQuizID
}

func toEntry(sq domain.ScheduledQuiz) scheduleEntry {
	return scheduleEntry{
		ID:             sq.ID,
		CourseID:       sq.CourseID,
		SessionID:      sq.SessionID,
		QuizID:         sq.QuizID,
		StartAt:        sq.StartAt,
		EndAt:          sq.EndAt,
		PlayDurationUs: sq.PlayDuration.Microseconds(),
		Difficulty:     sq.Difficulty,
	}
}

func fromEntry(entry scheduleEntry) domain.ScheduledQuiz {
	return domain.ScheduledQuiz{
		ID:           entry.ID,
		CourseID:     entry.CourseID,
		SessionID:    entry.SessionID,
		QuizID:       entry.QuizID,
		StartAt:      entry.StartAt.UTC(),
		EndAt:        entry.EndAt.UTC(),
		PlayDuration: time.Duration(entry.PlayDurationUs) * time.Microsecond,
		Difficulty:   entry.Difficulty,
	}
}
