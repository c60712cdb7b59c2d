package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"quiz-play-service/internal/domain"
)

// ScheduleStore reads the scheduled_quizzes side table.
type ScheduleStore struct {
	db *bun.DB
}

func NewScheduleStore(db *bun.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

func (s *ScheduleStore) Resolve(ctx context.Context, scheduledQuizID string) (domain.ScheduledQuiz, error) {
	row := new(scheduledQuizRow)
	err := s.db.NewSelect().Model(row).Where("sq.id = ?", scheduledQuizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ScheduledQuiz{}, domain.ErrScheduleNotFound
	}
	if err != nil {
		return domain.ScheduledQuiz{}, fmt.Errorf("resolve schedule %s: %w", scheduledQuizID, err)
	}
	return toScheduledQuiz(row), nil
}

func (s *ScheduleStore) ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduledQuiz, error) {
	var rows []scheduledQuizRow
	err := s.db.NewSelect().Model(&rows).Where("sq.course_id = ?", courseID).Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules for course %s: %w", courseID, err)
	}
	out := make([]domain.ScheduledQuiz, 0, len(rows))
	for i := range rows {
		out = append(out, toScheduledQuiz(&rows[i]))
	}
	return out, nil
}

func toScheduledQuiz(row *scheduledQuizRow) domain.ScheduledQuiz {
	return domain.ScheduledQuiz{
		ID:           row.ID,
		CourseID:     row.CourseID,
		SessionID:    row.SessionID,
		QuizID:       row.QuizID,
		StartAt:      row.StartAt.UTC(),
		EndAt:        row.EndAt.UTC(),
		PlayDuration: time.Duration(row.PlayDurationUs) * time.Microsecond,
		Difficulty:   row.Difficulty,
	}
}
