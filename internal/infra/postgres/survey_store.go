package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-play-service/internal/domain"
)

// SurveyStore persists one-time survey submissions; the unique index on
// (user_id, scheduled_quiz_id) makes repeat submits no-ops.
type SurveyStore struct {
	db *bun.DB
}

func NewSurveyStore(db *bun.DB) *SurveyStore {
	return &SurveyStore{db: db}
}

func (s *SurveyStore) Find(ctx context.Context, userID, scheduledQuizID string) (*domain.SurveyAnswer, error) {
	row := new(surveyAnswerRow)
	err := s.db.NewSelect().Model(row).
		Where("sa.user_id = ?", userID).
		Where("sa.scheduled_quiz_id = ?", scheduledQuizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find survey answer: %w", err)
	}
	return &domain.SurveyAnswer{
		UserID:          row.UserID,
		ScheduledQuizID: row.ScheduledQuizID,
		Answers:         row.Answers,
		SubmittedAt:     row.SubmittedAt.UTC(),
	}, nil
}

func (s *SurveyStore) Save(ctx context.Context, ans domain.SurveyAnswer) (bool, error) {
	res, err := s.db.NewInsert().Model(&surveyAnswerRow{
		UserID:          ans.UserID,
		ScheduledQuizID: ans.ScheduledQuizID,
		Answers:         ans.Answers,
		SubmittedAt:     ans.SubmittedAt,
	}).On("CONFLICT DO NOTHING").Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("save survey answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
