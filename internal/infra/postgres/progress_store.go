package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-play-service/internal/domain"
)

// ProgressStore persists play starts and answer records. Idempotency is
// enforced by the tables' unique indexes, not by read-before-write: inserts
// use ON CONFLICT DO NOTHING and report duplicates through rows-affected, so
// a batch transaction survives duplicate keys without savepoints.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) AnsweredActivities(ctx context.Context, userID, scheduledQuizID string) (map[string]struct{}, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*answerRecordRow)(nil)).
		ColumnExpr("DISTINCT ar.activity_id").
		Where("ar.user_id = ?", userID).
		Where("ar.scheduled_quiz_id = ?", scheduledQuizID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("read answered activities: %w", err)
	}
	answered := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		answered[id] = struct{}{}
	}
	return answered, nil
}

func (s *ProgressStore) PlayStart(ctx context.Context, userID, scheduledQuizID string) (*domain.PlayStart, error) {
	row := new(playStartRow)
	err := s.db.NewSelect().Model(row).
		Where("ps.user_id = ?", userID).
		Where("ps.scheduled_quiz_id = ?", scheduledQuizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read play start: %w", err)
	}
	return &domain.PlayStart{
		ScheduledQuizID: row.ScheduledQuizID,
		UserID:          row.UserID,
		ServerTime:      row.ServerTime.UTC(),
		ClientTime:      row.ClientTime.UTC(),
	}, nil
}

// CreatePlayStart re-checks existence and inserts inside one transaction; the
// unique index on (scheduled_quiz_id, user_id) backstops concurrent
// transactions that both pass the read.
func (s *ProgressStore) CreatePlayStart(ctx context.Context, start domain.PlayStart) (bool, error) {
	created := false
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*playStartRow)(nil)).
			Where("ps.user_id = ?", start.UserID).
			Where("ps.scheduled_quiz_id = ?", start.ScheduledQuizID).
			Exists(ctx)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		res, err := tx.NewInsert().Model(&playStartRow{
			ScheduledQuizID: start.ScheduledQuizID,
			UserID:          start.UserID,
			ServerTime:      start.ServerTime,
			ClientTime:      start.ClientTime,
		}).On("CONFLICT DO NOTHING").Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("create play start: %w", err)
	}
	return created, nil
}

func (s *ProgressStore) Insert(ctx context.Context, rec domain.AnswerRecord) (bool, error) {
	res, err := s.db.NewInsert().Model(answerRow(rec)).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("insert answer: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *ProgressStore) InsertBatch(ctx context.Context, recs []domain.AnswerRecord) ([]int, error) {
	var already []int
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for i := range recs {
			res, err := tx.NewInsert().Model(answerRow(recs[i])).
				On("CONFLICT DO NOTHING").
				Exec(ctx)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				already = append(already, i)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert answer batch: %w", err)
	}
	return already, nil
}

func answerRow(rec domain.AnswerRecord) *answerRecordRow {
	return &answerRecordRow{
		UserID:          rec.UserID,
		ActivityID:      rec.ActivityID,
		ScheduledQuizID: rec.ScheduledQuizID,
		LoggedAt:        rec.LoggedAt,
		Payload:         rec.Payload,
	}
}
