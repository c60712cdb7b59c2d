package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_play_engine.sql
var createPlayEngineSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createPlayEngineSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS survey_answers;
				DROP TABLE IF EXISTS answer_records;
				DROP TABLE IF EXISTS play_starts;
				DROP TABLE IF EXISTS scheduled_quizzes;
				DROP TABLE IF EXISTS quizzes;
			`)
			return err
		},
	)
}
