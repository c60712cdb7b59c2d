package postgres

import (
	"time"

	"github.com/uptrace/bun"
)

// scheduledQuizRow is the schedule side table: one indexed row per scheduled
// quiz instead of a scan through nested course sessions.
type scheduledQuizRow struct {
	bun.BaseModel `bun:"table:scheduled_quizzes,alias:sq"`

	ID             string    `bun:"id,pk"`
	CourseID       string    `bun:"course_id,notnull"`
	SessionID      string    `bun:"session_id,notnull"`
	QuizID         string    `bun:"quiz_id,notnull"`
	StartAt        time.Time `bun:"start_at,notnull"`
	EndAt          time.Time `bun:"end_at,notnull"`
	PlayDurationUs int64     `bun:"play_duration_us,notnull"`
	Difficulty     string    `bun:"difficulty,nullzero"`
}

// playStartRow carries the single-start invariant in its unique index on
// (scheduled_quiz_id, user_id).
type playStartRow struct {
	bun.BaseModel `bun:"table:play_starts,alias:ps"`

	ScheduledQuizID string    `bun:"scheduled_quiz_id,notnull"`
	UserID          string    `bun:"user_id,notnull"`
	ServerTime      time.Time `bun:"server_ts,notnull"`
	ClientTime      time.Time `bun:"client_ts,notnull"`
}

// answerRecordRow's unique index spans the natural answer key; the context
// column stores the empty string for trial (unscheduled) answers so the index
// covers both cases.
type answerRecordRow struct {
	bun.BaseModel `bun:"table:answer_records,alias:ar"`

	UserID          string    `bun:"user_id,notnull"`
	ActivityID      string    `bun:"activity_id,notnull"`
	ScheduledQuizID string    `bun:"scheduled_quiz_id,notnull,default:''"`
	LoggedAt        time.Time `bun:"logged_at,notnull"`
	Payload         []byte    `bun:"payload,type:jsonb"`
}

type surveyAnswerRow struct {
	bun.BaseModel `bun:"table:survey_answers,alias:sa"`

	UserID          string            `bun:"user_id,notnull"`
	ScheduledQuizID string            `bun:"scheduled_quiz_id,notnull"`
	Answers         map[string]string `bun:"answers,type:jsonb"`
	SubmittedAt     time.Time         `bun:"submitted_at,notnull"`
}
