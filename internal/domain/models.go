package domain

import "time"

// PlayStatus is the derived state of one (user, scheduled quiz) pair.
type PlayStatus string

const (
	StatusNotAvailable PlayStatus = "NOT_AVAILABLE"
	StatusCanStart     PlayStatus = "CAN_START"
	StatusCanContinue  PlayStatus = "CAN_CONTINUE"
	StatusHasFinished  PlayStatus = "HAS_FINISHED"
	StatusIsOver       PlayStatus = "IS_OVER"
)

// ScheduledQuiz is a time-boxed instance of a quiz within a course session.
// Invariant: StartAt < EndAt.
type ScheduledQuiz struct {
	ID           string
	CourseID     string
	SessionID    string
	QuizID       string
	StartAt      time.Time
	EndAt        time.Time
	PlayDuration time.Duration
	Difficulty   string // empty when difficulty adapts elsewhere
}

// InWindow reports whether now falls inside [StartAt, EndAt).
func (s ScheduledQuiz) InWindow(now time.Time) bool {
	return !now.Before(s.StartAt) && now.Before(s.EndAt)
}

// Quiz is the read-only content view this core needs: the ordered activity
// list and the post-quiz survey configuration.
type Quiz struct {
	ID              string   `json:"id"`
	ActivityIDs     []string `json:"activityIds"`
	SurveyEnabled   bool     `json:"surveyEnabled"`
	SurveyQuestions []string `json:"surveyQuestions"` // catalog question ids
}

// PlayStart marks when a user began a scheduled quiz. At most one exists per
// (user, scheduled quiz); it is created once and never mutated.
type PlayStart struct {
	ScheduledQuizID string
	UserID          string
	ServerTime      time.Time
	ClientTime      time.Time
}

// AnswerRecord is one persisted answer submission. ScheduledQuizID is empty
// for trial (unscheduled) play. The natural key
// (UserID, ActivityID, ScheduledQuizID, LoggedAt) is unique in storage.
type AnswerRecord struct {
	UserID          string
	ActivityID      string
	ScheduledQuizID string
	LoggedAt        time.Time
	Payload         []byte
}

// SurveyQuestion is one entry of the static post-quiz survey catalog.
type SurveyQuestion struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Kind string `json:"kind"` // "scale", "boolean" or "text"
	Min  int    `json:"min,omitempty"`
	Max  int    `json:"max,omitempty"`
}

// SurveyAnswer is a user's one-time post-quiz survey submission.
type SurveyAnswer struct {
	UserID          string            `json:"userId"`
	ScheduledQuizID string            `json:"scheduledQuizId"`
	Answers         map[string]string `json:"answers"`
	SubmittedAt     time.Time         `json:"submittedAt"`
}

// SurveyStatus is the resolver's answer to "which survey questions, if any,
// are still offered". Questions is nil once the survey was taken or when none
// are configured.
type SurveyStatus struct {
	ExistingAnswer bool
	Questions      []SurveyQuestion
}

// QuizStatus is the derived, never-persisted evaluation result.
// AvailableActivities and AvailablePlayTime are nil unless the status grants
// play; AvailableSurveyQuestions is nil unless a survey is still offered.
type QuizStatus struct {
	ScheduledQuizID          string           `json:"scheduledQuizId"`
	Status                   PlayStatus       `json:"status"`
	AvailableActivities      []string         `json:"availableActivities,omitempty"`
	AvailablePlayTimeMicros  *int64           `json:"availablePlayTime,omitempty"`
	AvailableSurveyQuestions []SurveyQuestion `json:"availableSurveyQuestions,omitempty"`
}

// PlayTime converts a duration into the microsecond form clients consume,
// clamping negatives to zero.
func PlayTime(d time.Duration) *int64 {
	us := d.Microseconds()
	if us < 0 {
		us = 0
	}
	return &us
}
