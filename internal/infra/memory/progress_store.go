package memory

import (
	"context"
	"sync"

	"quiz-play-service/internal/domain"
)

type playKey struct {
	userID          string
	scheduledQuizID string
}

type answerKey struct {
	userID          string
	activityID      string
	scheduledQuizID string
	loggedAtUnixUs  int64
}

// ProgressStore keeps play starts and answer records in process. The mutex
// stands in for the transaction + unique constraints the Postgres store gets
// from the database, so the same idempotency semantics hold.
type ProgressStore struct {
	mu      sync.Mutex
	starts  map[playKey]domain.PlayStart
	answers map[answerKey]domain.AnswerRecord
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		starts:  make(map[playKey]domain.PlayStart),
		answers: make(map[answerKey]domain.AnswerRecord),
	}
}

func (s *ProgressStore) AnsweredActivities(_ context.Context, userID, scheduledQuizID string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]struct{})
	for key := range s.answers {
		if key.userID == userID && key.scheduledQuizID == scheduledQuizID {
			out[key.activityID] = struct{}{}
		}
	}
	return out, nil
}

func (s *ProgressStore) PlayStart(_ context.Context, userID, scheduledQuizID string) (*domain.PlayStart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start, ok := s.starts[playKey{userID, scheduledQuizID}]; ok {
		copied := start
		return &copied, nil
	}
	return nil, nil
}

func (s *ProgressStore) CreatePlayStart(_ context.Context, start domain.PlayStart) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := playKey{start.UserID, start.ScheduledQuizID}
	if _, ok := s.starts[key]; ok {
		return false, nil
	}
	s.starts[key] = start
	return true, nil
}

func (s *ProgressStore) Insert(_ context.Context, rec domain.AnswerRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(rec), nil
}

func (s *ProgressStore) InsertBatch(_ context.Context, recs []domain.AnswerRecord) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var already []int
	for i, rec := range recs {
		if !s.insertLocked(rec) {
			already = append(already, i)
		}
	}
	return already, nil
}

func (s *ProgressStore) insertLocked(rec domain.AnswerRecord) bool {
	key := answerKey{
		userID:          rec.UserID,
		activityID:      rec.ActivityID,
		scheduledQuizID: rec.ScheduledQuizID,
		loggedAtUnixUs:  rec.LoggedAt.UnixMicro(),
	}
	if _, ok := s.answers[key]; ok {
		return false
	}
	s.answers[key] = rec
	return true
}

// AnswerCount reports how many records exist for a user and quiz context
// (test helper).
func (s *ProgressStore) AnswerCount(userID, scheduledQuizID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.answers {
		if key.userID == userID && key.scheduledQuizID == scheduledQuizID {
			n++
		}
	}
	return n
}

// StartCount reports how many play starts exist for a pair (test helper).
func (s *ProgressStore) StartCount(userID, scheduledQuizID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.starts[playKey{userID, scheduledQuizID}]; ok {
		return 1
	}
	return 0
}

// SurveyStore keeps one-time survey submissions in process.
type SurveyStore struct {
	mu      sync.Mutex
	answers map[playKey]domain.SurveyAnswer
}

func NewSurveyStore() *SurveyStore {
	return &SurveyStore{answers: make(map[playKey]domain.SurveyAnswer)}
}

func (s *SurveyStore) Find(_ context.Context, userID, scheduledQuizID string) (*domain.SurveyAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ans, ok := s.answers[playKey{userID, scheduledQuizID}]; ok {
		copied := ans
		return &copied, nil
	}
	return nil, nil
}

func (s *SurveyStore) Save(_ context.Context, ans domain.SurveyAnswer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := playKey{ans.UserID, ans.ScheduledQuizID}
	if _, ok := s.answers[key]; ok {
		return false, nil
	}
	s.answers[key] = ans
	return true, nil
}
