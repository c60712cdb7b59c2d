package memory

import (
	"context"
	"sync"

	"quiz-play-service/internal/domain"
)

// ScheduleStore is an in-memory schedule side table keyed by scheduled-quiz
// id, with a per-course index.
type ScheduleStore struct {
	mu       sync.RWMutex
	byID     map[string]domain.ScheduledQuiz
	byCourse map[string][]string
}

func NewScheduleStore(schedules ...domain.ScheduledQuiz) *ScheduleStore {
	s := &ScheduleStore{
		byID:     make(map[string]domain.ScheduledQuiz),
		byCourse: make(map[string][]string),
	}
	for _, sq := range schedules {
		s.Put(sq)
	}
	return s
}

// Put registers or replaces a schedule (test/demo seeding).
func (s *ScheduleStore) Put(sq domain.ScheduledQuiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[sq.ID]; !ok {
		s.byCourse[sq.CourseID] = append(s.byCourse[sq.CourseID], sq.ID)
	}
	s.byID[sq.ID] = sq
}

func (s *ScheduleStore) Resolve(_ context.Context, scheduledQuizID string) (domain.ScheduledQuiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sq, ok := s.byID[scheduledQuizID]
	if !ok {
		return domain.ScheduledQuiz{}, domain.ErrScheduleNotFound
	}
	return sq, nil
}

func (s *ScheduleStore) ListByCourse(_ context.Context, courseID string) ([]domain.ScheduledQuiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCourse[courseID]
	out := make([]domain.ScheduledQuiz, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}
