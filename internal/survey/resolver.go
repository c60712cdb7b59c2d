package survey

import (
	"context"
	"fmt"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// Store persists one-time survey submissions.
type Store interface {
	// Find returns (nil, nil) when the user never answered the survey.
	Find(ctx context.Context, userID, scheduledQuizID string) (*domain.SurveyAnswer, error)
	// Save reports created=false when a submission already existed.
	Save(ctx context.Context, ans domain.SurveyAnswer) (bool, error)
}

// Resolver implements app.SurveyResolver on top of the static catalog and the
// survey-answer store.
type Resolver struct {
	store   Store
	quizzes app.QuizCatalog
}

func NewResolver(store Store, quizzes app.QuizCatalog) *Resolver {
	return &Resolver{store: store, quizzes: quizzes}
}

// StatusFor reports whether the user already took the survey and, if not,
// which catalog questions the quiz still offers. The unfinished-reason
// question is appended only when unanswered activities remain.
func (r *Resolver) StatusFor(ctx context.Context, userID string, sq domain.ScheduledQuiz, answered, available []string) (domain.SurveyStatus, error) {
	existing, err := r.store.Find(ctx, userID, sq.ID)
	if err != nil {
		return domain.SurveyStatus{}, fmt.Errorf("find survey answer: %w", err)
	}
	if existing != nil {
		return domain.SurveyStatus{ExistingAnswer: true}, nil
	}

	quiz, err := r.quizzes.Quiz(ctx, sq.QuizID)
	if err != nil {
		return domain.SurveyStatus{}, err
	}
	if !quiz.SurveyEnabled {
		return domain.SurveyStatus{}, nil
	}

	questions := make([]domain.SurveyQuestion, 0, len(quiz.SurveyQuestions)+1)
	for _, id := range quiz.SurveyQuestions {
		if q, ok := Catalog[id]; ok {
			questions = append(questions, q)
		}
	}
	if len(available) > 0 {
		questions = append(questions, Catalog[QuestionUnfinished])
	}
	if len(questions) == 0 {
		return domain.SurveyStatus{}, nil
	}
	return domain.SurveyStatus{Questions: questions}, nil
}
