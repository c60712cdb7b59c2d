package survey

import "quiz-play-service/internal/domain"

// QuestionUnfinished is only offered when the user left activities unanswered.
const QuestionUnfinished = "sv-unfinished-reason"

// Catalog is the fixed post-quiz survey question set, keyed by question id.
// Content is a static fixture; quizzes reference entries by id.
var Catalog = map[string]domain.SurveyQuestion{
	"sv-difficulty": {
		ID:   "sv-difficulty",
		Text: "How difficult was this quiz?",
		Kind: "scale",
		Min:  1,
		Max:  5,
	},
	"sv-pace": {
		ID:   "sv-pace",
		Text: "Was the play time long enough?",
		Kind: "boolean",
	},
	"sv-confidence": {
		ID:   "sv-confidence",
		Text: "How confident are you about your answers?",
		Kind: "scale",
		Min:  1,
		Max:  5,
	},
	"sv-relevance": {
		ID:   "sv-relevance",
		Text: "Did the activities match what was taught in the course?",
		Kind: "boolean",
	},
	"sv-comments": {
		ID:   "sv-comments",
		Text: "Anything else you want to tell us?",
		Kind: "text",
	},
	QuestionUnfinished: {
		ID:   QuestionUnfinished,
		Text: "You left some activities unanswered. What got in the way?",
		Kind: "text",
	},
}
