package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
	"quiz-play-service/internal/survey"
)

// Play-transition status codes; the non-standard ones are part of the client
// contract.
const (
	codeAlreadyPlayed  = 209
	codeNotYetOpen     = 210
	codeUnknownQuiz    = 452
	codePlayPeriodOver = 455
)

// Handler exposes the play engine over JSON HTTP.
type Handler struct {
	evaluator  *app.StatusEvaluator
	aggregator *app.StatusAggregator
	play       *app.PlayController
	recorder   *app.AnswerRecorder
	surveys    *survey.Service
	logger     *zap.Logger
}

func NewHandler(evaluator *app.StatusEvaluator, aggregator *app.StatusAggregator, play *app.PlayController, recorder *app.AnswerRecorder, surveys *survey.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		evaluator:  evaluator,
		aggregator: aggregator,
		play:       play,
		recorder:   recorder,
		surveys:    surveys,
		logger:     logger,
	}
}

// Register wires all routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/status", h.handleStatus)
	mux.HandleFunc("/v1/statuses", h.handleStatuses)
	mux.HandleFunc("/v1/play", h.handlePlay)
	mux.HandleFunc("/v1/answers", h.handleAnswer)
	mux.HandleFunc("/v1/answers/batch", h.handleAnswerBatch)
	mux.HandleFunc("/v1/surveys", h.handleSurvey)
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}
	scheduledQuizID := r.URL.Query().Get("scheduledQuizId")
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing userId"})
		return
	}
	if !validID(scheduledQuizID) {
		writeJSON(w, codeUnknownQuiz, errorResponse{Error: "invalid scheduledQuizId"})
		return
	}

	status, err := h.evaluator.Evaluate(r.Context(), scheduledQuizID, userID, false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleStatuses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		UserID    string   `json:"userId"`
		CourseIDs []string `json:"courseIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" || len(req.CourseIDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing userId or courseIds"})
		return
	}

	report, err := h.aggregator.EvaluateAll(r.Context(), req.CourseIDs, req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		ScheduledQuizID string `json:"scheduledQuizId"`
		UserID          string `json:"userId"`
		StartTime       string `json:"startTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if req.UserID == "" || req.StartTime == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing userId or startTime"})
		return
	}
	clientTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "startTime must be RFC 3339"})
		return
	}
	if !validID(req.ScheduledQuizID) {
		writeJSON(w, codeUnknownQuiz, errorResponse{Error: "invalid scheduledQuizId"})
		return
	}

	outcome, err := h.play.StartOrContinue(r.Context(), req.ScheduledQuizID, req.UserID, clientTime)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, playStatusCode(outcome.Code), outcome.Status)
}

func playStatusCode(code app.PlayCode) int {
	switch code {
	case app.PlayCodeCanPlay:
		return http.StatusOK
	case app.PlayCodeAlreadyPlayed:
		return codeAlreadyPlayed
	case app.PlayCodeNotYetOpen:
		return codeNotYetOpen
	case app.PlayCodePlayPeriodOver:
		return codePlayPeriodOver
	default:
		return http.StatusInternalServerError
	}
}

type answerRequest struct {
	ActivityID      string          `json:"activityId"`
	ScheduledQuizID string          `json:"scheduledQuizId,omitempty"`
	LoggedAt        string          `json:"loggedAt,omitempty"`
	Answer          json.RawMessage `json:"answer"`
}

func (req answerRequest) toRecord(userID string) (domain.AnswerRecord, error) {
	rec := domain.AnswerRecord{
		UserID:          userID,
		ActivityID:      req.ActivityID,
		ScheduledQuizID: req.ScheduledQuizID,
		Payload:         req.Answer,
	}
	if req.ScheduledQuizID != "" && !validID(req.ScheduledQuizID) {
		return rec, domain.ErrScheduleNotFound
	}
	if req.LoggedAt != "" {
		ts, err := time.Parse(time.RFC3339, req.LoggedAt)
		if err != nil {
			return rec, domain.ErrInvalidArgument
		}
		rec.LoggedAt = ts.UTC()
	}
	return rec, nil
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		UserID string `json:"userId"`
		answerRequest
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	rec, err := req.toRecord(req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.recorder.Record(r.Context(), rec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}

func (h *Handler) handleAnswerBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		UserID  string          `json:"userId"`
		Answers []answerRequest `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if len(req.Answers) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "empty answer batch"})
		return
	}
	recs := make([]domain.AnswerRecord, 0, len(req.Answers))
	for _, a := range req.Answers {
		rec, err := a.toRecord(req.UserID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		recs = append(recs, rec)
	}

	result, err := h.recorder.RecordBatch(r.Context(), recs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logged":        result.Logged,
		"alreadyLogged": result.AlreadyLogged,
	})
}

func (h *Handler) handleSurvey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}
	var req struct {
		UserID          string            `json:"userId"`
		ScheduledQuizID string            `json:"scheduledQuizId"`
		Answers         map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	if !validID(req.ScheduledQuizID) {
		writeJSON(w, codeUnknownQuiz, errorResponse{Error: "invalid scheduledQuizId"})
		return
	}

	result, err := h.surveys.Submit(r.Context(), req.UserID, req.ScheduledQuizID, req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(result)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrScheduleNotFound), errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, codeUnknownQuiz, errorResponse{Error: "scheduled quiz not found"})
	case errors.Is(err, domain.ErrSurveyClosed):
		writeJSON(w, codePlayPeriodOver, errorResponse{Error: "survey not open"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
