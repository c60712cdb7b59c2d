package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-play-service/internal/app"
	"quiz-play-service/internal/domain"
)

// WSHandler streams status re-evaluations to a client so multi-device users
// see a live countdown. Each push is a fresh evaluation; the stream ends once
// the status turns terminal.
type WSHandler struct {
	evaluator *app.StatusEvaluator
	interval  time.Duration
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

func NewWSHandler(evaluator *app.StatusEvaluator, interval time.Duration, logger *zap.Logger) *WSHandler {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		evaluator: evaluator,
		interval:  interval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

type statusMessage struct {
	Type    string            `json:"type"`
	Payload domain.QuizStatus `json:"payload"`
}

type wsErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and pushes the evaluated status immediately
// and then on every tick until the socket closes or the status is terminal.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	scheduledQuizID := r.URL.Query().Get("scheduledQuizId")
	userID := r.URL.Query().Get("userId")
	if userID == "" || !validID(scheduledQuizID) {
		http.Error(w, "missing or invalid scheduledQuizId/userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Reader only detects the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		status, err := h.evaluator.Evaluate(r.Context(), scheduledQuizID, userID, false)
		if err != nil {
			_ = conn.WriteJSON(wsErrorMessage{Type: "error", Message: "status evaluation failed"})
			h.logger.Warn("ws status evaluation failed",
				zap.String("scheduledQuizId", scheduledQuizID), zap.Error(err))
			return
		}
		if err := conn.WriteJSON(statusMessage{Type: "status", Payload: status}); err != nil {
			return
		}
		if status.Status == domain.StatusHasFinished || status.Status == domain.StatusIsOver {
			// terminal; one final push then close
			return
		}

		select {
		case <-ticker.C:
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
