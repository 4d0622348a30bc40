package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/zhakasov-bm/lms-backend/internal/cache"
	"github.com/zhakasov-bm/lms-backend/internal/model"
	"github.com/zhakasov-bm/lms-backend/internal/service"
	ws "github.com/zhakasov-bm/lms-backend/internal/websocket"
)

const snapshotSize = 50

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams attempt activity of a quiz to staff over WebSocket.
type MonitorHandler struct {
	feed     *cache.AttemptFeed
	snapshot func(ctx context.Context, quizID int64) ([]model.Attempt, int, error)
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(feed *cache.AttemptFeed, attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		feed: feed,
		snapshot: func(ctx context.Context, quizID int64) ([]model.Attempt, int, error) {
			return attemptService.ListAttempts(ctx, quizID, 1, snapshotSize)
		},
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// MonitorQuiz godoc
// GET /api/v1/quiz/:quizId/monitor  (WebSocket, ?token=... accepted)
// Sends a snapshot of recent attempts, then every start, reset and submit.
func (h *MonitorHandler) MonitorQuiz(c *gin.Context) {
	quizID, ok := paramID(c, "quizId")
	if !ok {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Subscribe before reading the snapshot so no event falls between the
	// two. An attempt may then show up in both; clients key on attemptId.
	pubsub, err := h.feed.SubscribeConfirmed(ctx, quizID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	defer pubsub.Close()
	events := pubsub.Channel()

	// Resolve before upgrading so a missing quiz is a plain 404.
	attempts, total, err := h.snapshot(ctx, quizID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	if err := ws.WriteTyped(conn, ws.SnapshotResponse{
		Event:    ws.EventSnapshot,
		QuizID:   quizID,
		Total:    total,
		Attempts: attempts,
	}); err != nil {
		return
	}

	// Reader: the only goroutine that reads from conn. Writes stay on this one.
	actions := make(chan ws.Action, 4)
	ws.KeepAlive(conn)
	go func() {
		defer cancel()
		for {
			var env ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &env); err != nil {
				return
			}
			select {
			case actions <- env.Action:
			default:
			}
		}
	}()

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()

	h.log.Info().Int64("quiz_id", quizID).Msg("Monitor attached")
	defer h.log.Info().Int64("quiz_id", quizID).Msg("Monitor detached")

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-events:
			if !ok {
				return
			}
			var ev model.AttemptEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				h.log.Warn().Err(err).Msg("Dropping malformed attempt event")
				continue
			}
			if err := ws.WriteTyped(conn, ws.AttemptResponse{Event: ws.EventAttempt, Attempt: ev}); err != nil {
				return
			}

		case action := <-actions:
			if action != ws.ActionPing {
				err = ws.WriteError(conn, "unknown action: "+string(action))
			} else {
				err = ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			if err := ws.WritePing(conn); err != nil {
				return
			}
		}
	}
}
