package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-result-service/internal/app"
	"quiz-result-service/internal/domain"
)

// DefaultTickInterval is how often a live attempt's timer is pushed to the client.
const DefaultTickInterval = time.Second

// WSHandler runs one live attempt per websocket connection. The attempt
// survives a dropped connection and can be resumed with ?attemptId=.
type WSHandler struct {
	service      *app.ResultService
	upgrader     websocket.Upgrader
	tickInterval time.Duration
	log          *zap.Logger
}

func NewWSHandler(service *app.ResultService, tickInterval time.Duration, log *zap.Logger) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service:      service,
		tickInterval: tickInterval,
		log:          log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and drives the attempt: inbound "answer" and
// "submit"; outbound "started", "progress", "tick", "result" and "error".
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quizID, userID, attemptID := q.Get("quizId"), q.Get("userId"), q.Get("attemptId")
	if attemptID == "" && (quizID == "" || userID == "") {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	var started domain.AttemptProgress
	if attemptID != "" {
		started, err = h.service.Tick(ctx, attemptID)
	} else {
		started, err = h.service.StartAttempt(ctx, quizID, userID)
	}
	if err != nil {
		_, payload := classify(err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}
	attemptID = started.AttemptID

	updates, cancel, err := h.service.Subscribe(ctx, attemptID)
	if err != nil {
		_, payload := classify(err)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}
	defer cancel()
	// the subscription opens with a snapshot; "started" already carries it
	if _, ok := <-updates; !ok {
		_, payload := classify(domain.ErrAttemptNotFound)
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: payload})
		return
	}

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", zap.String("attemptId", attemptID), zap.Error(err))
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		answered := started.Answered
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				typ := "tick"
				if update.Answered != answered {
					typ = "progress"
					answered = update.Answered
				}
				select {
				case send <- outboundMessage[any]{Type: typ, Payload: update}:
				case <-closeSignals:
					return
				}
			case <-ticker.C:
				// the update arrives through the subscription
				if _, err := h.service.Tick(ctx, attemptID); err != nil {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: started}

	sendError := func(err error) {
		_, payload := classify(err)
		send <- outboundMessage[any]{Type: "error", Payload: payload}
	}

loop:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionID == "" || payload.OptionID == "" {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "invalid_request", Message: "invalid answer payload"}}
				continue
			}
			if _, err := h.service.RecordAnswer(ctx, attemptID, payload.QuestionID, payload.OptionID); err != nil {
				sendError(err)
			}
		case "submit":
			result, err := h.service.Submit(ctx, attemptID)
			if err != nil {
				sendError(err)
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
			break loop
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: "invalid_request", Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
