package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"campus-assessment-service/internal/app"
	"campus-assessment-service/internal/domain"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service     *app.AssessmentService
	broadcaster *app.Broadcaster
	logger      *zap.Logger
	upgrader    websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, broadcaster *app.Broadcaster, logger *zap.Logger) *WSHandler {
	return &WSHandler{
		service:     service,
		broadcaster: broadcaster,
		logger:      logger,
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
}

type submitPayload struct {
	Answers json.RawMessage `json:"answers"`
}

type resultPayload struct {
	Result    domain.Result          `json:"result"`
	Breakdown []domain.QuestionScore `json:"breakdown"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ServeAttempt upgrades HTTP requests to websockets and drives one student's
// attempt lifecycle: start, answer events, and final submission.
func (h *WSHandler) ServeAttempt(w http.ResponseWriter, r *http.Request) {
	assessmentID := r.URL.Query().Get("assessmentId")
	userID := r.URL.Query().Get("userId")
	if assessmentID == "" || userID == "" {
		http.Error(w, "missing assessmentId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", zap.Error(err))
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			if err := h.service.StartAttempt(r.Context(), userID, assessmentID); err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "started"}
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload", Code: "malformed"}}
				continue
			}
			if err := h.service.RecordAnswer(r.Context(), userID, assessmentID, payload.QuestionID); err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "answerRecorded", Payload: answerPayload{QuestionID: payload.QuestionID}}
		case "submit":
			var payload submitPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid submit payload", Code: "malformed"}}
				continue
			}
			result, breakdown, err := h.service.Submit(r.Context(), userID, domain.Submission{
				AssessmentID: assessmentID,
				UserID:       userID,
				Answers:      payload.Answers,
			})
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: resultPayload{Result: result, Breakdown: breakdown}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type", Code: "malformed"}}
		}
	}

	close(send)
	<-writerDone
}

// ServeMonitor streams the live quiz-event feed for one assessment to an
// instructor dashboard. It is read-only; inbound frames are used solely to
// detect the peer closing.
func (h *WSHandler) ServeMonitor(w http.ResponseWriter, r *http.Request) {
	assessmentID := r.URL.Query().Get("assessmentId")
	if assessmentID == "" {
		http.Error(w, "missing assessmentId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	events, cancel := h.broadcaster.Subscribe(assessmentID)
	defer cancel()

	readerGone := make(chan struct{})
	go func() {
		defer close(readerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[domain.QuizEvent]{Type: "event", Payload: event}); err != nil {
				h.logger.Warn("ws write error", zap.Error(err))
				return
			}
		case <-readerGone:
			return
		}
	}
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error(), Code: errorCode(err)}}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotEnrolled), errors.Is(err, domain.ErrAssessmentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateStart), errors.Is(err, domain.ErrAlreadySubmitted), errors.Is(err, domain.ErrNotStarted):
		return "conflict"
	case errors.Is(err, domain.ErrSubmissionExpired):
		return "expired"
	case errors.Is(err, domain.ErrMalformedQuestionSet), errors.Is(err, domain.ErrMalformedAnswers):
		return "malformed"
	default:
		return "internal"
	}
}
