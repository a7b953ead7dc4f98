package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nerdscourt/canon-core/internal/model"
	"github.com/nerdscourt/canon-core/internal/persona"
	"github.com/nerdscourt/canon-core/internal/router"
	"github.com/nerdscourt/canon-core/internal/trial"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Access is already gated by the API key.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsRequest struct {
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload"`
}

type wsResponse struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func wsError(msg string) wsResponse {
	return wsResponse{Status: "error", Message: msg}
}

func (s *Server) serveWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already replied.
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := s.logger.With(zap.String("remote", conn.RemoteAddr().String()))
	log.Info("websocket connected")

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(conn, done, log)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read", zap.Error(err))
			}
			log.Info("websocket closed")
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		resp := s.handleCommand(msg)
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("websocket write", zap.Error(err))
			return
		}
	}
}

// pingLoop keeps idle clients inside the read deadline. WriteControl may run
// alongside the reader's writes.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}, log *zap.Logger) {
	ticker := time.NewTicker(s.pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("websocket ping", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) handleCommand(msg []byte) wsResponse {
	var req wsRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		s.metrics.wsMessages.WithLabelValues("invalid", "error").Inc()
		return wsError("Invalid JSON")
	}
	if req.Command == "" {
		s.metrics.wsMessages.WithLabelValues("missing", "error").Inc()
		return wsError("Missing command")
	}
	payload := req.Payload
	if len(payload) == 0 || string(payload) == "null" {
		payload = json.RawMessage("{}")
	}

	resp := s.runCommand(req.Command, payload)
	s.metrics.wsMessages.WithLabelValues(metricCommand(req.Command), resp.Status).Inc()
	return resp
}

func (s *Server) runCommand(command string, payload json.RawMessage) wsResponse {
	switch command {
	case "create_persona":
		var seed model.PersonaSeed
		if err := json.Unmarshal(payload, &seed); err != nil {
			return wsError(err.Error())
		}
		return wsResponse{Status: "success", Data: persona.Synthesize(seed)}

	case "create_trial":
		var req generateTrialRequest
		if err := json.Unmarshal(payload, &req); err != nil {
			return wsError(err.Error())
		}
		if req.Title == "" {
			req.Title = "Untitled Trial"
		}
		record := trial.Synthesize(trial.Params{
			Title:        req.Title,
			Plaintiffs:   req.Plaintiffs,
			Defendants:   req.Defendants,
			Charges:      req.Charges,
			Tone:         req.Tone,
			LinkedRecord: req.LinkedRecord,
		})
		return wsResponse{Status: "success", Data: record}

	case "get_model":
		var profile model.AgentProfile
		if err := json.Unmarshal(payload, &profile); err != nil {
			return wsError(err.Error())
		}
		return wsResponse{Status: "success", Data: map[string]string{"model": router.MatchModel(profile)}}

	default:
		return wsError("Unknown command")
	}
}

// metricCommand keeps label cardinality bounded.
func metricCommand(cmd string) string {
	switch cmd {
	case "create_persona", "create_trial", "get_model":
		return cmd
	}
	return "unknown"
}
