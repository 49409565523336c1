package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The stream serves test tooling on trusted networks.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	defaultStreamInterval = time.Second
	minStreamInterval     = 100 * time.Millisecond
	streamWriteTimeout    = 10 * time.Second
)

// handleStream pushes freshly generated messages over a websocket, one
// text frame per message, until the client hangs up.
func (s *Server) handleStream(c *gin.Context) {
	messageType := c.Query("type")
	if messageType == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type query parameter is required"})
		return
	}

	interval := defaultStreamInterval
	if raw := c.Query("interval_ms"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "interval_ms must be a positive integer"})
			return
		}
		interval = time.Duration(ms) * time.Millisecond
		if interval < minStreamInterval {
			interval = minStreamInterval
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	// Drain control frames so pongs and the close handshake are seen.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.log.WithFields(logrus.Fields{
		"message_type":   messageType,
		"interval":       interval,
		"correlation_id": c.GetString("correlation_id"),
	}).Info("Message stream opened")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}

		bundle, err := s.bundles.Generate(c.Request.Context(), messageType, nil)
		if err != nil {
			s.log.WithError(err).Error("Bundle generation failed on stream")
			return
		}
		msg, err := s.composer.Compose(c.Request.Context(), messageType, bundle, nil)
		if err != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()))
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
	}
}
