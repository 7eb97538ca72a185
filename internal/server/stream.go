package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// maxStreamDelay bounds ?delay= on the stream endpoint.
const maxStreamDelay = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 64 * 1024,
}

// handleStream pushes one snapshot per step over a websocket until the
// search finishes or the client goes away.
func (s *Server) handleStream(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	delay := time.Duration(0)
	if raw := c.Query("delay"); raw != "" {
		ms, err := strconv.Atoi(raw)
		if err != nil || ms < 0 || time.Duration(ms)*time.Millisecond > maxStreamDelay {
			c.JSON(http.StatusBadRequest, gin.H{"error": "delay must be between 0 and " + strconv.Itoa(int(maxStreamDelay.Milliseconds())) + " ms"})
			return
		}
		delay = time.Duration(ms) * time.Millisecond
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer ws.Close()

	// The client only sends close frames; reading notices them.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		sess.mu.Lock()
		snapshot, err := sess.stepper.Step()
		sess.mu.Unlock()
		if err != nil {
			_ = ws.WriteJSON(gin.H{"error": err.Error()})
			return
		}
		if err := ws.WriteJSON(newStepResponse(snapshot)); err != nil {
			s.logger.Debug("stream closed", "err", err)
			return
		}
		if snapshot.Done {
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
			return
		}

		select {
		case <-gone:
			return
		case <-c.Request.Context().Done():
			return
		case <-time.After(delay):
		}
	}
}
