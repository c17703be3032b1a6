package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	streamHeartbeatEvent    = "heartbeat"
	streamHeartbeatInterval = 30 * time.Second
	streamSource            = "margin-backend"
)

type streamEventPayload struct {
	AnnotationID   string `json:"annotationId,omitempty"`
	NotificationID string `json:"notificationId,omitempty"`
	Timestamp      int64  `json:"timestamp"`
	Source         string `json:"source"`
}

// handleEventStream streams core signals to the consumer as server-sent
// events: annotation-change, notification-added, and annotation-reveal, plus
// periodic heartbeats so intermediaries keep the connection open.
func (h *httpHandler) handleEventStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming_unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	stream, cleanup := h.events.Subscribe(c.Request.Context())
	defer cleanup()

	heartbeat := time.NewTicker(streamHeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if err := writeStreamEvent(c, streamHeartbeatEvent, streamEventPayload{
				Timestamp: time.Now().UTC().Unix(),
				Source:    streamSource,
			}); err != nil {
				return
			}
			flusher.Flush()
		case message, open := <-stream:
			if !open {
				return
			}
			if err := writeStreamEvent(c, message.EventType, streamEventPayload{
				AnnotationID:   message.AnnotationID,
				NotificationID: message.NotificationID,
				Timestamp:      message.Timestamp.Unix(),
				Source:         streamSource,
			}); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeStreamEvent(c *gin.Context, eventType string, payload streamEventPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventType, data)
	return err
}
