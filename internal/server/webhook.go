package server

import (
	"io"
	"net/http"

	"github.com/Sourasish2503/churn-buster-v9/internal/webhook"
	"github.com/gin-gonic/gin"
)

// maxWebhookBody bounds inbound webhook payloads.
const maxWebhookBody = 1 << 20

// HandlePlatformWebhook verifies and dispatches one platform delivery.
// The raw body is read before any parsing: the signature covers the
// exact bytes on the wire.
func (s *Server) HandlePlatformWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	signature := c.GetHeader(webhook.SignatureHeader)
	if err := s.dispatcher.Dispatch(c.Request.Context(), signature, body); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
