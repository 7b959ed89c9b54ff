package chat

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
)

// maxWebhookPayloadSize bounds the inbound event body, mirroring the
// teacher's webhook handler's DoS-prevention limit for provider callbacks.
const maxWebhookPayloadSize = 65536

// WebhookHandler receives inbound chat provider events (messages and
// button-callback presses), authenticates the shared bearer token, and
// delegates to the command/callback dispatcher.
type WebhookHandler struct {
	handler  *Handler
	apiToken string
	logger   *zap.Logger
}

// NewWebhookHandler constructs a webhook handler. apiToken authenticates
// the inbound request via a bearer Authorization header; an empty token
// disables the check (development only).
func NewWebhookHandler(handler *Handler, apiToken string, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{handler: handler, apiToken: apiToken, logger: logger}
}

// WebhookResponse is the JSON envelope returned to the provider.
type WebhookResponse struct {
	Received bool     `json:"received"`
	Message  string   `json:"message,omitempty"`
	Reply    *Response `json:"reply,omitempty"`
}

// HandleWebhook reads, authenticates, and dispatches one inbound event.
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{Received: false, Message: "failed to read request body"})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, WebhookResponse{Received: false, Message: "payload too large"})
		return
	}

	if h.apiToken != "" {
		auth := c.GetHeader("Authorization")
		if auth != "Bearer "+h.apiToken {
			c.JSON(http.StatusUnauthorized, WebhookResponse{Received: false, Message: "invalid or missing bearer token"})
			return
		}
	}

	var event InboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, WebhookResponse{Received: false, Message: "malformed event payload"})
		return
	}

	ctx := c.Request.Context()
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			ctx, _ = logger.WithRequestID(ctx, h.logger, id)
		}
	}

	resp := h.handler.Handle(ctx, event)
	c.JSON(http.StatusOK, WebhookResponse{Received: true, Reply: &resp})
}
