package chat

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar mirrors the teacher router package's registration
// interface so this transport plugs into the same Router.Register flow.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Routes registers the single webhook endpoint the chat provider calls.
type Routes struct {
	webhook *WebhookHandler
}

// NewRoutes constructs the chat transport's route registrar.
func NewRoutes(webhook *WebhookHandler) *Routes {
	return &Routes{webhook: webhook}
}

// RegisterRoutes implements RouteRegistrar.
func (r *Routes) RegisterRoutes(rg *gin.RouterGroup) {
	chat := rg.Group("/chat")
	chat.POST("/webhook", r.webhook.HandleWebhook)
}
