package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"arbor-server/chat-api/internal/config"
	"arbor-server/chat-api/internal/interfaces/httpserver/routes/v1/chat"
	"arbor-server/chat-api/internal/interfaces/httpserver/routes/v1/conversation"
)

type V1Route struct {
	conversation *conversation.ConversationRoute
	branch       *conversation.BranchRoute
	chat         *chat.ChatCompletionRoute
}

func NewV1Route(
	conversationRoute *conversation.ConversationRoute,
	branchRoute *conversation.BranchRoute,
	chatRoute *chat.ChatCompletionRoute,
) *V1Route {
	return &V1Route{
		conversation: conversationRoute,
		branch:       branchRoute,
		chat:         chatRoute,
	}
}

func (v1Route *V1Route) RegisterRouter(router gin.IRouter) {
	v1Router := router.Group("/v1")
	v1Router.GET("/version", GetVersion)
	v1Router.GET("/healthz", GetHealthz)
	v1Router.GET("/readyz", GetReadyz)

	v1Route.conversation.RegisterRouter(v1Router)
	v1Route.branch.RegisterRouter(v1Router)
	v1Route.chat.RegisterRouter(v1Router)
}

// GetVersion returns the current build version of the API server.
func GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": config.Version})
}

// GetHealthz reports liveness for orchestrators and monitoring.
func GetHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetReadyz reports whether the service is ready to accept traffic.
func GetReadyz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
