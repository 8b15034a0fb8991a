// Package api exposes the REST surface and mounts the live socket
// endpoint on the same server.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"social-live/auth"
	"social-live/observability"
	"social-live/projection"
	"social-live/realtime"
	"social-live/search"
	"social-live/services"
)

type Handlers struct {
	log      *slog.Logger
	auths    services.IAuthService
	chats    services.IChatService
	media    services.IMediaService
	index    *search.Index
	activity *projection.Activity
	monitor  *observability.Monitor
	gateway  *realtime.Gateway
}

func NewHandlers(log *slog.Logger, auths services.IAuthService,
	chats services.IChatService, media services.IMediaService,
	index *search.Index, activity *projection.Activity,
	monitor *observability.Monitor, gateway *realtime.Gateway) *Handlers {
	return &Handlers{
		log:      log,
		auths:    auths,
		chats:    chats,
		media:    media,
		index:    index,
		activity: activity,
		monitor:  monitor,
		gateway:  gateway,
	}
}

// Router wires every route. All chat and media routes sit behind the
// bearer token middleware; the socket endpoint authenticates its own
// handshake before upgrading.
func (h *Handlers) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/auth/register", h.register)
	router.POST("/auth/login", h.login)
	router.GET("/ws", gin.WrapF(h.gateway.Handle))

	authorized := router.Group("/", auth.Middleware())
	{
		authorized.POST("/chat/new", h.createDirectChat)
		authorized.POST("/chat/group", h.createGroupChat)
		authorized.GET("/chat/fetch", h.fetchChats)
		authorized.GET("/chat/:chatId/messages", h.messages)
		authorized.GET("/chat/:chatId/search", h.searchMessages)
		authorized.POST("/media/upload", h.uploadMedia)
		authorized.GET("/media/:type/:id", h.downloadMedia)
		authorized.GET("/debug/stats", h.stats)
	}
	return router
}
