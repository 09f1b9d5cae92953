package http

import (
	"context"

	"github.com/dkeye/VoiceCall/internal/adapters/signal"
	"github.com/dkeye/VoiceCall/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	sessionName     = "VoiceSessions"
	sessionTokenKey = "token"
	sessionUserKey  = "user"
)

// SessionTokenMiddleware exposes a logged-in session's token to the
// websocket handler, which runs outside the session's JSON handlers.
func SessionTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok, ok := sessions.Default(c).Get(sessionTokenKey).(string); ok && tok != "" {
			c.Set(signal.SessionTokenKey, tok)
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, api *API) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24, HttpOnly: true})
	r.Use(sessions.Sessions(sessionName, store))
	r.Use(SessionTokenMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})
	r.GET("/healthz", api.Health)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	apiGroup := r.Group("/api")
	apiGroup.GET("/ws/signal", func(c *gin.Context) {
		log.Debug().Str("module", "adapters.http").Str("remote", c.ClientIP()).Msg("ws signal endpoint hit")
		api.Gateway.HandleSignal(ctx, c)
	})
	apiGroup.GET("/users", api.ListUsers)
	apiGroup.GET("/users/online", api.OnlineUsers)
	apiGroup.GET("/me", api.Me)
	apiGroup.GET("/ice", api.ICE)
	apiGroup.POST("/auth/login", api.Login)
	apiGroup.POST("/auth/logout", api.Logout)

	return r
}
