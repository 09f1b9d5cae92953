package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/VoiceCall/internal/adapters/auth"
	"github.com/dkeye/VoiceCall/internal/adapters/directory"
	"github.com/dkeye/VoiceCall/internal/adapters/signal"
	"github.com/dkeye/VoiceCall/internal/app/orch"
	"github.com/dkeye/VoiceCall/internal/domain"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

// API holds what the HTTP handlers need.
type API struct {
	Coord     *orch.Coordinator
	Gateway   *signal.Gateway
	Directory directory.Directory
	Tokens    *auth.Tokens
	ICEConfig webrtc.Configuration
}

type LoginRequest struct {
	UserID string `json:"userId" binding:"required,max=64"`
}

type LoginResponse struct {
	User  domain.UserProfile `json:"user"`
	Token string             `json:"token"`
}

type UserEntry struct {
	domain.UserProfile
	Online bool `json:"online"`
}

func (a *API) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userId"})
		return
	}
	profile, err := a.Directory.GetUser(c.Request.Context(), domain.UserID(req.UserID))
	if errors.Is(err, directory.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("login lookup")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "directory unavailable"})
		return
	}

	token, err := a.Tokens.Issue(profile.Identity())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot issue token"})
		return
	}

	s := sessions.Default(c)
	s.Set(sessionUserKey, string(profile.ID))
	s.Set(sessionTokenKey, token)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot save session"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", profile.ID.String()).Msg("login")
	c.JSON(http.StatusOK, LoginResponse{User: profile, Token: token})
}

// Logout clears the session and drops the user's signaling connection,
// which takes them offline and ends any call they are in.
func (a *API) Logout(c *gin.Context) {
	s := sessions.Default(c)
	uid, _ := s.Get(sessionUserKey).(string)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	disconnected := a.Coord.Logout(domain.UserID(uid))
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
	log.Info().Str("module", "adapters.http").Str("user", uid).Bool("disconnected", disconnected).Msg("logout")
	c.JSON(http.StatusOK, gin.H{"ok": true, "disconnected": disconnected})
}

func (a *API) Me(c *gin.Context) {
	uid, _ := sessions.Default(c).Get(sessionUserKey).(string)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not logged in"})
		return
	}
	profile, err := a.Directory.GetUser(c.Request.Context(), domain.UserID(uid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown user"})
		return
	}
	c.JSON(http.StatusOK, UserEntry{UserProfile: profile, Online: a.Coord.Registry.IsOnline(profile.ID)})
}

// ListUsers is the contacts list: every directory entry with its presence.
func (a *API) ListUsers(c *gin.Context) {
	users, err := a.Directory.ListUsers(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "directory unavailable"})
		return
	}
	out := make([]UserEntry, 0, len(users))
	for _, u := range users {
		out = append(out, UserEntry{UserProfile: u, Online: a.Coord.Registry.IsOnline(u.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (a *API) OnlineUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"onlineUsers": a.Coord.Online()})
}

func (a *API) ICE(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": a.ICEConfig.ICEServers})
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"online": a.Coord.Registry.Count(),
		"calls":  a.Coord.ActiveCalls(),
	})
}
