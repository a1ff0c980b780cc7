package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pdxirc/internal/core"
)

// APIHandlers serves read-only snapshots of the hub.
type APIHandlers struct {
	hub *core.Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// ChannelResponse describes one channel.
type ChannelResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ChannelsResponse is the body of GET /api/channels.
type ChannelsResponse struct {
	Channels []ChannelResponse `json:"channels"`
}

// UsersResponse is the body of GET /api/channels/:name/users.
// CreatedAt is set only when the channel catalog is enabled.
type UsersResponse struct {
	Channel   string     `json:"channel"`
	Users     []string   `json:"users"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Channels int `json:"channels"`
	Sessions int `json:"sessions"`
	Members  int `json:"members"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Health reports liveness.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// Channels lists every channel with its members.
// GET /api/channels
func (h *APIHandlers) Channels(c *gin.Context) {
	infos := h.hub.Channels()

	resp := ChannelsResponse{Channels: make([]ChannelResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Channels = append(resp.Channels, ChannelResponse{Name: info.Name, Members: info.Members})
	}
	c.JSON(http.StatusOK, resp)
}

// ChannelUsers lists the members of one channel.
// GET /api/channels/:name/users
func (h *APIHandlers) ChannelUsers(c *gin.Context) {
	name := c.Param("name")

	detail, err := h.hub.ChannelDetail(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, core.ErrChannelNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found", Code: core.Code(err)})
			return
		}
		h.log.Error().Err(err).Str("channel", name).Msg("failed to list channel users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := UsersResponse{Channel: detail.Name, Users: detail.Members}
	if !detail.CreatedAt.IsZero() {
		resp.CreatedAt = &detail.CreatedAt
	}
	c.JSON(http.StatusOK, resp)
}

// Stats reports registry counts.
// GET /api/stats
func (h *APIHandlers) Stats(c *gin.Context) {
	st := h.hub.Stats()
	c.JSON(http.StatusOK, StatsResponse{
		Channels: st.Channels,
		Sessions: st.Sessions,
		Members:  st.Members,
	})
}
