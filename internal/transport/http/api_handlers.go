package http

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsechat/internal/core"
	"github.com/vovakirdan/pulsechat/internal/proto"
)

// APIHandlers provides the plain HTTP endpoints next to the websocket.
type APIHandlers struct {
	hub       *core.Hub
	staticDir string
	log       *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, staticDir string, logger *zerolog.Logger) *APIHandlers {
	if staticDir == "" {
		staticDir = "."
	}
	return &APIHandlers{
		hub:       hub,
		staticDir: staticDir,
		log:       logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Index serves the page shell.
// GET /
func (h *APIHandlers) Index(c *gin.Context) {
	h.serveStatic(c, "index.html")
}

// Styles serves the stylesheet.
// GET /styles.css
func (h *APIHandlers) Styles(c *gin.Context) {
	h.serveStatic(c, "styles.css")
}

func (h *APIHandlers) serveStatic(c *gin.Context, name string) {
	path := filepath.Join(h.staticDir, name)
	if _, err := os.Stat(path); err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("static file unavailable")
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.File(path)
}

// Clear deletes every persisted message and reaction counter.
// POST /clear
func (h *APIHandlers) Clear(c *gin.Context) {
	if err := h.hub.Purge(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("failed to clear messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.String(http.StatusOK, "Messages cleared")
}

// Online returns the presence roster.
// GET /api/online
func (h *APIHandlers) Online(c *gin.Context) {
	c.JSON(http.StatusOK, onlineUsers(h.hub.Online()))
}

// Messages returns recent history in the load_messages shape.
// GET /api/messages?limit=N
func (h *APIHandlers) Messages(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	msgs, err := h.hub.History(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load messages")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, historyEntries(msgs))
}

// Reaction returns the current reaction counter of one message, in the update_react shape.
// GET /api/reactions/:id
func (h *APIHandlers) Reaction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "id must be a positive integer"})
		return
	}

	count, err := h.hub.ReactionCount(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("msg_id", id).Msg("failed to load reaction count")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, proto.UpdateReact{MsgID: id, Count: count})
}
