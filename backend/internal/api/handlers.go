package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/service"
)

type handlers struct {
	users  Users
	logger *zap.Logger
}

// ============================================================================
// Requests
// ============================================================================

type createUserRequest struct {
	Username string           `json:"username" binding:"required,max=100"`
	Age      *int             `json:"age" binding:"required,min=0,max=150"`
	Hobbies  []string         `json:"hobbies" binding:"omitempty,max=50"`
	Position *domain.Position `json:"position"`
}

type updateUserRequest struct {
	Username *string          `json:"username" binding:"omitempty,min=1,max=100"`
	Age      *int             `json:"age" binding:"omitempty,min=0,max=150"`
	Hobbies  []string         `json:"hobbies" binding:"omitempty,max=50"`
	Position *domain.Position `json:"position"`
}

type linkRequest struct {
	FriendID string `json:"friendId" binding:"required"`
}

type positionRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

// ============================================================================
// Handlers
// ============================================================================

func (h *handlers) health(c *gin.Context) {
	report := h.users.Health(c.Request.Context())
	if !report.Healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "checks": report.Checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "checks": report.Checks})
}

func (h *handlers) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Username: req.Username,
		Age:      *req.Age,
		Hobbies:  req.Hobbies,
		Position: req.Position,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// listUsers returns every user, or a page when any paging parameter is present
func (h *handlers) listUsers(c *gin.Context) {
	_, hasPage := c.GetQuery("page")
	_, hasLimit := c.GetQuery("limit")
	_, hasSearch := c.GetQuery("search")
	if hasPage || hasLimit || hasSearch {
		h.paginatedUsers(c)
		return
	}

	users, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handlers) paginatedUsers(c *gin.Context) {
	result, err := h.users.List(c.Request.Context(), service.ListParams{
		Page:   queryInt(c, "page", 1),
		Limit:  queryInt(c, "limit", service.DefaultUsersLimit),
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) getUser(c *gin.Context) {
	user, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), service.UpdateUserInput{
		Username: req.Username,
		Age:      req.Age,
		Hobbies:  req.Hobbies,
		Position: req.Position,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) updatePosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, err)
		return
	}

	user, err := h.users.UpdatePosition(c.Request.Context(), c.Param("id"), domain.Position{X: *req.X, Y: *req.Y})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handlers) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *handlers) linkUsers(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "friendId is required in the body"})
		return
	}

	if err := h.users.Link(c.Request.Context(), c.Param("id"), req.FriendID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users linked successfully"})
}

func (h *handlers) unlinkUsers(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "friendId is required in the body"})
		return
	}

	if err := h.users.Unlink(c.Request.Context(), c.Param("id"), req.FriendID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Users unlinked successfully"})
}

func (h *handlers) graph(c *gin.Context) {
	result, err := h.users.Graph(c.Request.Context(), service.GraphParams{
		Page:               queryInt(c, "page", 1),
		Limit:              queryInt(c, "limit", service.DefaultGraphLimit),
		IncludeConnections: c.Query("includeConnections") != "false",
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// queryInt parses a positive integer query parameter, falling back on
// absent, malformed or non-positive values
func queryInt(c *gin.Context, key string, fallback int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
