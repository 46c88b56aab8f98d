package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"userapi/internal/middleware"
	"userapi/internal/models"
	"userapi/internal/service"
)

type UserHandler interface {
	Create(c *gin.Context)
	List(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

type userHandler struct {
	users service.UserService
	log   *zap.Logger
}

func NewUserHandler(users service.UserService, log *zap.Logger) UserHandler {
	return &userHandler{users: users, log: log}
}

// Create handles POST /users
func (h *userHandler) Create(c *gin.Context) {
	var req models.UserSchema
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug("Invalid registration payload", zap.Error(err))
		badRequest(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user.Public())
}

// List handles GET /users?offset=&limit=
func (h *userHandler) List(c *gin.Context) {
	page := models.NewFilterPage()
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	users, err := h.users.List(c.Request.Context(), page)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.NewUserList(users))
}

// Get handles GET /users/:id
func (h *userHandler) Get(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	user, err := h.users.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// Update handles PUT /users/:id
func (h *userHandler) Update(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	var req models.UserSchema
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), middleware.CurrentUser(c), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user.Public())
}

// Delete handles DELETE /users/:id
func (h *userHandler) Delete(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}

	if err := h.users.Delete(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, models.Message{Message: fmt.Sprintf("User %d deleted", id)})
}

func userID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return 0, false
	}
	return id, true
}
