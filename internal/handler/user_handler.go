package handler

import (
	"net/http"
	"strconv"

	"propelize/internal/apperr"
	"propelize/internal/middleware"
	"propelize/internal/model"
	"propelize/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler handles authentication and user management requests
type UserHandler struct {
	auth  service.AuthService
	users service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(auth service.AuthService, users service.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (int, error) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, apperr.Validation(MsgInvalidRequest, name+" must be a positive integer")
	}
	return id, nil
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "user created successfully",
		"user":    user,
	})
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	user, tokens, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"user":    user,
		"tokens":  tokens,
	})
}

func (h *UserHandler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	tokens, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "token refreshed successfully",
		"tokens":  tokens,
	})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.MissingCredential(middleware.MsgAuthenticationRequired))
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), actor, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(apperr.MissingCredential(middleware.MsgAuthenticationRequired))
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req model.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	user, err := h.users.UpdateUser(c.Request.Context(), actor, id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "user updated successfully",
		"user":    user,
	})
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	if err := h.users.DeleteUser(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterUserRoutes registers auth and user routes
func (h *UserHandler) RegisterUserRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	users := rg.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/refresh-token", h.RefreshToken)
	}

	protected := users.Group("")
	protected.Use(authMW)
	{
		protected.GET("", middleware.AdminOnly(), h.ListUsers)
		protected.GET("/:id", middleware.AnyRole(), h.GetUser)
		protected.PUT("/:id", middleware.AnyRole(), h.UpdateUser)
		protected.DELETE("/:id", middleware.AdminOnly(), h.DeleteUser)
	}
}
