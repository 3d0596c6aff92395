package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/admin/application"
	"github.com/punjabheritage/storefront/internal/admin/domain"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

type Handler struct {
	app       *application.AdminService
	analytics *application.AnalyticsService
}

func NewHandler(r *gin.Engine, app *application.AdminService, analytics *application.AnalyticsService, jwtSecret string) {
	h := &Handler{app: app, analytics: analytics}

	// The login route is the only unauthenticated surface; throttle it.
	loginLimiter := middleware.NewRateLimiter(10, 0.5)
	r.POST("/v1/admin/login", middleware.GinRateLimit(loginLimiter), h.Login)

	g := r.Group("/v1/admin")
	g.Use(middleware.GinAuth(jwtSecret), middleware.GinRequireRole("admin"))
	{
		g.POST("/accounts", h.CreateAccount)
		g.GET("/analytics", h.Analytics)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.app.Login(c.Request.Context(), application.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if errors.Is(err, domain.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, token)
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.app.CreateAdmin(c.Request.Context(), application.CreateAdminCommand{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"id": admin.ID, "username": admin.Username, "role": admin.Role})
	case errors.Is(err, domain.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) Analytics(c *gin.Context) {
	summary, err := h.analytics.Summary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
