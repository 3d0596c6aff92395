package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/catalog/application"
	"github.com/punjabheritage/storefront/internal/catalog/domain"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

type Handler struct {
	app *application.SyncService
}

// NewHandler registers the storefront and admin product routes. The
// storefront list is public; mutations require an admin token.
func NewHandler(r *gin.Engine, app *application.SyncService, jwtSecret string) {
	h := &Handler{app: app}

	r.GET("/v1/products", h.List)

	g := r.Group("/v1/admin/products")
	g.Use(middleware.GinAuth(jwtSecret), middleware.GinRequireRole("admin"))
	{
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
		g.POST("/sync", h.ForceSync)
	}
}

func (h *Handler) List(c *gin.Context) {
	products, err := h.app.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) Create(c *gin.Context) {
	var req domain.Product
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	saved, err := h.app.Add(c.Request.Context(), req)
	if errors.Is(err, domain.ErrInvalidProduct) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, domain.ErrNoStorage) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) Update(c *gin.Context) {
	var req domain.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.app.Update(c.Request.Context(), c.Param("id"), req)
	if errors.Is(err, domain.ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.app.Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) ForceSync(c *gin.Context) {
	report, err := h.app.ForceSync(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
