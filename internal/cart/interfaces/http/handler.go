package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/auth"
	"github.com/punjabheritage/storefront/internal/cart/application"
	"github.com/punjabheritage/storefront/internal/cart/domain"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

// Handler exposes the server cart over REST for clients that do not hold a
// real-time channel. Mutations mirror the channel protocol.
type Handler struct {
	app *application.CartService
}

func NewHandler(r *gin.Engine, app *application.CartService, jwtSecret string) {
	h := &Handler{app: app}

	g := r.Group("/v1/cart")
	g.Use(middleware.GinAuth(jwtSecret), middleware.GinRequireAuth())
	{
		g.GET("", h.Get)
		g.POST("/items", h.AddItem)
		g.PUT("/items", h.UpdateItem)
		g.DELETE("/items", h.RemoveItem)
		g.DELETE("", h.Clear)
	}
}

func (h *Handler) Get(c *gin.Context) {
	items, err := h.app.GetItems(c.Request.Context(), auth.FromGin(c).UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, items)
}

func (h *Handler) AddItem(c *gin.Context) {
	var req domain.Item
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.app.AddItem(c.Request.Context(), auth.FromGin(c).UserID, req)
	if h.failed(c, err) {
		return
	}
	h.respond(c, items)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	var req struct {
		ProductID string `json:"id" binding:"required"`
		Size      string `json:"size"`
		Color     string `json:"color"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := h.app.UpdateQuantity(c.Request.Context(), auth.FromGin(c).UserID, req.ProductID, req.Size, req.Color, req.Quantity)
	if h.failed(c, err) {
		return
	}
	h.respond(c, items)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	items, err := h.app.RemoveItem(c.Request.Context(), auth.FromGin(c).UserID,
		c.Query("id"), c.Query("size"), c.Query("color"))
	if h.failed(c, err) {
		return
	}
	h.respond(c, items)
}

func (h *Handler) Clear(c *gin.Context) {
	if err := h.app.Clear(c.Request.Context(), auth.FromGin(c).UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

func (h *Handler) respond(c *gin.Context, items []domain.Item) {
	count, total := domain.Totals(items)
	c.JSON(http.StatusOK, gin.H{"items": items, "itemCount": count, "total": total})
}

func (h *Handler) failed(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrInsufficientStock) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return true
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	return true
}
