package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/punjabheritage/storefront/internal/auth"
	"github.com/punjabheritage/storefront/internal/order/application"
	"github.com/punjabheritage/storefront/internal/order/domain"
	"github.com/punjabheritage/storefront/pkg/middleware"
)

type Handler struct {
	app *application.Service
}

// NewHandler registers checkout and order-tracking routes plus the admin
// order management group. Checkout is open to guests; the auth middleware
// still runs so signed-in shoppers get their orders attributed.
func NewHandler(r *gin.Engine, app *application.Service, jwtSecret string) {
	h := &Handler{app: app}

	public := r.Group("/v1/orders")
	public.Use(middleware.GinAuth(jwtSecret))
	{
		public.POST("", h.Checkout)
		public.GET("/:number", h.Track)
	}

	admin := r.Group("/v1/admin/orders")
	admin.Use(middleware.GinAuth(jwtSecret), middleware.GinRequireRole("admin"))
	{
		admin.GET("", h.List)
		admin.PUT("/:id/status", h.UpdateStatus)
	}
}

type checkoutRequest struct {
	Customer        domain.Customer      `json:"customer" binding:"required"`
	ShippingAddress domain.Address       `json:"shippingAddress" binding:"required"`
	Items           []domain.LineItem    `json:"items" binding:"required"`
	PaymentMethod   domain.PaymentMethod `json:"paymentMethod" binding:"required"`
	Notes           string               `json:"notes"`
}

func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.app.Checkout(c.Request.Context(), application.CheckoutCommand{
		UserID:          auth.FromGin(c).UserID,
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		Items:           req.Items,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, order)
	case errors.Is(err, domain.ErrEmptyOrder),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidPayment):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoStorage):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *Handler) Track(c *gin.Context) {
	order, err := h.app.GetByNumber(c.Request.Context(), c.Param("number"))
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) List(c *gin.Context) {
	orders, err := h.app.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status         domain.Status `json:"status" binding:"required"`
		TrackingNumber string        `json:"trackingNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.app.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.TrackingNumber)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, order)
	case errors.Is(err, domain.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
