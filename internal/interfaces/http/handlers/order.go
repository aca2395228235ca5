// internal/interfaces/http/handlers/order.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/pdf"
	"gorm.io/gorm"
)

// OrderHandler handles the checkout and payment verification endpoints
type OrderHandler struct {
	db           *gorm.DB
	orderService *order.Service
	pdfService   *pdf.Service
	config       *config.Config
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *OrderHandler {
	gateway := payment.NewService(cfg)
	return &OrderHandler{
		db:           db,
		orderService: order.NewService(db, cfg, gateway, logger),
		pdfService:   pdf.NewService(cfg),
		config:       cfg,
	}
}

// CreateOrder handles POST /orders. It snapshots the cart into an order and
// returns the payment link the client should redirect to.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req order.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Shipping address is required",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Your cart is empty"})
		case errors.Is(err, payment.ErrGatewayUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider is unavailable, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Order created successfully",
		"order":        response.Order,
		"payment_link": response.PaymentLink,
	})
}

// VerifyPayment handles GET /orders/verify-payment?tx_ref=...
// This is the redirect target after the customer completes checkout on the
// payment provider's page.
func (h *OrderHandler) VerifyPayment(c *gin.Context) {
	reference := c.Query("tx_ref")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tx_ref query parameter is required"})
		return
	}

	err := h.orderService.VerifyPayment(c.Request.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrOrderNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No order matches this payment reference"})
		case errors.Is(err, order.ErrPaymentNotSuccessful):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Payment was not successful"})
		case errors.Is(err, order.ErrVerificationFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Could not verify payment, please try again"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Payment verified successfully",
		"reference": reference,
	})
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	orders, err := h.orderService.GetUserOrders(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	o, ok := h.loadOwnOrder(c, userID)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": o})
}

// DownloadInvoice handles GET /orders/:id/invoice
func (h *OrderHandler) DownloadInvoice(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	o, ok := h.loadOwnOrder(c, userID)
	if !ok {
		return
	}

	var usr user.User
	if err := h.db.First(&usr, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load customer details"})
		return
	}

	productNames, err := h.resolveProductNames(o)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order details"})
		return
	}

	buf, err := h.pdfService.GenerateInvoice(o, &usr, productNames)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invoice"})
		return
	}

	filename := fmt.Sprintf("invoice-%d.pdf", o.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// loadOwnOrder parses the :id param, loads the order, and enforces ownership.
// It writes the error response itself and reports success via the bool.
func (h *OrderHandler) loadOwnOrder(c *gin.Context, userID uint) (*order.Order, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return nil, false
	}

	o, err := h.orderService.GetOrder(uint(id))
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve order"})
		return nil, false
	}

	// Hide other users' orders rather than admitting they exist
	if o.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil, false
	}

	return o, true
}

func (h *OrderHandler) resolveProductNames(o *order.Order) (map[uint]string, error) {
	ids := make([]uint, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ProductID)
	}

	var products []product.Product
	if err := h.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}

	names := make(map[uint]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}
	return names, nil
}
