// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"gorm.io/gorm"
)

// Gateway abstracts the payment processor consumed by the workflow
type Gateway interface {
	CreateSession(ctx context.Context, req *payment.SessionRequest) (*payment.Session, error)
	VerifyTransaction(ctx context.Context, txRef string) (*payment.VerifyResult, error)
}

// Service orchestrates the order workflow: cart snapshotting, payment session
// initiation, and payment verification/reconciliation.
type Service struct {
	db      *gorm.DB
	config  *config.Config
	gateway Gateway
	logger  *logrus.Logger

	// Serializes checkout per user so two racing requests cannot consume the
	// same cart lines into two orders.
	mu        sync.Mutex
	userLocks map[uint]*sync.Mutex
}

// NewService creates a new order service
func NewService(db *gorm.DB, cfg *config.Config, gateway Gateway, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		db:        db,
		config:    cfg,
		gateway:   gateway,
		logger:    logger,
		userLocks: make(map[uint]*sync.Mutex),
	}
}

// CreateOrderRequest represents order creation data
type CreateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
	Email           string `json:"email,omitempty"`
	Phone           string `json:"phone,omitempty"`
}

// CheckoutResponse carries the persisted order and the payment redirect link
type CheckoutResponse struct {
	Order       *Order `json:"order"`
	PaymentLink string `json:"payment_link"`
}

// OrderListResponse represents the admin order listing with pagination
type OrderListResponse struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// CreateOrder converts the user's cart into an immutable order and initiates a
// payment session. On gateway failure nothing is persisted and the cart stays
// intact; cart lines are deleted only after the order transaction commits.
func (s *Service) CreateOrder(ctx context.Context, userID uint, req *CreateOrderRequest) (*CheckoutResponse, error) {
	lock := s.lockFor(userID)
	lock.Lock()
	defer lock.Unlock()

	var usr user.User
	if err := s.db.First(&usr, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d not found", userID)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var cartItems []cart.CartItem
	if err := s.db.Where("user_id = ?", userID).Find(&cartItems).Error; err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return nil, ErrEmptyCart
	}

	// Resolve current catalog prices. The price at purchase is locked in now,
	// not at add-to-cart time.
	orderItems, itemTotal, err := s.snapshotCart(cartItems)
	if err != nil {
		return nil, err
	}
	totalAmount := itemTotal + s.config.Checkout.DeliveryFee

	reference := s.generatePaymentReference()

	shippingAddress := req.ShippingAddress
	if shippingAddress == "" {
		shippingAddress = usr.Address
	}
	customerEmail := req.Email
	if customerEmail == "" {
		customerEmail = usr.Email
	}
	customerPhone := req.Phone
	if customerPhone == "" {
		customerPhone = usr.Phone
	}

	session, err := s.gateway.CreateSession(ctx, &payment.SessionRequest{
		TxRef:    reference,
		Amount:   totalAmount,
		Currency: s.config.Checkout.Currency,
		Customer: payment.Customer{
			Email:       customerEmail,
			PhoneNumber: customerPhone,
			Name:        usr.GetFullName(),
		},
		Customizations: payment.Customizations{
			Title:       "Store Order Payment",
			Description: "Payment for items in cart",
		},
	})
	if err != nil {
		// Abort without creating any order or touching the cart
		return nil, fmt.Errorf("payment initialization failed: %w", err)
	}

	newOrder := Order{
		UserID:           userID,
		TotalAmount:      totalAmount,
		Status:           OrderStatusPending,
		ShippingAddress:  shippingAddress,
		PaymentReference: reference,
		Items:            orderItems,
	}

	// Order and its items commit or roll back together; an order without
	// items must never become visible.
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&newOrder).Error
	}); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// The order is the source of truth from here on. A failed cart cleanup is
	// a recoverable inconsistency, not a payment-correctness problem.
	if err := s.db.Where("user_id = ?", userID).Delete(&cart.CartItem{}).Error; err != nil {
		s.logger.WithFields(logrus.Fields{
			"user_id":  userID,
			"order_id": newOrder.ID,
		}).WithError(err).Warn("failed to clear cart after order creation")
	}

	return &CheckoutResponse{
		Order:       &newOrder,
		PaymentLink: session.Link,
	}, nil
}

// VerifyPayment reconciles the gateway's transaction status against the order
// correlated with the given reference. Verifying an already-completed order is
// an idempotent success with no side effects.
func (s *Service) VerifyPayment(ctx context.Context, reference string) error {
	result, err := s.gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrVerificationFailed, err)
	}

	// Locate the order before acting on the reported status so an unknown
	// reference is answered consistently whatever the gateway claims.
	var o Order
	if err := s.db.Where("payment_reference = ?", reference).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to look up order: %w", err)
	}

	if !result.Successful() {
		return fmt.Errorf("%w: gateway status %q", ErrPaymentNotSuccessful, result.Status)
	}

	if o.Status == OrderStatusCompleted {
		return nil
	}

	if err := s.db.Model(&o).Update("status", OrderStatusCompleted).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return nil
}

// GetUserOrders retrieves the user's orders with their items, newest first
func (s *Service) GetUserOrders(userID uint) ([]Order, error) {
	var orders []Order
	err := s.db.
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves a single order by ID
func (s *Service) GetOrder(id uint) (*Order, error) {
	var o Order
	err := s.db.Preload("Items").First(&o, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// UpdateStatus sets the fulfillment status of an order. This is the admin
// operation, independent of payment verification.
func (s *Service) UpdateStatus(orderID uint, status OrderStatus) error {
	status = OrderStatus(strings.ToLower(string(status)))
	if !IsValidFulfillmentStatus(status) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var o Order
	if err := s.db.First(&o, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to look up order: %w", err)
	}

	if err := s.db.Model(&o).Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return nil
}

// ListOrders retrieves all orders with pagination, for the admin view
func (s *Service) ListOrders(page, limit int) (*OrderListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := s.db.Model(&Order{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := s.db.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &OrderListResponse{
		Orders: orders,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

// Private helper methods

// snapshotCart resolves current catalog prices for every cart line and builds
// the immutable order items plus the item subtotal.
func (s *Service) snapshotCart(cartItems []cart.CartItem) ([]OrderItem, int64, error) {
	orderItems := make([]OrderItem, 0, len(cartItems))
	var itemTotal int64

	for _, item := range cartItems {
		var prod product.Product
		if err := s.db.First(&prod, item.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("product %d no longer exists", item.ProductID)
			}
			return nil, 0, fmt.Errorf("failed to resolve product %d: %w", item.ProductID, err)
		}

		orderItems = append(orderItems, OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: prod.Price,
		})
		itemTotal += prod.Price * int64(item.Quantity)
	}

	return orderItems, itemTotal, nil
}

// generatePaymentReference builds a unique correlation token for one gateway
// transaction. The uuid suffix keeps same-second checkouts distinct; the
// unique index on payment_reference backstops the generator.
func (s *Service) generatePaymentReference() string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("order_%s_%s", time.Now().UTC().Format("20060102150405"), suffix)
}

// lockFor returns the checkout mutex for one user
func (s *Service) lockFor(userID uint) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}
