// internal/domain/cart/service.go
package cart

import (
	"errors"
	"fmt"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// Cart errors
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrItemNotFound      = errors.New("item not found in cart")
)

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new cart service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// AddToCartRequest represents add to cart request
type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

// CartItemResponse represents a cart item with product details
type CartItemResponse struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Product   *product.Product `json:"product,omitempty"`
}

// CartResponse represents a shopping cart with items and totals
type CartResponse struct {
	UserID        uint               `json:"user_id"`
	Items         []CartItemResponse `json:"items"`
	TotalQuantity int                `json:"total_quantity"`
	SubTotal      int64              `json:"sub_total"`
}

// AddToCart adds a product to the user's cart, merging quantities when the
// product is already present.
func (s *Service) AddToCart(userID uint, req *AddToCartRequest) (*CartItem, error) {
	var prod product.Product
	if err := s.db.First(&prod, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	var existing CartItem
	err := s.db.Where("user_id = ? AND product_id = ?", userID, req.ProductID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !prod.InStock(req.Quantity) {
			return nil, fmt.Errorf("%w: available %d", ErrInsufficientStock, prod.Stock)
		}
		item := CartItem{
			UserID:    userID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		}
		if err := s.db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("failed to add item to cart: %w", err)
		}
		return &item, nil

	case err != nil:
		return nil, fmt.Errorf("failed to look up cart item: %w", err)

	default:
		newQuantity := existing.Quantity + req.Quantity
		if !prod.InStock(newQuantity) {
			return nil, fmt.Errorf("%w: available %d", ErrInsufficientStock, prod.Stock)
		}
		existing.Quantity = newQuantity
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		return &existing, nil
	}
}

// GetCart retrieves the user's cart with product details and totals
func (s *Service) GetCart(userID uint) (*CartResponse, error) {
	var items []CartItem
	if err := s.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}

	response := &CartResponse{
		UserID: userID,
		Items:  make([]CartItemResponse, 0, len(items)),
	}

	for _, item := range items {
		resp := CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}

		var prod product.Product
		if err := s.db.First(&prod, item.ProductID).Error; err == nil {
			resp.Product = &prod
			response.SubTotal += prod.Price * int64(item.Quantity)
		}

		response.TotalQuantity += item.Quantity
		response.Items = append(response.Items, resp)
	}

	return response, nil
}

// RemoveItem deletes one cart line owned by the user
func (s *Service) RemoveItem(userID, itemID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", itemID, userID).Delete(&CartItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to remove cart item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// ClearCart removes all cart lines for the user
func (s *Service) ClearCart(userID uint) error {
	return s.db.Where("user_id = ?", userID).Delete(&CartItem{}).Error
}
