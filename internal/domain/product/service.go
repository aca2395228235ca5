// internal/domain/product/service.go
package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
)

// Catalog errors
var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrInvalidPrice     = errors.New("invalid price")
	ErrInvalidStock     = errors.New("invalid stock")
)

const productCacheTTL = 5 * time.Minute

// Service handles catalog business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new product service. redisClient may be nil, in which
// case product reads skip the cache.
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// CreateProductRequest represents admin product creation data
type CreateProductRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description" binding:"required"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	CategoryID  uint   `json:"category_id" binding:"required"`
	ImageURL    string `json:"image_url"`
}

// UpdateProductRequest represents admin product update data; nil fields keep
// their current value.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Stock       *int    `json:"stock"`
	ImageURL    *string `json:"image_url"`
}

// SearchRequest represents catalog search query parameters
type SearchRequest struct {
	Query      string `form:"q"`
	CategoryID uint   `form:"category_id"`
	MinPrice   *int64 `form:"min_price"`
	MaxPrice   *int64 `form:"max_price"`
	Page       int    `form:"page,default=1"`
	PerPage    int    `form:"per_page,default=10"`
	SortBy     string `form:"sort_by,default=created_at"`
	SortOrder  string `form:"sort_order,default=desc"`
}

// SearchResponse represents paginated search results
type SearchResponse struct {
	Products    []Product `json:"products"`
	Total       int64     `json:"total"`
	Pages       int       `json:"pages"`
	CurrentPage int       `json:"current_page"`
}

// GetProducts retrieves all catalog products
func (s *Service) GetProducts() ([]Product, error) {
	var products []Product
	if err := s.db.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}
	return products, nil
}

// GetProduct retrieves a single product by ID, read-through cached in Redis
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	if cached := s.cacheGet(ctx, id); cached != nil {
		return cached, nil
	}

	var prod Product
	if err := s.db.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}

	s.cacheSet(ctx, &prod)
	return &prod, nil
}

// Search filters, sorts, and paginates the catalog
func (s *Service) Search(req *SearchRequest) (*SearchResponse, error) {
	if req.Page < 1 || req.PerPage < 1 {
		return &SearchResponse{Products: []Product{}, CurrentPage: req.Page}, nil
	}

	query := s.db.Model(&Product{})

	if req.Query != "" {
		term := "%" + strings.ToLower(req.Query) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}
	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}
	if req.MinPrice != nil {
		query = query.Where("price >= ?", *req.MinPrice)
	}
	if req.MaxPrice != nil {
		query = query.Where("price <= ?", *req.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(buildSortClause(req.SortBy, req.SortOrder))

	var products []Product
	offset := (req.Page - 1) * req.PerPage
	if err := query.Preload("Category").Offset(offset).Limit(req.PerPage).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	pages := int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	return &SearchResponse{
		Products:    products,
		Total:       total,
		Pages:       pages,
		CurrentPage: req.Page,
	}, nil
}

// CreateProduct creates a new catalog product (admin operation)
func (s *Service) CreateProduct(req *CreateProductRequest) (*Product, error) {
	if req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, ErrInvalidStock
	}

	var category Category
	if err := s.db.First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to look up category: %w", err)
	}

	prod := Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		ImageURL:    req.ImageURL,
	}
	if err := s.db.Create(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &prod, nil
}

// UpdateProduct applies a partial update to a product (admin operation)
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *UpdateProductRequest) (*Product, error) {
	var prod Product
	if err := s.db.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}

	if req.Price != nil && *req.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, ErrInvalidStock
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		prod.ImageURL = *req.ImageURL
	}

	if err := s.db.Save(&prod).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.cacheInvalidate(ctx, id)
	return &prod, nil
}

// Cache helpers

func (s *Service) cacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

func (s *Service) cacheGet(ctx context.Context, id uint) *Product {
	if s.redisClient == nil {
		return nil
	}
	data, err := s.redisClient.Get(ctx, s.cacheKey(id)).Result()
	if err != nil {
		return nil
	}
	var prod Product
	if err := json.Unmarshal([]byte(data), &prod); err != nil {
		return nil
	}
	return &prod
}

func (s *Service) cacheSet(ctx context.Context, prod *Product) {
	if s.redisClient == nil {
		return
	}
	data, err := json.Marshal(prod)
	if err != nil {
		return
	}
	// Best effort; a cache miss on the next read is acceptable
	s.redisClient.Set(ctx, s.cacheKey(prod.ID), data, productCacheTTL)
}

func (s *Service) cacheInvalidate(ctx context.Context, id uint) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(ctx, s.cacheKey(id))
}

func buildSortClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"price":      true,
		"created_at": true,
		"name":       true,
	}
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}
	return fmt.Sprintf("%s %s", sortBy, sortOrder)
}
