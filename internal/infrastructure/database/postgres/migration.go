// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/user"
	"gorm.io/gorm"
)

// Migration handles database schema management
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration handler
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{db: db}
}

// RunAutoMigrations creates or updates all application tables
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database migrations...")

	// Categories before products, orders before order items: FK order matters
	models := []interface{}{
		&user.User{},
		&product.Category{},
		&product.Product{},
		&cart.CartItem{},
		&order.Order{},
		&order.OrderItem{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	log.Println("Database migrations completed")
	return nil
}

// CreateIndexes creates supplementary indexes not covered by struct tags
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders (user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products (price)",
		"CREATE INDEX IF NOT EXISTS idx_products_name ON products (name)",
	}

	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}

// SeedInitialData populates a development database with a minimal catalog
func (m *Migration) SeedInitialData() error {
	var count int64
	if err := m.db.Model(&product.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check existing categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	log.Println("Seeding initial catalog data...")

	categories := []product.Category{
		{Name: "Electronics", Description: "Phones, laptops, and accessories"},
		{Name: "Fashion", Description: "Clothing and footwear"},
		{Name: "Home", Description: "Household goods"},
	}
	if err := m.db.Create(&categories).Error; err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	products := []product.Product{
		{Name: "Wireless Earbuds", Description: "Bluetooth 5.3 earbuds with charging case", Price: 25000, Stock: 40, CategoryID: categories[0].ID},
		{Name: "USB-C Charger", Description: "65W fast charger", Price: 12000, Stock: 100, CategoryID: categories[0].ID},
		{Name: "Canvas Sneakers", Description: "Unisex low-top sneakers", Price: 18000, Stock: 25, CategoryID: categories[1].ID},
		{Name: "Ceramic Mug Set", Description: "Set of four 350ml mugs", Price: 9000, Stock: 60, CategoryID: categories[2].ID},
	}
	if err := m.db.Create(&products).Error; err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	return nil
}
