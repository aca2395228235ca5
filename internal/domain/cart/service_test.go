// internal/domain/cart/service_test.go
package cart

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&product.Category{}, &product.Product{}, &CartItem{}))

	return NewService(db, &config.Config{}), db
}

func seedProduct(t *testing.T, db *gorm.DB, price int64, stock int) product.Product {
	t.Helper()
	prod := product.Product{
		Name:        "Notebook",
		Description: "A5 ruled notebook",
		Price:       price,
		Stock:       stock,
	}
	require.NoError(t, db.Create(&prod).Error)
	return prod
}

func TestAddToCart(t *testing.T) {
	svc, db := newTestService(t)
	prod := seedProduct(t, db, 1500, 5)

	item, err := svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	// Adding the same product again merges into one line
	item, err = svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, item.Quantity)

	var count int64
	require.NoError(t, db.Model(&CartItem{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddToCart_ProductNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: 42, Quantity: 1})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAddToCart_InsufficientStock(t *testing.T) {
	svc, db := newTestService(t)
	prod := seedProduct(t, db, 1500, 2)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 3})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Merged quantity past the stock level is rejected too
	_, err = svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestGetCart(t *testing.T) {
	svc, db := newTestService(t)
	first := seedProduct(t, db, 1500, 5)
	second := seedProduct(t, db, 700, 5)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: first.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = svc.AddToCart(1, &AddToCartRequest{ProductID: second.ID, Quantity: 1})
	require.NoError(t, err)

	resp, err := svc.GetCart(1)
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 3, resp.TotalQuantity)
	assert.Equal(t, int64(3700), resp.SubTotal)
	require.NotNil(t, resp.Items[0].Product)
	assert.Equal(t, first.Name, resp.Items[0].Product.Name)

	// Empty cart yields an empty, not nil, items slice
	resp, err = svc.GetCart(2)
	require.NoError(t, err)
	assert.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
	assert.Zero(t, resp.SubTotal)
}

func TestRemoveItem(t *testing.T) {
	svc, db := newTestService(t)
	prod := seedProduct(t, db, 1500, 5)

	item, err := svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 1})
	require.NoError(t, err)

	// Another user cannot delete someone else's line
	assert.ErrorIs(t, svc.RemoveItem(2, item.ID), ErrItemNotFound)

	require.NoError(t, svc.RemoveItem(1, item.ID))
	assert.ErrorIs(t, svc.RemoveItem(1, item.ID), ErrItemNotFound)
}

func TestClearCart(t *testing.T) {
	svc, db := newTestService(t)
	prod := seedProduct(t, db, 1500, 5)

	_, err := svc.AddToCart(1, &AddToCartRequest{ProductID: prod.ID, Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.ClearCart(1))

	var count int64
	require.NoError(t, db.Model(&CartItem{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Zero(t, count)
}
