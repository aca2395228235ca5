// internal/domain/product/service_test.go
package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Category{}, &Product{}))
	return db
}

func seedCatalog(t *testing.T, db *gorm.DB) (Category, []Product) {
	t.Helper()

	category := Category{Name: "Stationery"}
	require.NoError(t, db.Create(&category).Error)

	other := Category{Name: "Electronics"}
	require.NoError(t, db.Create(&other).Error)

	products := []Product{
		{Name: "Blue Pen", Description: "Ballpoint pen", Price: 200, Stock: 100, CategoryID: category.ID},
		{Name: "Red Pen", Description: "Ballpoint pen", Price: 250, Stock: 50, CategoryID: category.ID},
		{Name: "Notebook", Description: "A5 ruled notebook", Price: 1500, Stock: 30, CategoryID: category.ID},
		{Name: "USB Drive", Description: "32GB flash drive", Price: 4500, Stock: 10, CategoryID: other.ID},
	}
	require.NoError(t, db.Create(&products).Error)

	return category, products
}

func TestGetProduct(t *testing.T) {
	db := newTestDB(t)
	_, products := seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	prod, err := svc.GetProduct(context.Background(), products[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Pen", prod.Name)

	_, err = svc.GetProduct(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestSearch_ByQuery(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	resp, err := svc.Search(&SearchRequest{Query: "pen", Page: 1, PerPage: 10, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, int64(2), resp.Total)
	assert.Equal(t, "Blue Pen", resp.Products[0].Name)
	assert.Equal(t, "Red Pen", resp.Products[1].Name)
}

func TestSearch_ByCategoryAndPrice(t *testing.T) {
	db := newTestDB(t)
	category, _ := seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	minPrice := int64(250)
	resp, err := svc.Search(&SearchRequest{
		CategoryID: category.ID,
		MinPrice:   &minPrice,
		Page:       1,
		PerPage:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Total)

	maxPrice := int64(300)
	resp, err = svc.Search(&SearchRequest{
		CategoryID: category.ID,
		MinPrice:   &minPrice,
		MaxPrice:   &maxPrice,
		Page:       1,
		PerPage:    10,
	})
	require.NoError(t, err)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Red Pen", resp.Products[0].Name)
}

func TestSearch_Pagination(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	resp, err := svc.Search(&SearchRequest{Page: 1, PerPage: 3, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 3)
	assert.Equal(t, int64(4), resp.Total)
	assert.Equal(t, 2, resp.Pages)

	resp, err = svc.Search(&SearchRequest{Page: 2, PerPage: 3, SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Len(t, resp.Products, 1)
	assert.Equal(t, 2, resp.CurrentPage)
}

func TestSearch_UnknownSortFieldFallsBack(t *testing.T) {
	db := newTestDB(t)
	seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	// A hostile sort field must not reach the ORDER BY clause
	resp, err := svc.Search(&SearchRequest{Page: 1, PerPage: 10, SortBy: "price; DROP TABLE products", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.Total)
}

func TestCreateProduct(t *testing.T) {
	db := newTestDB(t)
	category, _ := seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	prod, err := svc.CreateProduct(&CreateProductRequest{
		Name:        "Stapler",
		Description: "Desktop stapler",
		Price:       2200,
		Stock:       15,
		CategoryID:  category.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, prod.ID)

	_, err = svc.CreateProduct(&CreateProductRequest{
		Name: "Broken", Description: "x", Price: -1, CategoryID: category.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.CreateProduct(&CreateProductRequest{
		Name: "Broken", Description: "x", Price: 100, Stock: -1, CategoryID: category.ID,
	})
	assert.ErrorIs(t, err, ErrInvalidStock)

	_, err = svc.CreateProduct(&CreateProductRequest{
		Name: "Orphan", Description: "x", Price: 100, CategoryID: 9999,
	})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestUpdateProduct(t *testing.T) {
	db := newTestDB(t)
	_, products := seedCatalog(t, db)
	svc := NewService(db, nil, &config.Config{})

	newPrice := int64(300)
	newStock := 80
	prod, err := svc.UpdateProduct(context.Background(), products[0].ID, &UpdateProductRequest{
		Price: &newPrice,
		Stock: &newStock,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(300), prod.Price)
	assert.Equal(t, 80, prod.Stock)
	// Untouched fields survive a partial update
	assert.Equal(t, "Blue Pen", prod.Name)

	badPrice := int64(-5)
	_, err = svc.UpdateProduct(context.Background(), products[0].ID, &UpdateProductRequest{Price: &badPrice})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.UpdateProduct(context.Background(), 9999, &UpdateProductRequest{Price: &newPrice})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCategoryService(t *testing.T) {
	db := newTestDB(t)
	svc := NewCategoryService(db)

	created, err := svc.CreateCategory(&CreateCategoryRequest{Name: "Books", Description: "Printed books"})
	require.NoError(t, err)

	fetched, err := svc.GetCategory(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Books", fetched.Name)

	categories, err := svc.GetCategories()
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	_, err = svc.GetCategory(9999)
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}
