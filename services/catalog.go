package services

import (
	"context"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/models"

	"gorm.io/gorm"
)

// ProductService is read-only; the catalog is maintained outside this API
type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("id").Find(&products).Error; err != nil {
		return nil, apperr.Internal("Something went wrong while fetching products", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, storeError(err, "Product does not exist", "Something went wrong while fetching product")
	}
	return &product, nil
}

type OrderService struct {
	db *gorm.DB
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

func (s *OrderService) List(ctx context.Context, page Page) ([]models.Order, error) {
	limit, offset := page.limitOffset()
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Order("ordered_at " + page.direction()).Order("id " + page.direction()).
		Limit(limit).Offset(offset).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while fetching orders", err)
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).Preload("Product").First(&order, id).Error; err != nil {
		return nil, storeError(err, "Order does not exist", "Something went wrong while fetching order")
	}
	return &order, nil
}
