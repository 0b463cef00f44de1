package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/models"
	"restaurant-crm-api/statemachine"

	"gorm.io/gorm"
)

const orderBatchSize = 100

type LeadService struct {
	db *gorm.DB
}

func NewLeadService(db *gorm.DB) *LeadService {
	return &LeadService{db: db}
}

type OrderLineInput struct {
	ProductID  uint    `json:"product_id"`
	Quantity   int     `json:"quantity"`
	TotalPrice float64 `json:"total_price"`
}

func (o OrderLineInput) valid() bool {
	return o.ProductID != 0 && o.Quantity > 0 && o.TotalPrice > 0
}

type CreateLeadInput struct {
	Title         string           `json:"title" validate:"required"`
	CallFrequency string           `json:"call_frequency" validate:"required"`
	AssignedTo    uint             `json:"assigned_to" validate:"required"`
	RestaurantID  uint             `json:"restaurant_id" validate:"required"`
	TotalValue    float64          `json:"total_value" validate:"required,gt=0"`
	Orders        []OrderLineInput `json:"orders" validate:"required,min=1"`
}

// OrderLine is an order joined with its product name
type OrderLine struct {
	ID          uint               `json:"id"`
	ProductID   uint               `json:"product_id"`
	ProductName string             `json:"product_name"`
	Status      models.OrderStatus `json:"status"`
	Quantity    int                `json:"quantity"`
	TotalPrice  float64            `json:"total_price"`
	OrderedAt   time.Time          `json:"ordered_at"`
}

type AddCallInput struct {
	ContactID uint `json:"contact_id" validate:"required"`
	Duration  int  `json:"duration" validate:"required,gt=0"`
}

// CallEntry is a call joined with the caller's and the contact's names
type CallEntry struct {
	ID          uint      `json:"id"`
	CalledAt    time.Time `json:"called_at"`
	Duration    int       `json:"duration"`
	AccountName string    `json:"account_name"`
	ContactName string    `json:"contact_name"`
}

// Create persists a lead and its valid order lines in one transaction.
// Lines without a product, a positive quantity or a positive price are dropped.
func (s *LeadService) Create(ctx context.Context, in CreateLeadInput, creatorID uint) (*models.Lead, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CallFrequency = strings.TrimSpace(in.CallFrequency)
	if err := validate.Struct(in); err != nil {
		return nil, apperr.InvalidInput("Title, call frequency, assigned to, restaurant, orders and total value are required")
	}

	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Restaurant{}, in.RestaurantID, "Restaurant does not exist"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.Account{}, in.AssignedTo, "User does not exist"); err != nil {
		return nil, err
	}

	lines := make([]OrderLineInput, 0, len(in.Orders))
	for _, o := range in.Orders {
		if o.valid() {
			lines = append(lines, o)
		}
	}
	if len(lines) == 0 {
		return nil, apperr.InvalidInput("No valid orders found")
	}
	if err := s.productsExist(db, lines); err != nil {
		return nil, err
	}

	lead := models.Lead{
		Title:         in.Title,
		CallFrequency: in.CallFrequency,
		Status:        models.LeadOpen,
		TotalValue:    in.TotalValue,
		AssignedTo:    in.AssignedTo,
		AccountID:     creatorID,
		RestaurantID:  in.RestaurantID,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&lead).Error; err != nil {
			return err
		}
		if lead.ID == 0 {
			return errors.New("lead id was not generated")
		}

		orders := make([]models.Order, len(lines))
		for i, l := range lines {
			orders[i] = models.Order{
				LeadID:       lead.ID,
				ProductID:    l.ProductID,
				RestaurantID: in.RestaurantID,
				Quantity:     l.Quantity,
				TotalPrice:   l.TotalPrice,
				Status:       models.OrderPending,
			}
		}
		res := tx.CreateInBatches(&orders, orderBatchSize)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(orders)) {
			return fmt.Errorf("inserted %d of %d orders", res.RowsAffected, len(orders))
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("Something went wrong while creating lead", err)
	}
	return &lead, nil
}

func (s *LeadService) productsExist(db *gorm.DB, lines []OrderLineInput) error {
	seen := map[uint]bool{}
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	var count int64
	if err := db.Model(&models.Product{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return apperr.Internal("Something went wrong while creating lead", err)
	}
	if count != int64(len(ids)) {
		return apperr.NotFound("Product does not exist")
	}
	return nil
}

func (s *LeadService) Get(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	if err := s.db.WithContext(ctx).First(&lead, id).Error; err != nil {
		return nil, storeError(err, "Lead does not exist", "Something went wrong while fetching lead")
	}
	return &lead, nil
}

func (s *LeadService) List(ctx context.Context, page Page) ([]models.Lead, error) {
	limit, offset := page.limitOffset()
	leads := []models.Lead{}
	err := s.db.WithContext(ctx).
		Order("created_at " + page.direction()).Order("id " + page.direction()).
		Limit(limit).Offset(offset).
		Find(&leads).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while fetching leads", err)
	}
	return leads, nil
}

var errNotDeleted = errors.New("row still present after delete")

// Delete removes a lead together with its orders and calls
func (s *LeadService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Lead{}, id, "Lead does not exist"); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lead_id = ?", id).Delete(&models.Order{}).Error; err != nil {
			return err
		}
		if err := tx.Where("lead_id = ?", id).Delete(&models.Call{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Lead{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errNotDeleted
		}
		return nil
	})
	if err != nil {
		return apperr.Internal("Something went wrong while deleting lead", err)
	}
	return nil
}

// ListOrders returns the lead's order lines; an unknown lead is NotFound
func (s *LeadService) ListOrders(ctx context.Context, leadID uint) ([]OrderLine, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Lead{}, leadID, "Lead does not exist"); err != nil {
		return nil, err
	}
	lines := []OrderLine{}
	err := db.Table("orders").
		Select("orders.id, orders.product_id, products.name AS product_name, orders.status, orders.quantity, orders.total_price, orders.ordered_at").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("orders.lead_id = ?", leadID).
		Order("orders.id").
		Scan(&lines).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while fetching orders", err)
	}
	return lines, nil
}

func (s *LeadService) AddCall(ctx context.Context, leadID uint, in AddCallInput, callerID uint) (*models.Call, error) {
	if err := validate.Struct(in); err != nil {
		return nil, apperr.InvalidInput("Contact id and duration are required")
	}
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Lead{}, leadID, "Lead does not exist"); err != nil {
		return nil, err
	}
	if err := mustExist(db, &models.Contact{}, in.ContactID, "Contact does not exist"); err != nil {
		return nil, err
	}

	call := models.Call{
		AccountID: callerID,
		ContactID: in.ContactID,
		LeadID:    leadID,
		Duration:  in.Duration,
	}
	if err := db.Create(&call).Error; err != nil {
		return nil, apperr.Internal("Something went wrong while adding call", err)
	}
	if call.ID == 0 {
		return nil, apperr.Internal("Something went wrong while adding call", errors.New("call id was not generated"))
	}
	return &call, nil
}

func (s *LeadService) ListCalls(ctx context.Context, leadID uint) ([]CallEntry, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Lead{}, leadID, "Lead does not exist"); err != nil {
		return nil, err
	}
	calls := []CallEntry{}
	err := db.Table("calls").
		Select("calls.id, calls.called_at, calls.duration, accounts.name AS account_name, contacts.name AS contact_name").
		Joins("JOIN contacts ON contacts.id = calls.contact_id").
		Joins("JOIN accounts ON accounts.id = calls.account_id").
		Where("calls.lead_id = ?", leadID).
		Order("calls.called_at DESC").Order("calls.id DESC").
		Scan(&calls).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while fetching calls", err)
	}
	return calls, nil
}

var errStatusMismatch = errors.New("stored status differs from requested status")

// SetStatus moves a lead to done or cancelled. The stored value is re-read
// inside the same transaction and the update is rolled back if it differs.
func (s *LeadService) SetStatus(ctx context.Context, leadID uint, raw string) (*models.Lead, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, apperr.InvalidInput("Status is required")
	}
	status, err := statemachine.ParseStatus(raw)
	if err != nil {
		return nil, apperr.InvalidInput("Wrong status")
	}

	var lead models.Lead
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lead, leadID).Error; err != nil {
			return err
		}
		if err := statemachine.CanTransition(lead.Status, status); err != nil {
			return apperr.InvalidInput(err.Error())
		}
		if err := tx.Model(&models.Lead{}).Where("id = ?", leadID).Update("status", status).Error; err != nil {
			return err
		}
		var stored models.Lead
		if err := tx.Select("id", "status").First(&stored, leadID).Error; err != nil {
			return err
		}
		if stored.Status != status {
			return errStatusMismatch
		}
		lead.Status = stored.Status
		return nil
	})
	if err != nil {
		return nil, storeError(err, "Lead does not exist", "Something went wrong while updating status")
	}
	return &lead, nil
}
