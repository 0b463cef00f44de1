package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"restaurant-crm-api/apperr"
	"restaurant-crm-api/models"

	"gorm.io/gorm"
)

type RestaurantService struct {
	db *gorm.DB
}

func NewRestaurantService(db *gorm.DB) *RestaurantService {
	return &RestaurantService{db: db}
}

type ContactInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	MobileNo string `json:"mobile_no"`
	Role     string `json:"role"`
}

func (c ContactInput) trimmed() ContactInput {
	return ContactInput{
		Name:     strings.TrimSpace(c.Name),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		MobileNo: strings.TrimSpace(c.MobileNo),
		Role:     strings.TrimSpace(c.Role),
	}
}

func (c ContactInput) complete() bool {
	return !blank(c.Name, c.Email, c.MobileNo, c.Role)
}

type CreateRestaurantInput struct {
	Name     string         `json:"name"`
	Location string         `json:"location"`
	Contacts []ContactInput `json:"contacts"`
}

func (s *RestaurantService) List(ctx context.Context, page Page) ([]models.Restaurant, error) {
	limit, offset := page.limitOffset()
	restaurants := []models.Restaurant{}
	err := s.db.WithContext(ctx).Order("name").Order("id").Limit(limit).Offset(offset).Find(&restaurants).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while fetching restaurants", err)
	}
	return restaurants, nil
}

func (s *RestaurantService) Get(ctx context.Context, id uint) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).First(&restaurant, id).Error; err != nil {
		return nil, storeError(err, "Restaurant does not exist", "Something went wrong while fetching restaurant")
	}
	return &restaurant, nil
}

// Create inserts a restaurant with its contacts. Incomplete contacts and
// repeated emails within the request are skipped.
func (s *RestaurantService) Create(ctx context.Context, in CreateRestaurantInput) (*models.Restaurant, error) {
	if blank(in.Name, in.Location) {
		return nil, apperr.InvalidInput("Name and location are required")
	}
	restaurant := models.Restaurant{
		Name:     strings.TrimSpace(in.Name),
		Location: strings.TrimSpace(in.Location),
	}

	seen := map[string]bool{}
	for _, c := range in.Contacts {
		c = c.trimmed()
		if !c.complete() || seen[c.Email] {
			continue
		}
		seen[c.Email] = true
		restaurant.Contacts = append(restaurant.Contacts, models.Contact{
			Name:     c.Name,
			Email:    c.Email,
			MobileNo: c.MobileNo,
			Role:     c.Role,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// contacts are inserted through the has-many association
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		if restaurant.ID == 0 {
			return errors.New("restaurant id was not generated")
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal("Something went wrong while creating restaurant", err)
	}
	return &restaurant, nil
}

func (s *RestaurantService) AddContact(ctx context.Context, restaurantID uint, in ContactInput) (*models.Contact, error) {
	in = in.trimmed()
	if !in.complete() {
		return nil, apperr.InvalidInput("Name, email, mobile number and role are required")
	}
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Restaurant{}, restaurantID, "Restaurant does not exist"); err != nil {
		return nil, err
	}

	var count int64
	err := db.Model(&models.Contact{}).
		Where("restaurant_id = ? AND email = ?", restaurantID, in.Email).
		Count(&count).Error
	if err != nil {
		return nil, apperr.Internal("Something went wrong while creating contact", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("Contact with same email already exist")
	}

	contact := models.Contact{
		RestaurantID: restaurantID,
		Name:         in.Name,
		Email:        in.Email,
		MobileNo:     in.MobileNo,
		Role:         in.Role,
	}
	if err := db.Create(&contact).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("Contact with same email already exist")
		}
		return nil, apperr.Internal("Something went wrong while creating contact", err)
	}
	return &contact, nil
}

func (s *RestaurantService) ListContacts(ctx context.Context, restaurantID uint) ([]models.Contact, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Restaurant{}, restaurantID, "Restaurant does not exist"); err != nil {
		return nil, err
	}
	contacts := []models.Contact{}
	if err := db.Where("restaurant_id = ?", restaurantID).Order("id").Find(&contacts).Error; err != nil {
		return nil, apperr.Internal("Something went wrong while fetching contacts", err)
	}
	return contacts, nil
}

// Delete refuses to remove a restaurant that still owns leads
func (s *RestaurantService) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &models.Restaurant{}, id, "Restaurant does not exist"); err != nil {
		return err
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		var leads []models.Lead
		if err := tx.Select("id").Where("restaurant_id = ?", id).Order("id").Limit(1).Find(&leads).Error; err != nil {
			return err
		}
		if len(leads) > 0 {
			return apperr.Conflict(fmt.Sprintf("Cannot delete the restaurant, delete lead with id %d first", leads[0].ID))
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Contact{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Restaurant{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errNotDeleted
		}
		return nil
	})
	if err != nil {
		return storeError(err, "Restaurant does not exist", "Something went wrong while deleting restaurant")
	}
	return nil
}
