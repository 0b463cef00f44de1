// Package services holds the workflows behind the HTTP API. Every workflow
// validates before it writes, and reports failures as *apperr.Error.
package services

import (
	"errors"
	"strings"

	"restaurant-crm-api/apperr"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

var validate = validator.New()

const (
	defaultLimit = 50
	maxLimit     = 200
)

// Page selects a slice of a listing; zero values fall back to defaults
type Page struct {
	Limit int
	Page  int
	Sort  string // "asc" or "desc"
}

func (p Page) limitOffset() (int, int) {
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func (p Page) direction() string {
	if strings.EqualFold(p.Sort, "asc") {
		return "ASC"
	}
	return "DESC"
}

// mustExist fails with NotFound when no row of model has the given id
func mustExist(db *gorm.DB, model interface{}, id uint, notFound string) error {
	var count int64
	if err := db.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperr.Internal("Something went wrong", err)
	}
	if count == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}

// storeError classifies an error coming out of gorm or a transaction body
func storeError(err error, notFound, internal string) error {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	default:
		return apperr.Internal(internal, err)
	}
}

func blank(fields ...string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			return true
		}
	}
	return false
}
