// Package testutil builds throwaway stores for package tests.
package testutil

import (
	"fmt"
	"testing"

	"restaurant-crm-api/config"
	"restaurant-crm-api/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory sqlite database with the full schema
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func SeedAccount(t testing.TB, db *gorm.DB, email, password string) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	account := &models.Account{
		Name:         "Seed " + email,
		Email:        email,
		Role:         "sales",
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func SeedRestaurant(t testing.TB, db *gorm.DB, name string) *models.Restaurant {
	t.Helper()
	r := &models.Restaurant{Name: name, Location: "Main Street 1"}
	require.NoError(t, db.Create(r).Error)
	return r
}

func SeedProduct(t testing.TB, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price}
	require.NoError(t, db.Create(p).Error)
	return p
}

func SeedContact(t testing.TB, db *gorm.DB, restaurantID uint, email string) *models.Contact {
	t.Helper()
	c := &models.Contact{
		RestaurantID: restaurantID,
		Name:         "Contact " + email,
		Email:        email,
		MobileNo:     "+10000000000",
		Role:         "manager",
	}
	require.NoError(t, db.Create(c).Error)
	return c
}
