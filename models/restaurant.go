package models

import "time"

type Restaurant struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Location  string    `json:"location" gorm:"not null"`
	Contacts  []Contact `json:"contacts,omitempty" gorm:"foreignKey:RestaurantID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contact email is unique per restaurant, not globally
type Contact struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RestaurantID uint      `json:"restaurant_id" gorm:"not null;uniqueIndex:idx_contact_restaurant_email"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"size:191;not null;uniqueIndex:idx_contact_restaurant_email"`
	MobileNo     string    `json:"mobile_no" gorm:"not null"`
	Role         string    `json:"role" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at"`
}
