package models

import "time"

// LeadStatus represents the lifecycle of a sales lead
type LeadStatus string

const (
	LeadOpen      LeadStatus = "open"
	LeadDone      LeadStatus = "done"
	LeadCancelled LeadStatus = "cancelled"
)

// OrderStatus of a single order line
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
)

type Lead struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	Title         string      `json:"title" gorm:"not null"`
	CallFrequency string      `json:"call_frequency" gorm:"not null"`
	Status        LeadStatus  `json:"status" gorm:"not null;default:'open'"`
	TotalValue    float64     `json:"total_value" gorm:"not null"`
	AssignedTo    uint        `json:"assigned_to" gorm:"not null;index"`
	AccountID     uint        `json:"account_id" gorm:"not null;index"` // creator
	RestaurantID  uint        `json:"restaurant_id" gorm:"not null;index"`
	Restaurant    *Restaurant `json:"restaurant,omitempty" gorm:"foreignKey:RestaurantID"`
	Orders        []Order     `json:"orders,omitempty" gorm:"foreignKey:LeadID"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Order is one line item of a lead; it is never created on its own
type Order struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	LeadID       uint        `json:"lead_id" gorm:"not null;index"`
	ProductID    uint        `json:"product_id" gorm:"not null"`
	Product      *Product    `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	RestaurantID uint        `json:"restaurant_id" gorm:"not null"`
	Quantity     int         `json:"quantity" gorm:"not null"`
	TotalPrice   float64     `json:"total_price" gorm:"not null"`
	Status       OrderStatus `json:"status" gorm:"not null;default:'pending'"`
	OrderedAt    time.Time   `json:"ordered_at" gorm:"autoCreateTime"`
}

// Call is an append-only log entry of a phone call made for a lead
type Call struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	AccountID uint      `json:"account_id" gorm:"not null;index"`
	ContactID uint      `json:"contact_id" gorm:"not null"`
	LeadID    uint      `json:"lead_id" gorm:"not null;index"`
	Duration  int       `json:"duration"` // seconds
	CalledAt  time.Time `json:"called_at" gorm:"autoCreateTime"`
}
