package models

import (
	"math"
	"time"
)

type CartStatus string

const (
	CartActive  CartStatus = "active"
	CartOrdered CartStatus = "ordered"
)

type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Status    CartStatus `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	OrderedAt *time.Time `json:"ordered_at,omitempty"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	Total     float64    `gorm:"-" json:"total"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
}

// RecalculateTotal sums quantity × price over the items. Items must have Plat loaded.
func (c *Cart) RecalculateTotal() float64 {
	var sum float64
	for i := range c.Items {
		sum += c.Items[i].Subtotal()
	}
	c.Total = math.Round(sum*100) / 100
	return c.Total
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}
