package models

import "time"

type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;uniqueIndex:idx_cart_plat" json:"cart_id"`
	PlatID    uint      `gorm:"not null;uniqueIndex:idx_cart_plat" json:"plat_id"`
	Plat      *Plat     `gorm:"foreignKey:PlatID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"plat,omitempty"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (i *CartItem) Subtotal() float64 {
	if i.Plat == nil {
		return 0
	}
	return float64(i.Quantity) * i.Plat.Price
}
