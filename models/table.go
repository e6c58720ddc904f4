package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Table struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TableNumber string    `gorm:"type:varchar(50);not null" json:"table_number"`
	NumberKey   string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"-"`
	Capacity    int       `gorm:"not null;default:1" json:"capacity"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null" json:"updated_at"`
}

func (t *Table) BeforeSave(tx *gorm.DB) error {
	t.TableNumber = strings.TrimSpace(t.TableNumber)
	t.NumberKey = NormalizeKey(t.TableNumber)
	return nil
}
