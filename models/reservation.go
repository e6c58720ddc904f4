package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

// TerminalReservationStatuses never block a table.
var TerminalReservationStatuses = []ReservationStatus{ReservationCancelled, ReservationCompleted}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

type Reservation struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	TableID   uint              `gorm:"not null;index:idx_reservation_table_start" json:"table_id"`
	Table     *Table            `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	UserID    uint              `gorm:"not null;index" json:"user_id"`
	User      *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"user,omitempty"`
	TimeStart time.Time         `gorm:"not null;index:idx_reservation_table_start" json:"time_start"`
	TimeEnd   time.Time         `gorm:"not null" json:"time_end"`
	Status    ReservationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null" json:"updated_at"`
}

// Overlaps uses half-open [start, end) semantics, so touching intervals do not overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.TimeStart.Before(end) && r.TimeEnd.After(start)
}
