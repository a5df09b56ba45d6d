package models

import (
	"time"
)

type Item struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Price       float64 `gorm:"type:decimal(10,2)" json:"price"`
	Stock       int     `gorm:"not null;default:0" json:"stock"`
	Description string  `gorm:"type:text" json:"description"`
	// Optional fulfillment pointer handed to the buyer on delivery.
	DriveLink string    `gorm:"type:text" json:"drive_link,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Item) TableName() string {
	return "items"
}
