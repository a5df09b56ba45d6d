package models

import (
	"time"
)

// BannedUser blocks order creation for a user while the row exists.
// Existing orders are unaffected; the row is removed only by an
// explicit unban.
type BannedUser struct {
	UserID   int64     `gorm:"primaryKey" json:"user_id"`
	BannedAt time.Time `json:"banned_at"`
	Reason   string    `gorm:"type:text" json:"reason,omitempty"`
}

func (BannedUser) TableName() string {
	return "banned_users"
}
