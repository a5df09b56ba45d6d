package models

import (
	"time"
)

// Order status values. Transitions are forward only:
// pending -> paid -> delivered, with pending -> cancelled as the
// single terminal branch. No status is ever skipped.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

type Order struct {
	ID         int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64   `gorm:"not null;index" json:"user_id"`
	ItemID     int64   `gorm:"not null;index" json:"item_id"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	TotalPrice float64 `gorm:"type:decimal(10,2)" json:"total_price"`
	// Amount due in LTC. Currently mirrors TotalPrice; kept as its
	// own column so a conversion rate can be introduced later without
	// touching historical orders.
	LTCAmount       float64 `gorm:"column:ltc_amount;type:decimal(10,2)" json:"ltc_amount"`
	Status          string  `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ConfirmationKey string  `gorm:"type:varchar(16)" json:"confirmation_key"`
	// Set once an administrator has confirmed the incoming payment.
	// No blockchain check happens anywhere; this is a human assertion.
	PaymentConfirmed bool       `gorm:"default:false" json:"payment_confirmed"`
	KeySubmittedAt   *time.Time `json:"key_submitted_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// CanTransition reports whether an order may move between the two
// statuses. paid, delivered and cancelled accept no further moves.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusPaid || to == StatusCancelled
	case StatusPaid:
		return to == StatusDelivered
	default:
		return false
	}
}
