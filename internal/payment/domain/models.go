package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
)

// Payment tracks one gateway invoice. The pending to paid transition
// happens at most once per invoice id.
type Payment struct {
	ID          snowflake.ID    `gorm:"primaryKey"`
	InvoiceID   int64           `gorm:"not null;uniqueIndex:ux_payments_invoice"`
	AccountID   string          `gorm:"type:varchar(191);not null;index"`
	PlanID      *string         `gorm:"type:varchar(64)"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description string          `gorm:"type:varchar(512)"`
	Status      Status          `gorm:"type:varchar(32);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
	UpdatedAt   time.Time       `gorm:"not null"`
	PaidAt      *time.Time
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

func (p Payment) IsPaid() bool { return p.Status == StatusPaid }

// Callback carries the gateway's result notification fields verbatim.
type Callback struct {
	OutSum    string
	InvoiceID string
	Signature string
}

// CreatePaymentRequest starts a checkout for a plan.
type CreatePaymentRequest struct {
	AccountID   string
	InvoiceID   int64
	Amount      decimal.Decimal
	Description string
	PlanID      string
}

type CreatePaymentResult struct {
	Payment    *Payment
	PaymentURL string
}
