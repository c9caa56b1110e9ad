package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// FindByInvoiceForUpdate returns nil when the invoice is unknown.
	FindByInvoiceForUpdate(ctx context.Context, db *gorm.DB, invoiceID int64) (*Payment, error)
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	Save(ctx context.Context, db *gorm.DB, payment *Payment) error
}
