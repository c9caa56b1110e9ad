package domain

import (
	"context"
	"errors"
)

type Service interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
	// Reconcile applies a gateway result notification and returns the
	// acknowledgment string the gateway expects.
	Reconcile(ctx context.Context, cb Callback) (string, error)
}

var (
	ErrGatewayNotConfigured = errors.New("gateway_not_configured")
	ErrInvalidSignature     = errors.New("invalid_signature")
	ErrInvalidPayload       = errors.New("invalid_payload")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidInvoice       = errors.New("invalid_invoice")
	ErrPaymentNotFound      = errors.New("payment_not_found")
	ErrPaymentForbidden     = errors.New("payment_forbidden")
	// ErrAlreadyPaid is internal to reconciliation; replays report success.
	ErrAlreadyPaid = errors.New("payment_already_paid")
)
