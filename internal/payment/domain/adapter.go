package domain

// Gateway signs checkout links and verifies result notifications.
type Gateway interface {
	// CheckoutConfigured reports whether checkout links can be signed.
	CheckoutConfigured() bool
	// ResultConfigured reports whether result notifications can be verified.
	ResultConfigured() bool
	CheckoutURL(invoiceID int64, outSum string, description string) (string, error)
	VerifyResult(cb Callback) error
	Acknowledge(invoiceID string) string
}
