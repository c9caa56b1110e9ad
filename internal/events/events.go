package events

// Billing event types written alongside ledger and payment mutations.
const (
	EventCreditsConsumed = "credits.consumed"
	EventCreditsGranted  = "credits.granted"
	EventPaymentSettled  = "payment.settled"
)

// CreditsPayload describes a credit movement on one balance.
type CreditsPayload struct {
	Tier         string `json:"tier,omitempty"`
	PlanID       string `json:"plan_id,omitempty"`
	AddedStd     int    `json:"added_std,omitempty"`
	AddedHD      int    `json:"added_hd,omitempty"`
	RemainingStd int    `json:"remaining_std"`
	RemainingHD  int    `json:"remaining_hd"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p CreditsPayload) ToMap() map[string]any {
	payload := map[string]any{
		"remaining_std": p.RemainingStd,
		"remaining_hd":  p.RemainingHD,
	}
	if p.Tier != "" {
		payload["tier"] = p.Tier
	}
	if p.PlanID != "" {
		payload["plan_id"] = p.PlanID
		payload["added_std"] = p.AddedStd
		payload["added_hd"] = p.AddedHD
	}
	return payload
}

// PaymentPayload describes a settled gateway payment.
type PaymentPayload struct {
	InvoiceID string `json:"invoice_id"`
	PlanID    string `json:"plan_id,omitempty"`
	Amount    string `json:"amount"`
}

func (p PaymentPayload) ToMap() map[string]any {
	payload := map[string]any{
		"invoice_id": p.InvoiceID,
		"amount":     p.Amount,
	}
	if p.PlanID != "" {
		payload["plan_id"] = p.PlanID
	}
	return payload
}
