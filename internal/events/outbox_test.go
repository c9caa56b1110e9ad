package events

import (
	"context"
	"testing"

	"github.com/interiohub/interio/pkg/db/dbtest"
)

func TestPublishDedupesByAccountAndKey(t *testing.T) {
	db := dbtest.Open(t, &Record{})
	outbox := NewOutbox(db, dbtest.Node(t))
	ctx := context.Background()

	event := Event{
		AccountID: "acc-1",
		Type:      EventPaymentSettled,
		Payload:   PaymentPayload{InvoiceID: "42", Amount: "990.00"}.ToMap(),
		DedupeKey: "payment:42",
	}
	for i := 0; i < 2; i++ {
		if err := outbox.Publish(ctx, event); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}
	// Events without a dedupe key are always appended.
	for i := 0; i < 2; i++ {
		if err := outbox.Publish(ctx, Event{AccountID: "acc-1", Type: EventCreditsConsumed}); err != nil {
			t.Fatalf("publish consumed: %v", err)
		}
	}

	var settled, consumed int64
	db.Model(&Record{}).Where("event_type = ?", EventPaymentSettled).Count(&settled)
	db.Model(&Record{}).Where("event_type = ?", EventCreditsConsumed).Count(&consumed)
	if settled != 1 {
		t.Fatalf("expected 1 settled event, got %d", settled)
	}
	if consumed != 2 {
		t.Fatalf("expected 2 consumed events, got %d", consumed)
	}
}

func TestPublishRejectsMissingFields(t *testing.T) {
	outbox := NewOutbox(dbtest.Open(t, &Record{}), dbtest.Node(t))

	if err := outbox.Publish(context.Background(), Event{Type: EventCreditsGranted}); err == nil {
		t.Fatalf("expected missing account error")
	}
	if err := outbox.Publish(context.Background(), Event{AccountID: "acc-1"}); err == nil {
		t.Fatalf("expected missing type error")
	}
}
