package events

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event describes a billing event to store in the outbox.
type Event struct {
	AccountID string
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Record is the billing_events row.
type Record struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	AccountID string            `gorm:"type:varchar(191);not null;uniqueIndex:ux_billing_events_dedupe,priority:1"`
	EventType string            `gorm:"type:varchar(64);not null;index"`
	Payload   datatypes.JSONMap `gorm:"type:json"`
	DedupeKey *string           `gorm:"type:varchar(191);uniqueIndex:ux_billing_events_dedupe,priority:2"`
	Published bool              `gorm:"not null;default:false"`
	CreatedAt time.Time         `gorm:"not null"`
}

func (Record) TableName() string { return "billing_events" }

// Outbox inserts billing events into the billing_events table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	if o == nil {
		return errors.New("outbox_unavailable")
	}
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	accountID := strings.TrimSpace(event.AccountID)
	if accountID == "" {
		return errors.New("invalid_account_id")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	var dedupe *string
	if key := strings.TrimSpace(event.DedupeKey); key != "" {
		dedupe = &key
	}

	record := Record{
		ID:        o.genID.Generate(),
		AccountID: accountID,
		EventType: name,
		Payload:   payload,
		DedupeKey: dedupe,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error
}
