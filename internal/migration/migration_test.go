package migration

import (
	"context"
	"testing"

	"github.com/interiohub/interio/pkg/db/dbtest"
	"go.uber.org/zap"
)

func TestRunMigrationsCreatesTables(t *testing.T) {
	conn := dbtest.Open(t)

	if err := RunMigrations(context.Background(), conn, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// Re-running is a no-op.
	if err := RunMigrations(context.Background(), conn, zap.NewNop()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	for _, table := range []string{"balances", "payments", "billing_events", "uploads", "style_stats", "generation_jobs"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("expected table %s", table)
		}
	}
}
