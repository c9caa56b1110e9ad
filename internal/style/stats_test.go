package style

import (
	"context"
	"testing"

	"github.com/interiohub/interio/internal/style/domain"
	"github.com/interiohub/interio/pkg/db/dbtest"
)

func TestIncrementUpserts(t *testing.T) {
	repo := NewStatsRepository(dbtest.Open(t, &domain.Stat{}))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Increment(ctx, "loft"); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}
	if err := repo.Increment(ctx, "Modern"); err != nil {
		t.Fatalf("increment modern: %v", err)
	}

	if got, _ := repo.Count(ctx, "loft"); got != 3 {
		t.Fatalf("expected loft=3, got %d", got)
	}
	if got, _ := repo.Count(ctx, "modern"); got != 1 {
		t.Fatalf("expected modern=1, got %d", got)
	}
	if got, _ := repo.Count(ctx, "classic"); got != 0 {
		t.Fatalf("expected classic=0, got %d", got)
	}
}
