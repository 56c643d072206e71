package cache

import (
	"context"
	"testing"

	"github.com/Spok95/gestion-scolaire/internal/grading"
)

func TestNilRankingsAlwaysMisses(t *testing.T) {
	var c *Rankings
	ctx := context.Background()

	gen, err := c.Generation(ctx, 1)
	if err != nil || gen != "" {
		t.Fatalf("nil cache generation %q %v", gen, err)
	}
	stored, err := c.Set(ctx, 1, "1ère Période", gen, []grading.Entry{{StudentID: 1}})
	if err != nil || stored {
		t.Fatalf("nil cache stored=%v err=%v", stored, err)
	}
	got, ok, err := c.Get(ctx, 1, "1ère Période")
	if err != nil || ok || got != nil {
		t.Fatalf("nil cache returned %v %v %v", got, ok, err)
	}
	if err := c.InvalidateClass(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if NewRankings(nil) != nil {
		t.Fatal("NewRankings(nil) must return a nil cache")
	}
}

func TestKeys(t *testing.T) {
	if got := classKey(42); got != "ranking:{class:42}" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := genKey(42); got != "ranking:{class:42}:gen" {
		t.Fatalf("unexpected generation key %q", got)
	}
}
