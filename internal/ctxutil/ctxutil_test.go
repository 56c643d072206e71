package ctxutil

import (
	"context"
	"testing"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

func TestValues(t *testing.T) {
	ctx := WithRequestID(WithOp(WithRole(WithUserID(context.Background(), 7), models.Teacher), "grades.submit"), "req-1")
	if id, ok := UserID(ctx); !ok || id != 7 {
		t.Fatalf("user id: %v %v", id, ok)
	}
	if r, ok := Role(ctx); !ok || r != models.Teacher {
		t.Fatalf("role: %v %v", r, ok)
	}
	if op, ok := Op(ctx); !ok || op != "grades.submit" {
		t.Fatalf("op: %v %v", op, ok)
	}
	if rid, ok := RequestID(ctx); !ok || rid != "req-1" {
		t.Fatalf("request id: %v %v", rid, ok)
	}
	if _, ok := UserID(context.Background()); ok {
		t.Fatalf("empty context should have no user")
	}
}

func TestWithDBTimeout_KeepsShorterParentDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctx, cancel2 := WithDBTimeout(parent)
	defer cancel2()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > time.Second {
		t.Fatalf("deadline should not exceed parent's: %v", time.Until(dl))
	}

	ctx3, cancel3 := WithDBTimeout(context.Background())
	defer cancel3()
	dl3, _ := ctx3.Deadline()
	if d := time.Until(dl3); d <= time.Second || d > DefaultDBTimeout {
		t.Fatalf("unexpected default deadline: %v", d)
	}
}
