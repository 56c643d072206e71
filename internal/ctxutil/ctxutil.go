package ctxutil

import (
	"context"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/models"
)

// private keys avoid collisions with other packages
type key int

const (
	keyUserID key = iota
	keyRole
	keyOpName
	keyRequestID
)

// WithUserID / UserID carry the authenticated user's id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserID(ctx context.Context) (int64, bool) {
	v := ctx.Value(keyUserID)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func WithRole(ctx context.Context, role models.Role) context.Context {
	return context.WithValue(ctx, keyRole, role)
}

func Role(ctx context.Context) (models.Role, bool) {
	r, ok := ctx.Value(keyRole).(models.Role)
	return r, ok
}

// WithOp / Op name the running operation for logs and error reports.
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(keyRequestID).(string)
	return s, ok && s != ""
}

// DefaultDBTimeout bounds a single store operation.
var (
	DefaultDBTimeout = 5 * time.Second
)

// WithTimeout is context.WithTimeout that treats d<=0 as "no timeout".
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithDBTimeout applies DefaultDBTimeout unless the parent expires sooner.
func WithDBTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultDBTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultDBTimeout)
}
