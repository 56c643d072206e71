package jobs

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/gestion-scolaire/internal/ctxutil"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/observability"
)

type Job func(ctx context.Context) error

type Runner struct {
	ctx context.Context
	log *zap.Logger
}

func New(ctx context.Context, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{ctx: ctx, log: log}
}

// Every runs fn once right away and then on each tick until the runner's
// context is cancelled.
func (r *Runner) Every(interval time.Duration, name string, fn Job) {
	go func() {
		r.run(name, fn)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
				r.run(name, fn)
			}
		}
	}()
}

func (r *Runner) run(name string, fn Job) {
	ctx := ctxutil.WithOp(r.ctx, "job:"+name)
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			metrics.ObserveJob(name, "panic", time.Since(start))
			observability.CaptureErrCtx(ctx, fmt.Errorf("panic in job %s: %v", name, p))
			r.log.Error("job panic", zap.String("job", name), zap.Any("panic", p))
		}
	}()

	err := fn(ctx)
	switch {
	case err == nil:
		metrics.ObserveJob(name, "ok", time.Since(start))
	case ctx.Err() != nil:
		// shutting down; not a failure
		metrics.ObserveJob(name, "cancelled", time.Since(start))
	default:
		metrics.ObserveJob(name, "error", time.Since(start))
		observability.CaptureErrCtx(ctx, err)
		r.log.Warn("job failed", zap.String("job", name), zap.Error(err))
	}
}
