package jobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/Spok95/gestion-scolaire/internal/db"
	"github.com/Spok95/gestion-scolaire/internal/metrics"
	"github.com/Spok95/gestion-scolaire/internal/models"
)

// RefreshGauges returns the job that keeps the user and grade gauges current
// and samples DB ping latency.
func RefreshGauges(database *sql.DB) Job {
	return func(ctx context.Context) error {
		start := time.Now()
		if err := database.PingContext(ctx); err != nil {
			return err
		}
		metrics.ObserveDBPing(time.Since(start))

		counts, err := db.CountUsersByRole(ctx, database)
		if err != nil {
			return err
		}
		for _, r := range models.Roles {
			metrics.UsersByRole.WithLabelValues(string(r)).Set(float64(counts[r]))
		}

		n, err := db.CountGrades(ctx, database)
		if err != nil {
			return err
		}
		metrics.GradesTotal.Set(float64(n))
		return nil
	}
}
