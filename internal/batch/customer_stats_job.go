package batch

import (
	"context"
	"customer-service/internal/infrastructure/monitoring"
	"fmt"
	"log/slog"
	"time"
)

// CustomerCounter is the slice of the customer repository the stats job reads.
type CustomerCounter interface {
	Count(ctx context.Context) (int64, error)
}

type CustomerStatsJob struct {
	repo   CustomerCounter
	logger *slog.Logger
}

func NewCustomerStatsJob(repo CustomerCounter, logger *slog.Logger) *CustomerStatsJob {
	if repo == nil || logger == nil {
		panic("CustomerStatsJob dependencies cannot be nil")
	}
	return &CustomerStatsJob{
		repo:   repo,
		logger: logger.With("job", "CustomerStats"),
	}
}

// Run refreshes the stored customers gauge from the repository count.
func (j *CustomerStatsJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting customer stats job.")

	count, err := j.repo.Count(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to count customers, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to count customers: %w", err)
	}

	monitoring.SetCustomersStored(count)
	j.logger.InfoContext(ctx, "Customer stats job finished.",
		slog.Int64("customers_stored", count),
		slog.Duration("duration", time.Since(startTime)),
	)
	return nil
}
