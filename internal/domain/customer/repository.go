package customer

import (
	"context"
)

// CustomerRepository persists customers across the primary and secondary
// tables. Every write touches both tables inside one transaction.
type CustomerRepository interface {
	// Save inserts c when c.ID is zero and stores the generated ID in c.
	// Otherwise it overwrites every field at c.ID and returns
	// apperrors.ErrNotFound when nothing is stored there.
	Save(ctx context.Context, c *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context) ([]*Customer, error)

	// DeleteByID removes both rows and returns the customer as it was
	// right before deletion.
	DeleteByID(ctx context.Context, customerID int64) (*Customer, error)

	Count(ctx context.Context) (int64, error)
}
