package customer_test

import (
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestCustomer_IsNew(t *testing.T) {
	assert.True(t, (&customer.Customer{Name: strPtr("Alice")}).IsNew(), "customer without an ID is new")
	assert.False(t, (&customer.Customer{ID: 1}).IsNew())
}

func TestCustomer_Clone(t *testing.T) {
	t.Run("Deep copy", func(t *testing.T) {
		original := &customer.Customer{
			ID:                 5,
			Name:               strPtr("Bob"),
			Address:            strPtr("2 High St"),
			MobileNumber:       strPtr("5550000000"),
			PanNumber:          strPtr("ABCDE1234F"),
			AmazonPayAccountID: int64Ptr(998877),
			DebitCardNumber:    int64Ptr(4111111111111111),
		}

		clone := original.Clone()

		assert.Equal(t, original, clone)
		assert.NotSame(t, original.Name, clone.Name)
		assert.NotSame(t, original.AmazonPayAccountID, clone.AmazonPayAccountID)

		*clone.Name = "Changed"
		*clone.DebitCardNumber = 1
		assert.Equal(t, "Bob", *original.Name)
		assert.Equal(t, int64(4111111111111111), *original.DebitCardNumber)
	})

	t.Run("Nil fields stay nil", func(t *testing.T) {
		clone := (&customer.Customer{ID: 3}).Clone()
		assert.Equal(t, &customer.Customer{ID: 3}, clone)
	})

	t.Run("Nil receiver", func(t *testing.T) {
		var c *customer.Customer
		assert.Nil(t, c.Clone())
	})
}

func TestNotFoundError(t *testing.T) {
	err := customer.NewNotFoundError(999999)

	assert.EqualError(t, err, "No customer found with id: 999999")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	wrapped := fmt.Errorf("delete failed: %w", err)
	var notFound *customer.NotFoundError
	assert.True(t, errors.As(wrapped, &notFound))
	assert.Equal(t, int64(999999), notFound.ID)
}
