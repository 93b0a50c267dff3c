package customer

import (
	"customer-service/internal/pkg/apperrors"
	"fmt"
)

// Customer is the logical customer record. Name, Address and MobileNumber live
// in the primary table; PanNumber, AmazonPayAccountID and DebitCardNumber live
// in the secondary table keyed by the same ID.
type Customer struct {
	ID                 int64   `json:"id"`
	Name               *string `json:"name"`
	Address            *string `json:"address"`
	MobileNumber       *string `json:"mobileNumber"`
	PanNumber          *string `json:"panNumber"`
	AmazonPayAccountID *int64  `json:"amazonPayAccountId"`
	DebitCardNumber    *int64  `json:"debitCardNumber"`
}

func (c *Customer) IsNew() bool {
	return c.ID == 0
}

// Clone returns a deep copy so callers can hand out values without sharing
// the optional field pointers.
func (c *Customer) Clone() *Customer {
	if c == nil {
		return nil
	}
	return &Customer{
		ID:                 c.ID,
		Name:               cloneString(c.Name),
		Address:            cloneString(c.Address),
		MobileNumber:       cloneString(c.MobileNumber),
		PanNumber:          cloneString(c.PanNumber),
		AmazonPayAccountID: cloneInt64(c.AmazonPayAccountID),
		DebitCardNumber:    cloneInt64(c.DebitCardNumber),
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt64(n *int64) *int64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

// NotFoundError is returned when no customer exists at ID. Its message is the
// one legacy clients receive as a plain payload.
type NotFoundError struct {
	ID int64
}

func NewNotFoundError(id int64) *NotFoundError {
	return &NotFoundError{ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("No customer found with id: %d", e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return apperrors.ErrNotFound
}
