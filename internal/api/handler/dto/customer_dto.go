package dto

import (
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CustomerRequest is the body of create and update calls. Every field is
// optional; an id in the body is accepted and ignored.
type CustomerRequest struct {
	ID                 *int64  `json:"id,omitempty" swaggerignore:"true"`
	Name               *string `json:"name" validate:"omitempty,max=255" example:"Alice"`
	Address            *string `json:"address" validate:"omitempty,max=255" example:"1 Main St"`
	MobileNumber       *string `json:"mobileNumber" validate:"omitempty,max=20" example:"5551234567"`
	PanNumber          *string `json:"panNumber" validate:"omitempty,max=10" example:"ABCDE1234F"`
	AmazonPayAccountID *int64  `json:"amazonPayAccountId" example:"998877"`
	DebitCardNumber    *int64  `json:"debitCardNumber" example:"4111111111111111"`
}

func (r *CustomerRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
	}
	return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
}

func (r *CustomerRequest) ToDomain() *customer.Customer {
	return &customer.Customer{
		Name:               r.Name,
		Address:            r.Address,
		MobileNumber:       r.MobileNumber,
		PanNumber:          r.PanNumber,
		AmazonPayAccountID: r.AmazonPayAccountID,
		DebitCardNumber:    r.DebitCardNumber,
	}
}

// CustomerResponse renders absent values as null.
type CustomerResponse struct {
	ID                 int64   `json:"id" example:"1"`
	Name               *string `json:"name" example:"Alice"`
	Address            *string `json:"address" example:"1 Main St"`
	MobileNumber       *string `json:"mobileNumber" example:"5551234567"`
	PanNumber          *string `json:"panNumber" example:"ABCDE1234F"`
	AmazonPayAccountID *int64  `json:"amazonPayAccountId" example:"998877"`
	DebitCardNumber    *int64  `json:"debitCardNumber" example:"4111111111111111"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	return CustomerResponse{
		ID:                 cust.ID,
		Name:               cust.Name,
		Address:            cust.Address,
		MobileNumber:       cust.MobileNumber,
		PanNumber:          cust.PanNumber,
		AmazonPayAccountID: cust.AmazonPayAccountID,
		DebitCardNumber:    cust.DebitCardNumber,
	}
}

func NewCustomerListResponse(customers []*customer.Customer) []CustomerResponse {
	resp := make([]CustomerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, NewCustomerResponse(c))
	}
	return resp
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
