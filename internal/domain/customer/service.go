package customer

import (
	"context"
	"customer-service/internal/event"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const (
	operationCreate = "create"
	operationList   = "list"
	operationGet    = "get"
	operationUpdate = "update"
	operationDelete = "delete"

	customerNotFound = "Customer not found by repository"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, c *Customer) (int64, error)
	ListCustomers(ctx context.Context) ([]*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	UpdateCustomer(ctx context.Context, customerID int64, c *Customer) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID int64) (*Customer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	pub    event.EventPublisher
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, eventPublisher event.EventPublisher, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if eventPublisher == nil {
		logger.Warn("Warning: No event publisher provided to NewCustomerService, events will be dropped")
		eventPublisher = event.NoopEventPublisher{}
	}

	return &customerService{
		repo:   repo,
		pub:    eventPublisher,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func NewCustomerEventPayload(c *Customer) event.CustomerEventPayload {
	if c == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		ID:                 c.ID,
		Name:               c.Name,
		Address:            c.Address,
		MobileNumber:       c.MobileNumber,
		PanNumber:          c.PanNumber,
		AmazonPayAccountID: c.AmazonPayAccountID,
		DebitCardNumber:    c.DebitCardNumber,
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, c *Customer) (int64, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	if c == nil {
		s.logger.WarnContext(ctx, "Validation failed: customer payload is nil")
		monitoring.RecordCustomerOperation(operationCreate, "error")
		return 0, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	toSave := c.Clone()
	toSave.ID = 0

	s.logger.InfoContext(ctx, "Calling repository Save")
	if err := s.repo.Save(ctx, toSave); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(operationCreate, "error")
		return 0, fmt.Errorf("failed to save new customer: %w", err)
	}

	logCtx := s.logger.With(slog.Int64("customerID", toSave.ID))
	logCtx.InfoContext(ctx, "Successfully saved new customer, publishing creation event")

	createdEvent := event.CustomerCreatedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(toSave),
	}
	if pubErr := s.pub.PublishCustomerCreated(ctx, createdEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer created, but FAILED to publish creation event", slog.Any("error", pubErr))
	}

	monitoring.RecordCustomerOperation(operationCreate, "success")
	logCtx.InfoContext(ctx, "Successfully created new customer")
	return toSave.ID, nil
}

func (s *customerService) ListCustomers(ctx context.Context) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list all customers")

	customers, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		monitoring.RecordCustomerOperation(operationList, "error")
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	if customers == nil {
		customers = make([]*Customer, 0)
	}

	monitoring.RecordCustomerOperation(operationList, "success")
	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to get customer by ID")

	found, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logCtx.WarnContext(ctx, customerNotFound)
			monitoring.RecordCustomerOperation(operationGet, "not_found")
			return nil, NewNotFoundError(customerID)
		}
		logCtx.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(operationGet, "error")
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	monitoring.RecordCustomerOperation(operationGet, "success")
	logCtx.InfoContext(ctx, "Successfully retrieved customer")
	return found, nil
}

// UpdateCustomer replaces every field of the customer stored at customerID.
// Fields left nil in c are cleared. The existence check and the write happen
// in a single conditional repository call.
func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, c *Customer) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to update customer")

	if c == nil {
		logCtx.WarnContext(ctx, "Validation failed: customer payload is nil")
		monitoring.RecordCustomerOperation(operationUpdate, "error")
		return nil, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	toSave := c.Clone()
	toSave.ID = customerID

	logCtx.InfoContext(ctx, "Calling repository Save to overwrite customer")
	if err := s.repo.Save(ctx, toSave); err != nil {
		if apperrors.IsNotFound(err) {
			logCtx.WarnContext(ctx, "Customer not found by repository for update")
			monitoring.RecordCustomerOperation(operationUpdate, "not_found")
			return nil, NewNotFoundError(customerID)
		}
		logCtx.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(operationUpdate, "error")
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully updated customer in repository, publishing update event")
	updatedEvent := event.CustomerUpdatedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(toSave),
	}
	if pubErr := s.pub.PublishCustomerUpdated(ctx, updatedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer updated, but FAILED to publish update event", slog.Any("error", pubErr))
	}

	monitoring.RecordCustomerOperation(operationUpdate, "success")
	logCtx.InfoContext(ctx, "Successfully updated customer")
	return toSave, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logCtx := s.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer")

	deleted, err := s.repo.DeleteByID(ctx, customerID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logCtx.WarnContext(ctx, "Customer not found by repository for delete")
			monitoring.RecordCustomerOperation(operationDelete, "not_found")
			return nil, NewNotFoundError(customerID)
		}
		logCtx.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		monitoring.RecordCustomerOperation(operationDelete, "error")
		return nil, fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	logCtx.InfoContext(ctx, "Successfully deleted customer in repository, publishing delete event")
	deletedEvent := event.CustomerDeletedEvent{
		Timestamp: time.Now(),
		Payload:   NewCustomerEventPayload(deleted),
	}
	if pubErr := s.pub.PublishCustomerDeleted(ctx, deletedEvent); pubErr != nil {
		logCtx.ErrorContext(ctx, "Customer deleted, but FAILED to publish delete event", slog.Any("error", pubErr))
	}

	monitoring.RecordCustomerOperation(operationDelete, "success")
	logCtx.InfoContext(ctx, "Successfully deleted customer")
	return deleted, nil
}
