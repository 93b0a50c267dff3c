package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-service/internal/domain/customer"
	"customer-service/internal/infrastructure/monitoring"
	"customer-service/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errMsgFormat = "%w: %w"

const (
	insertCustomerSQL = `
        INSERT INTO customer (name, address, mobile_number)
        VALUES ($1, $2, $3)
        RETURNING id`

	insertDetailsSQL = `
        INSERT INTO additional_customer_details (id, pan_number, amazon_pay_account_id, debit_card_number)
        VALUES ($1, $2, $3, $4)`

	updateCustomerSQL = `
        UPDATE customer
        SET name = $1,
            address = $2,
            mobile_number = $3
        WHERE id = $4`

	upsertDetailsSQL = `
        INSERT INTO additional_customer_details (id, pan_number, amazon_pay_account_id, debit_card_number)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET pan_number = EXCLUDED.pan_number,
            amazon_pay_account_id = EXCLUDED.amazon_pay_account_id,
            debit_card_number = EXCLUDED.debit_card_number`

	selectCustomerSQL = `
        SELECT c.id, c.name, c.address, c.mobile_number,
               d.pan_number, d.amazon_pay_account_id, d.debit_card_number
        FROM customer c
        LEFT JOIN additional_customer_details d ON d.id = c.id`

	findCustomerByIDSQL = selectCustomerSQL + `
        WHERE c.id = $1`

	findAllCustomersSQL = selectCustomerSQL + `
        ORDER BY c.id ASC`

	lockCustomerByIDSQL = selectCustomerSQL + `
        WHERE c.id = $1
        FOR UPDATE OF c`

	deleteDetailsSQL  = `DELETE FROM additional_customer_details WHERE id = $1`
	deleteCustomerSQL = `DELETE FROM customer WHERE id = $1`

	countCustomersSQL = `SELECT COUNT(*) FROM customer`
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) beginTx(ctx context.Context) (pgx.Tx, error) {
	r.logger.DebugContext(ctx, "Beginning transaction")
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	return tx, nil
}

func (r *CustomerRepository) commitTx(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	r.logger.DebugContext(ctx, "Transaction committed successfully")
	return nil
}

func (r *CustomerRepository) rollbackTx(ctx context.Context, tx pgx.Tx) {
	err := tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		r.logger.ErrorContext(ctx, "Failed to rollback transaction", slog.Any("error", err))
		return
	}
	r.logger.DebugContext(ctx, "Transaction rolled back")
}

// withTx runs fn inside a transaction, committing on success and rolling back
// when fn returns an error.
func (r *CustomerRepository) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		r.rollbackTx(ctx, tx)
		return err
	}
	return r.commitTx(ctx, tx)
}

func queryStatus(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, apperrors.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

// Save inserts cust when it has no ID yet and writes the generated ID back.
// Otherwise it overwrites both rows for cust.ID and returns
// apperrors.ErrNotFound if no customer is stored there.
func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.IsNew() {
		return r.createCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) createCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer")
	startTime := time.Now()

	var newID int64
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, insertCustomerSQL,
			cust.Name,
			cust.Address,
			cust.MobileNumber,
		).Scan(&newID); err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
			return r.wrapWriteError(err, "failed to insert customer")
		}

		if _, err := tx.Exec(ctx, insertDetailsSQL,
			newID,
			cust.PanNumber,
			cust.AmazonPayAccountID,
			cust.DebitCardNumber,
		); err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert customer details", slog.Any("error", err), slog.Int64("customerID", newID))
			return r.wrapWriteError(err, "failed to insert customer details")
		}
		return nil
	})
	monitoring.RecordDBQuery("CreateCustomer", queryStatus(err), time.Since(startTime))
	if err != nil {
		return err
	}

	cust.ID = newID
	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) error {
	logCtx := r.logger.With(slog.Int64("customerID", cust.ID))
	logCtx.InfoContext(ctx, "Attempting to update customer")
	startTime := time.Now()

	err := r.withTx(ctx, func(tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, updateCustomerSQL,
			cust.Name,
			cust.Address,
			cust.MobileNumber,
			cust.ID,
		)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
			return r.wrapWriteError(err, "failed to update customer")
		}
		if cmdTag.RowsAffected() == 0 {
			logCtx.WarnContext(ctx, "Update affected zero rows, customer not found")
			return apperrors.ErrNotFound
		}

		if _, err := tx.Exec(ctx, upsertDetailsSQL,
			cust.ID,
			cust.PanNumber,
			cust.AmazonPayAccountID,
			cust.DebitCardNumber,
		); err != nil {
			logCtx.ErrorContext(ctx, "Failed to update customer details", slog.Any("error", err))
			return r.wrapWriteError(err, "failed to update customer details")
		}
		return nil
	})
	monitoring.RecordDBQuery("UpdateCustomer", queryStatus(err), time.Since(startTime))
	if err != nil {
		return err
	}

	logCtx.InfoContext(ctx, "Customer updated successfully")
	return nil
}

func (r *CustomerRepository) wrapWriteError(err error, msg string) error {
	translatedErr := translateDBError(err, r.logger)
	if errors.Is(translatedErr, apperrors.ErrAlreadyExists) || errors.Is(translatedErr, apperrors.ErrValidation) {
		return translatedErr
	}
	return apperrors.WrapDatabaseError(err, msg)
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var cust customer.Customer
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Address,
		&cust.MobileNumber,
		&cust.PanNumber,
		&cust.AmazonPayAccountID,
		&cust.DebitCardNumber,
	)
	if err != nil {
		return nil, err
	}
	return &cust, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to find customer by ID")
	startTime := time.Now()

	cust, err := scanCustomer(r.db.QueryRow(ctx, findCustomerByIDSQL, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			monitoring.RecordDBQuery("FindCustomerByID", "not_found", time.Since(startTime))
			logCtx.WarnContext(ctx, "Customer not found")
			return nil, apperrors.ErrNotFound
		}
		monitoring.RecordDBQuery("FindCustomerByID", "error", time.Since(startTime))
		logCtx.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("FindCustomerByID", "success", time.Since(startTime))
	logCtx.InfoContext(ctx, "Customer found successfully")
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context) ([]*customer.Customer, error) {
	r.logger.InfoContext(ctx, "Attempting to find all customers")
	startTime := time.Now()

	rows, err := r.db.Query(ctx, findAllCustomersSQL)
	if err != nil {
		monitoring.RecordDBQuery("FindAllCustomers", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			monitoring.RecordDBQuery("FindAllCustomers", "error", time.Since(startTime))
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}

	if err = rows.Err(); err != nil {
		monitoring.RecordDBQuery("FindAllCustomers", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("FindAllCustomers", "success", time.Since(startTime))
	r.logger.InfoContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

// DeleteByID removes both rows for customerID and returns the values they held.
// The primary row is locked before reading so the returned value is exactly
// what was deleted.
func (r *CustomerRepository) DeleteByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	logCtx := r.logger.With(slog.Int64("customerID", customerID))
	logCtx.InfoContext(ctx, "Attempting to delete customer")
	startTime := time.Now()

	var deleted *customer.Customer
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		cust, err := scanCustomer(tx.QueryRow(ctx, lockCustomerByIDSQL, customerID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				logCtx.WarnContext(ctx, "Customer not found for delete")
				return apperrors.ErrNotFound
			}
			logCtx.ErrorContext(ctx, "Failed to lock customer for delete", slog.Any("error", err))
			return fmt.Errorf("%w: failed to lock customer: %w", apperrors.ErrDatabase, err)
		}

		if _, err := tx.Exec(ctx, deleteDetailsSQL, customerID); err != nil {
			logCtx.ErrorContext(ctx, "Failed to delete customer details", slog.Any("error", err))
			return fmt.Errorf("%w: failed to delete customer details: %w", apperrors.ErrDatabase, err)
		}

		cmdTag, err := tx.Exec(ctx, deleteCustomerSQL, customerID)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to delete customer", slog.Any("error", err))
			return fmt.Errorf("%w: failed to delete customer: %w", apperrors.ErrDatabase, err)
		}
		if cmdTag.RowsAffected() == 0 {
			logCtx.WarnContext(ctx, "Delete affected zero rows, customer not found")
			return apperrors.ErrNotFound
		}

		deleted = cust
		return nil
	})
	monitoring.RecordDBQuery("DeleteCustomer", queryStatus(err), time.Since(startTime))
	if err != nil {
		return nil, err
	}

	logCtx.InfoContext(ctx, "Customer deleted successfully")
	return deleted, nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	startTime := time.Now()

	var count int64
	if err := r.db.QueryRow(ctx, countCustomersSQL).Scan(&count); err != nil {
		monitoring.RecordDBQuery("CountCustomers", "error", time.Since(startTime))
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	monitoring.RecordDBQuery("CountCustomers", "success", time.Since(startTime))
	r.logger.DebugContext(ctx, "Counted customers", slog.Int64("count", count))
	return count, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}
		// string_data_right_truncation: a value exceeded its VARCHAR bound.
		if pgErr.Code == "22001" {
			contextLogger.Warn("Database value too long", "message", pgErr.Message, "column", pgErr.ColumnName)
			return apperrors.NewValidationError(pgErr.ColumnName, pgErr.Message)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return apperrors.WrapDatabaseError(err, "db error code "+pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return apperrors.WrapDatabaseError(err, "database operation failed")
}
