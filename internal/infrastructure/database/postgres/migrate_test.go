package postgres

import (
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	t.Run("up creates both customer tables", func(t *testing.T) {
		r, identifier, err := src.ReadUp(first)
		require.NoError(t, err)
		defer r.Close()

		body, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "create_customer_tables", identifier)

		sql := string(body)
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS customer (")
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS additional_customer_details")
		assert.Contains(t, sql, "REFERENCES customer (id) ON DELETE CASCADE")
		assert.Contains(t, sql, "pan_number            VARCHAR(10)")
	})

	t.Run("down drops secondary table first", func(t *testing.T) {
		r, _, err := src.ReadDown(first)
		require.NoError(t, err)
		defer r.Close()

		body, err := io.ReadAll(r)
		require.NoError(t, err)

		sql := string(body)
		assert.Less(t, strings.Index(sql, "additional_customer_details"), strings.Index(sql, "DROP TABLE IF EXISTS customer;"))
	})

	t.Run("no further versions", func(t *testing.T) {
		_, err := src.Next(first)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

type MockMigrator struct {
	mock.Mock
}

func (m *MockMigrator) Up() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockMigrator) Version() (uint, bool, error) {
	args := m.Called()
	return args.Get(0).(uint), args.Bool(1), args.Error(2)
}

func (m *MockMigrator) Close() (error, error) {
	args := m.Called()
	return args.Error(0), args.Error(1)
}

var _ migrator = (*migrate.Migrate)(nil)

func TestApplyMigrations(t *testing.T) {
	t.Run("Success - closes migrator", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Up").Return(nil).Once()
		m.On("Version").Return(uint(1), false, nil).Once()
		m.On("Close").Return(nil, nil).Once()

		err := applyMigrations(m, logger)

		assert.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Success - no change", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Up").Return(migrate.ErrNoChange).Once()
		m.On("Version").Return(uint(1), false, nil).Once()
		m.On("Close").Return(nil, nil).Once()

		err := applyMigrations(m, logger)

		assert.NoError(t, err)
		m.AssertExpectations(t)
	})

	t.Run("Error - up fails and migrator is still closed", func(t *testing.T) {
		upErr := errors.New("syntax error at or near")
		m := new(MockMigrator)
		m.On("Up").Return(upErr).Once()
		m.On("Close").Return(nil, nil).Once()

		err := applyMigrations(m, logger)

		assert.ErrorIs(t, err, upErr)
		m.AssertExpectations(t)
		m.AssertNotCalled(t, "Version")
	})

	t.Run("Close failure is not fatal", func(t *testing.T) {
		m := new(MockMigrator)
		m.On("Up").Return(nil).Once()
		m.On("Version").Return(uint(0), false, migrate.ErrNilVersion).Once()
		m.On("Close").Return(nil, errors.New("conn busy")).Once()

		err := applyMigrations(m, logger)

		assert.NoError(t, err)
		m.AssertExpectations(t)
	})
}
