package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCustomerOperation(t *testing.T) {
	Business.CustomerOperationsTotal.Reset()

	RecordCustomerOperation("update", "success")
	RecordCustomerOperation("update", "success")
	RecordCustomerOperation("delete", "not_found")

	assert.Equal(t, float64(2), testutil.ToFloat64(Business.CustomerOperationsTotal.WithLabelValues("update", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(Business.CustomerOperationsTotal.WithLabelValues("delete", "not_found")))
}

func TestSetCustomersStored(t *testing.T) {
	SetCustomersStored(42)

	expected := `
		# HELP customer_service_customers_stored Number of customers currently stored, refreshed by the stats job.
		# TYPE customer_service_customers_stored gauge
		customer_service_customers_stored 42
	`
	err := testutil.CollectAndCompare(Business.CustomersStored, strings.NewReader(expected))
	assert.NoError(t, err)
}

func TestRecordDBQuery(t *testing.T) {
	DB.QueryDuration.Reset()

	RecordDBQuery("FindCustomerByID", "success", 3*time.Millisecond)
	RecordDBQuery("FindCustomerByID", "error", time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(DB.QueryDuration))
}
