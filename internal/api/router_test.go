package api

import (
	"context"
	"customer-service/internal/config"
	"customer-service/internal/domain/customer"
	"customer-service/internal/pkg/apperrors"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*customer.Customer
}

var _ customer.CustomerRepository = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[int64]*customer.Customer)}
}

func (m *memoryRepository) Save(_ context.Context, c *customer.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.IsNew() {
		m.nextID++
		c.ID = m.nextID
	} else if _, ok := m.rows[c.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.rows[c.ID] = c.Clone()
	return nil
}

func (m *memoryRepository) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return c.Clone(), nil
}

func (m *memoryRepository) FindAll(_ context.Context) ([]*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*customer.Customer, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryRepository) DeleteByID(_ context.Context, id int64) (*customer.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	delete(m.rows, id)
	return c, nil
}

func (m *memoryRepository) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			RateLimit:      config.RateLimitConfig{Enabled: false},
			CORS:           config.CORSConfig{AllowedOrigins: []string{"*"}},
		},
		Metrics: config.MetricsConfig{Path: "/metrics"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := customer.NewCustomerService(newMemoryRepository(), nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv := httptest.NewServer(SetupRouter(ctx, svc, okPinger{}, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, method, url, body string, headers ...string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func listIDs(t *testing.T, baseURL string) []int64 {
	t.Helper()
	status, body := doRequest(t, http.MethodGet, baseURL+"/api/customer/customers", "")
	require.Equal(t, http.StatusOK, status)

	var customers []struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &customers))
	ids := make([]int64, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCustomerLifecycle(t *testing.T) {
	srv := newTestServer(t, testConfig())

	assert.Empty(t, listIDs(t, srv.URL))

	status, body := doRequest(t, http.MethodPost, srv.URL+"/api/customer/",
		`{"name":"Alice","address":"1 Main St","mobileNumber":"5551234567","panNumber":"ABCDE1234F","amazonPayAccountId":998877,"debitCardNumber":4111111111111111}`)
	require.Equal(t, http.StatusOK, status)
	id, err := strconv.ParseInt(body, 10, 64)
	require.NoError(t, err)

	status, second := doRequest(t, http.MethodPost, srv.URL+"/api/customer/", `{"name":"Bob"}`)
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, body, second, "sequential creates yield distinct ids")

	assert.Contains(t, listIDs(t, srv.URL), id)

	idStr := strconv.FormatInt(id, 10)
	status, body = doRequest(t, http.MethodGet, srv.URL+"/api/customer/"+idStr, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"id":`+idStr+`,"name":"Alice","address":"1 Main St","mobileNumber":"5551234567","panNumber":"ABCDE1234F","amazonPayAccountId":998877,"debitCardNumber":4111111111111111}`, body)

	status, body = doRequest(t, http.MethodPut, srv.URL+"/api/customer/update/"+idStr, `{"name":"Alice B."}`)
	require.Equal(t, http.StatusOK, status)
	updated := `{"id":` + idStr + `,"name":"Alice B.","address":null,"mobileNumber":null,"panNumber":null,"amazonPayAccountId":null,"debitCardNumber":null}`
	assert.JSONEq(t, updated, body)

	status, body = doRequest(t, http.MethodDelete, srv.URL+"/api/customer/delete/"+idStr, "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, updated, body)

	assert.NotContains(t, listIDs(t, srv.URL), id)

	status, body = doRequest(t, http.MethodDelete, srv.URL+"/api/customer/delete/"+idStr, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.JSONEq(t, `{"error":{"message":"No customer found with id: `+idStr+`"}}`, body)
}

func TestNotFoundAsPayload(t *testing.T) {
	cfg := testConfig()
	cfg.API.NotFoundAsPayload = true
	srv := newTestServer(t, cfg)

	status, body := doRequest(t, http.MethodPut, srv.URL+"/api/customer/update/999999", `{"name":"x"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No customer found with id: 999999", body)

	status, body = doRequest(t, http.MethodDelete, srv.URL+"/api/customer/delete/999999", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "No customer found with id: 999999", body)

	assert.Empty(t, listIDs(t, srv.URL), "not-found update must not create a record")
}

func TestOperationalEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig())

	status, body := doRequest(t, http.MethodGet, srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	status, body = doRequest(t, http.MethodGet, srv.URL+"/metrics", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "customer_service_http_requests_total")

	status, _ = doRequest(t, http.MethodGet, srv.URL+"/swagger/doc.json", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = doRequest(t, http.MethodPost, srv.URL+"/auth/token", `{"username":"alice"}`)
	assert.Equal(t, http.StatusNotFound, status, "token endpoint is only mounted when auth is enabled")
}

func TestAuthenticatedRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Auth = config.AuthConfig{Enabled: true, JWTSecret: "routersecret"}
	srv := newTestServer(t, cfg)

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/api/customer/customers", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := doRequest(t, http.MethodPost, srv.URL+"/auth/token", `{"username":"alice"}`)
	require.Equal(t, http.StatusOK, status)
	var tokenResp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &tokenResp))

	_, err := jwt.Parse(strings.TrimPrefix(tokenResp.Token, "Bearer "), func(*jwt.Token) (interface{}, error) {
		return []byte("routersecret"), nil
	})
	require.NoError(t, err)

	status, body = doRequest(t, http.MethodGet, srv.URL+"/api/customer/customers", "", "Authorization", tokenResp.Token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", body)
}

func TestRateLimitedRequestsAreCounted(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	srv := newTestServer(t, cfg)

	before := requestCount(t, http.MethodGet, "unmatched", "429")

	status, _ := doRequest(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = doRequest(t, http.MethodGet, srv.URL+"/health", "")
	require.Equal(t, http.StatusTooManyRequests, status)

	assert.Equal(t, before+1, requestCount(t, http.MethodGet, "unmatched", "429"))
}

func requestCount(t *testing.T, method, path, status string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	want := map[string]string{"method": method, "path": path, "status_code": status}
	for _, family := range families {
		if family.GetName() != "customer_service_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, label := range metric.GetLabel() {
				if want[label.GetName()] == label.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}
