package routes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	redislib "github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vidrobox-backend/internal/auth"
	"github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/vidrobox-backend/pkg/auth"
	"github.com/angelmondragon/vidrobox-backend/pkg/auth/session"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db/models"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
	"github.com/angelmondragon/vidrobox-backend/pkg/redis"
	"github.com/google/uuid"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

var routerAdminID = uuid.MustParse("6f0c1a52-8d0e-4a53-9a47-0f8e7c3b2d11")

type stubSessions struct{}

func (stubSessions) Owner(ctx context.Context, accessID string) (uuid.UUID, bool, error) {
	return routerAdminID, true, nil
}

type stubOrders struct {
	orders.Service
	creates int
}

func (s *stubOrders) List(ctx context.Context, params orders.ListParams) (*orders.OrderList, error) {
	return &orders.OrderList{Items: []orders.OrderSummary{}}, nil
}

func (s *stubOrders) Create(ctx context.Context, input orders.CreateInput) (*models.Order, error) {
	s.creates++
	return &models.Order{ID: uuid.New(), Code: "PED-12345678", CustomerID: uuid.New()}, nil
}

type stubBudgets struct {
	budgets.Service
}

func (stubBudgets) Request(ctx context.Context, input budgets.RequestInput) (*models.Budget, error) {
	return &models.Budget{ID: uuid.New(), Name: input.Name, Model: input.Model}, nil
}

type testRouter struct {
	handler http.Handler
	orders  *stubOrders
	cfg     *config.Config
}

func newTestRouter(t *testing.T) testRouter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewFromRaw(redislib.NewClient(&redislib.Options{Addr: mr.Addr()}))

	cfg := &config.Config{
		App: config.AppConfig{Env: "test", PublicBaseURL: "https://vidrobox.com.br"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "vidrobox", ExpirationMinutes: 60},
		RateLimit: config.RateLimitConfig{
			LoginWindow:        time.Minute,
			LoginIPLimit:       5,
			PublicWindow:       time.Minute,
			QuoteRequestsLimit: 2,
			ClientMessageLimit: 2,
		},
	}
	reg := prometheus.NewRegistry()
	ordersSvc := &stubOrders{}
	handler := NewRouter(cfg, logger.Nop(), stubPinger{}, client, stubSessions{}, reg, metrics.NewHTTPMetrics(reg), Services{
		Auth:      auth.Service(nil),
		Orders:    ordersSvc,
		Customers: customers.Service(nil),
		Budgets:   stubBudgets{},
	})
	return testRouter{handler: handler, orders: ordersSvc, cfg: cfg}
}

func (tr testRouter) bearer(t *testing.T) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(tr.cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		AdminID: routerAdminID,
		Email:   "admin@vidrobox.com.br",
		JTI:     session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func (tr testRouter) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	tr.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthLive(t *testing.T) {
	tr := newTestRouter(t)
	rec := tr.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	rec = tr.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready 200 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	tr := newTestRouter(t)
	rec := tr.do(httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
	req.Header.Set("Authorization", tr.bearer(t))
	rec = tr.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestOrderCreateReplaysWithIdempotencyKey(t *testing.T) {
	tr := newTestRouter(t)
	token := tr.bearer(t)
	body := `{"customer_id":"` + uuid.NewString() + `","items":[{"description":"Box frontal"}]}`

	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/orders", bytes.NewBufferString(body))
		req.Header.Set("Authorization", token)
		req.Header.Set("Idempotency-Key", "create-1")
		rec := tr.do(req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d body=%s", i, rec.Code, rec.Body.String())
		}
		if i == 0 {
			first = rec.Body.String()
		} else if rec.Body.String() != first {
			t.Fatalf("replay body differs")
		}
	}
	if tr.orders.creates != 1 {
		t.Fatalf("expected one create, got %d", tr.orders.creates)
	}
}

func TestPublicQuoteRequestsAreRateLimited(t *testing.T) {
	tr := newTestRouter(t)
	body := `{"name":"Ana","email":"ana@example.com","model":"Box de canto"}`

	for i := 0; i < 2; i++ {
		rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/public/budgets", bytes.NewBufferString(body)))
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201 got %d body=%s", i, rec.Code, rec.Body.String())
		}
	}
	rec := tr.do(httptest.NewRequest(http.MethodPost, "/api/public/budgets", bytes.NewBufferString(body)))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
}

func TestMetricsEndpointExposesRoutePatterns(t *testing.T) {
	tr := newTestRouter(t)
	tr.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	rec := tr.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	payload, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(payload), `vidrobox_http_requests_total{method="GET",route="/health/live",status="200"}`) {
		t.Fatalf("missing request counter in:\n%s", payload)
	}
}
