package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"restaurant_pos_backend/internal/printing"
	"restaurant_pos_backend/internal/receipt"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var secret = []byte("router-test-secret")

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	menuRepo, err := repositories.NewMemoryMenuRepository(repositories.DefaultMenu())
	require.NoError(t, err)
	orderRepo := repositories.NewMemoryOrderRepository()
	formatter := receipt.NewFormatter(receipt.Plain, receipt.StoreHeader{Name: "TEST"}, time.UTC)
	printer := services.NewPrintService(formatter, printing.LogTransport{}, services.PrintSettings{BillPrinter: "counter", KitchenPrinter: "kitchen"})
	notifier := services.NewOrderNotifier(nil, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("display-key"), bcrypt.MinCost)
	require.NoError(t, err)

	engine := gin.New()
	Setup(engine, Dependencies{
		OrderService:       services.NewOrderService(orderRepo, menuRepo, printer, notifier, nil, services.StrictTransitions),
		DineInService:      services.NewDineInService(orderRepo, menuRepo, printer, notifier, services.StrictTransitions),
		MenuService:        services.NewMenuService(menuRepo),
		JWTSecret:          secret,
		DeviceKeyHash:      string(hash),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
	})
	return engine
}

func request(engine *gin.Engine, method, path, role, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, _ := utils.GenerateAccessToken(secret, "u-1", "staff", role, time.Hour)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestPing(t *testing.T) {
	w := request(newRouter(t), http.MethodGet, "/ping", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}

func TestRouteAccess(t *testing.T) {
	engine := newRouter(t)
	order := `{"order_type":"TAKEAWAY","items":[{"name":"Tea","price":1,"quantity":1}]}`

	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/orders", "", "", http.StatusUnauthorized},
		{"cashier creates order", http.MethodPost, "/api/v1/orders", utils.RoleCashier, order, http.StatusCreated},
		{"waiter cannot create counter order", http.MethodPost, "/api/v1/orders", utils.RoleWaiter, order, http.StatusForbidden},
		{"kitchen lists orders", http.MethodGet, "/api/v1/orders", utils.RoleKitchen, "", http.StatusOK},
		{"kitchen cannot open tables", http.MethodPost, "/api/v1/dinein/orders", utils.RoleKitchen, `{"table_no":1}`, http.StatusForbidden},
		{"waiter opens table", http.MethodPost, "/api/v1/dinein/orders", utils.RoleWaiter, `{"table_no":1}`, http.StatusCreated},
		{"waiter cannot patch status", http.MethodPatch, "/api/v1/orders/x/status", utils.RoleWaiter, `{"status":"PREPARING"}`, http.StatusForbidden},
		{"any role reads menu", http.MethodGet, "/api/v1/menu", utils.RoleKitchen, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(engine, tt.method, tt.path, tt.role, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestBoardUsesDeviceKey(t *testing.T) {
	engine := newRouter(t)

	w := request(engine, http.MethodGet, "/api/v1/board/orders", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(engine, http.MethodGet, "/api/v1/board/orders", "", "", "X-Device-Key", "display-key")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	engine := newRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
