package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/realtime"
	"cravecart/internal/repo"
	"cravecart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router *gin.Engine
	ids    identity.Provider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logrus.New()
	l.SetOutput(io.Discard)
	log := logrus.NewEntry(l)

	store := repo.NewMemoryStore()
	hub := realtime.NewHub(store.Orders(), log)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	ids := identity.NewJWTProvider("test-secret", time.Hour)
	adminHash, err := identity.HashPassword("admin-pass")
	require.NoError(t, err)

	require.NoError(t, store.Catalog().SaveStorefront(ctx, &domain.Storefront{
		ID:   "rest-1",
		Name: "Pizza Place",
		Menu: []domain.MenuItem{{ID: "p1", Name: "Margherita", Price: decimal.NewFromInt(150)}},
	}))

	deps := Deps{
		Orders:     service.NewOrderService(store.Orders(), store.Catalog(), store.Profiles(), hub, hub, domain.DefaultPricing(), log),
		Partners:   service.NewPartnerService(store.Partners(), ids, service.AdminCredentials{Username: "admin", PasswordHash: adminHash}, log),
		Auth:       service.NewAuthService(store.OTPs(), nopGateway{}, ids, service.DefaultOTPPolicy(), log),
		Catalog:    service.NewCatalogService(store.Catalog(), log),
		Profiles:   service.NewProfileService(store.Profiles(), log),
		Identities: ids,
		Log:        log,
	}
	return &testAPI{router: NewRouter([]string{"http://localhost:3000"}, deps), ids: ids}
}

type nopGateway struct{}

func (nopGateway) Send(context.Context, string, string) error { return nil }

func (a *testAPI) token(t *testing.T, role domain.Role, id, name string) string {
	t.Helper()
	tok, err := a.ids.Issue(identity.Identity{UID: id, DisplayName: name, Role: role})
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func orderBody() map[string]any {
	return map[string]any{
		"restaurantId":    "rest-1",
		"deliveryAddress": "12 Baker Street",
		"items": []map[string]any{
			{"id": "p1", "quantity": 2},
		},
	}
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")
	restaurant := api.token(t, domain.RoleRestaurant, "rest-1", "Pizza Place")
	dee := api.token(t, domain.RoleDriver, "drv-1", "Dee")
	dan := api.token(t, domain.RoleDriver, "drv-2", "Dan")

	w := api.do(t, http.MethodPost, "/orders", customer, orderBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, domain.OrderPlaced, order.Status)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(355)))
	base := "/orders/" + order.ID.String()

	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, base+"/accept", customer, nil).Code)
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, base+"/claim", dee, nil).Code)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, base+"/accept", restaurant, nil).Code)
	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, base+"/accept", restaurant, nil).Code)

	w = api.do(t, http.MethodGet, "/orders?view=available", dan, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var available []domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &available))
	assert.Len(t, available, 1)

	assert.Equal(t, http.StatusNoContent, api.do(t, http.MethodPost, base+"/claim", dee, nil).Code)
	assert.Equal(t, http.StatusConflict, api.do(t, http.MethodPost, base+"/claim", dan, nil).Code)

	advance := func(token string, status domain.OrderStatus) int {
		return api.do(t, http.MethodPost, base+"/advance", token, map[string]any{"status": status}).Code
	}
	assert.Equal(t, http.StatusForbidden, advance(dan, domain.OrderOutForDelivery))
	assert.Equal(t, http.StatusConflict, advance(dee, domain.OrderDelivered))
	assert.Equal(t, http.StatusNoContent, advance(dee, domain.OrderOutForDelivery))
	assert.Equal(t, http.StatusNoContent, advance(dee, domain.OrderDelivered))

	w = api.do(t, http.MethodGet, base, customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, domain.OrderDelivered, order.Status)
	require.NotNil(t, order.DriverName)
	assert.Equal(t, "Dee", *order.DriverName)

	other := api.token(t, domain.RoleCustomer, "cust-2", "Bob")
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, base, other, nil).Code)
}

func TestRequestValidation(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")

	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/orders", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/orders", "garbage", nil).Code)

	empty := orderBody()
	empty["items"] = []any{}
	w := api.do(t, http.MethodPost, "/orders", customer, empty)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid order")

	driver := api.token(t, domain.RoleDriver, "drv-1", "Dee")
	w = api.do(t, http.MethodGet, "/orders?view=everything", driver, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown view")
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/orders/stream?view=everything", driver, nil).Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/orders/not-a-uuid", customer, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/orders/0b6f1f8e-3c1f-4b9f-9a57-0f5b1c2d3e4f", customer, nil).Code)
}

func TestPartnerAdministration(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/auth/admin/login", "", map[string]string{"username": "admin", "password": "admin-pass"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	create := map[string]string{"username": "speedy", "password": "vroom", "role": "driver", "name": "Speedy"}
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPost, "/admin/partners", customer, create).Code)
	assert.Equal(t, http.StatusCreated, api.do(t, http.MethodPost, "/admin/partners", login.Token, create).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/admin/partners", login.Token, create).Code)

	w = api.do(t, http.MethodPost, "/auth/partner/login", "", map[string]string{"username": "speedy", "password": "vroom", "role": "restaurant"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "wrong portal")

	w = api.do(t, http.MethodPost, "/auth/partner/login", "", map[string]string{"username": "speedy", "password": "vroom", "role": "driver"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/restaurants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stores []domain.Storefront
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stores))
	require.Len(t, stores, 1)
	assert.Equal(t, "Pizza Place", stores[0].Name)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/restaurants/nope", "", nil).Code)

	admin := api.token(t, domain.RoleAdmin, "admin", "admin")
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")
	store := map[string]any{
		"name":    "Taco Stand",
		"cuisine": "Mexican",
		"menu":    []map[string]any{{"id": "t1", "name": "Taco", "price": "89.5"}},
	}
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodPut, "/admin/restaurants/tacos", customer, store).Code)
	require.Equal(t, http.StatusOK, api.do(t, http.MethodPut, "/admin/restaurants/tacos", admin, store).Code)

	store["menu"] = []map[string]any{{"id": "t1", "name": "Taco", "price": "89.505"}}
	w = api.do(t, http.MethodPut, "/admin/restaurants/tacos", admin, store)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "more than two decimals")

	w = api.do(t, http.MethodGet, "/restaurants/tacos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var tacos domain.Storefront
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tacos))
	require.Len(t, tacos.Menu, 1)
	assert.Equal(t, "89.5", tacos.Menu[0].Price.String())
}

func TestProfileAddressIsUsedForOrders(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")
	driver := api.token(t, domain.RoleDriver, "drv-1", "Dee")

	noAddress := orderBody()
	delete(noAddress, "deliveryAddress")
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPost, "/orders", customer, noAddress).Code)

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/profile", customer, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(t, http.MethodGet, "/profile", driver, nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/profile", customer, map[string]string{"city": "Pune"}).Code)

	w := api.do(t, http.MethodPut, "/profile", customer, map[string]string{"city": "Pune", "address": "7 MG Road"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(t, http.MethodGet, "/profile", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile domain.Profile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, "7 MG Road", profile.Address)

	w = api.do(t, http.MethodPost, "/orders", customer, noAddress)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	assert.Equal(t, "7 MG Road", order.DeliveryAddress)
}

func TestClientPricesAreIgnored(t *testing.T) {
	api := newTestAPI(t)
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")

	body := orderBody()
	body["restaurantName"] = "Somewhere Else"
	body["items"] = []map[string]any{{"id": "p1", "name": "Free Pizza", "unitPrice": "0.005", "quantity": 2}}
	w := api.do(t, http.MethodPost, "/orders", customer, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Pizza Place", created.RestaurantName)
	assert.Equal(t, "Margherita", created.Items[0].Name)
	assert.Equal(t, "355.00", created.Total.StringFixed(2))

	w = api.do(t, http.MethodGet, "/orders/"+created.ID.String(), customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored domain.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.True(t, created.Total.Equal(stored.Total))
}

func TestCodeRequestsAreThrottled(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]string{"phone": "+15550100199"}

	assert.Equal(t, http.StatusAccepted, api.do(t, http.MethodPost, "/auth/otp/request", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, api.do(t, http.MethodPost, "/auth/otp/request", "", body).Code)
}

func TestStreamOrders(t *testing.T) {
	api := newTestAPI(t)
	srv := httptest.NewServer(api.router)
	defer srv.Close()

	restaurant := api.token(t, domain.RoleRestaurant, "rest-1", "Pizza Place")
	customer := api.token(t, domain.RoleCustomer, "cust-1", "Alice")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/orders/stream?access_token="+restaurant, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := make(chan []domain.Order, 8)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data:")
			if !ok {
				continue
			}
			var orders []domain.Order
			if json.Unmarshal([]byte(data), &orders) == nil {
				events <- orders
			}
		}
	}()

	first := <-events
	assert.Empty(t, first)

	w := api.do(t, http.MethodPost, "/orders", customer, orderBody())
	require.Equal(t, http.StatusCreated, w.Code)

	for {
		select {
		case orders, ok := <-events:
			require.True(t, ok, "stream ended early")
			if len(orders) == 1 {
				assert.Equal(t, domain.OrderPlaced, orders[0].Status)
				return
			}
		case <-ctx.Done():
			t.Fatal("no snapshot with the new order")
		}
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", domain.ErrInvalidOrder), http.StatusBadRequest},
		{fmt.Errorf("%w: unknown view", domain.ErrInvalidRequest), http.StatusBadRequest},
		{service.ErrInvalidPhone, http.StatusBadRequest},
		{service.ErrInvalidProfile, http.StatusBadRequest},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrIllegalTransition, http.StatusConflict},
		{domain.ErrUnauthorized, http.StatusForbidden},
		{fmt.Errorf("op: %w: %w", domain.ErrCollaboratorUnavailable, errors.New("dial tcp")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
