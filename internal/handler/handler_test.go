package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ambarika/storefront/internal/domain/order"
	"github.com/ambarika/storefront/internal/domain/product"
	"github.com/ambarika/storefront/internal/images"
	"github.com/ambarika/storefront/internal/payment"
)

const (
	testJWTSecret     = "test_jwt_secret"
	testGatewaySecret = "test_gateway_secret"
	testGatewayKeyID  = "rzp_test_key"
)

type fakeProductRepo struct {
	products map[int64]product.Product
	nextID   int64
}

func newFakeProductRepo(products ...product.Product) *fakeProductRepo {
	repo := &fakeProductRepo{products: map[int64]product.Product{}, nextID: 1}
	for _, p := range products {
		repo.products[p.ID] = p
		if p.ID >= repo.nextID {
			repo.nextID = p.ID + 1
		}
	}
	return repo
}

func (f *fakeProductRepo) List(context.Context) ([]product.Product, error) {
	out := make([]product.Product, 0, len(f.products))
	for _, p := range f.products {
		if !p.Deleted {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ListByCategory(_ context.Context, category string) ([]product.Product, error) {
	var out []product.Product
	for _, p := range f.products {
		if !p.Deleted && p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok || p.Deleted {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) SoftDelete(_ context.Context, id int64) error {
	p, ok := f.products[id]
	if !ok || p.Deleted {
		return product.ErrNotFound
	}
	p.Deleted = true
	f.products[id] = p
	return nil
}

func (f *fakeProductRepo) UnitPrice(_ context.Context, id int64) (decimal.Decimal, error) {
	p, ok := f.products[id]
	if !ok || p.Deleted {
		return decimal.Zero, product.ErrNotFound
	}
	return p.Price, nil
}

type fakeOrderRepo struct {
	orders map[int64]*order.Order
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[int64]*order.Order{}, nextID: 1}
}

func (f *fakeOrderRepo) Create(_ context.Context, o *order.Order) error {
	o.ID = f.nextID
	f.nextID++
	o.CreatedAt = time.Now()
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) List(context.Context) ([]order.Order, error) {
	out := make([]order.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, id int64, status order.Status) error {
	o, ok := f.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

type fakeGateway struct {
	calls int
	fail  bool
}

func (f *fakeGateway) CreateOrder(_ context.Context, amount decimal.Decimal, _ string) (*payment.GatewayOrder, error) {
	f.calls++
	if f.fail {
		return nil, &payment.GatewayError{Err: errors.New("gateway timeout")}
	}
	return &payment.GatewayOrder{
		ID:          fmt.Sprintf("order_gw%d", f.calls),
		AmountMinor: payment.MinorUnits(amount),
		Currency:    payment.Currency,
	}, nil
}

type fakeNotifier struct {
	sent int
}

func (f *fakeNotifier) OrderConfirmation(context.Context, *order.Order) error {
	f.sent++
	return nil
}

type fixture struct {
	mux      *http.ServeMux
	products *fakeProductRepo
	orders   *fakeOrderRepo
	gateway  *fakeGateway
	notifier *fakeNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := newFakeProductRepo(
		product.Product{ID: 1, Name: "Traditional Silk Dupatta", Price: decimal.RequireFromString("100.00"), Category: "Dupattas", ImageURL: "https://img.example/1.jpg"},
		product.Product{ID: 2, Name: "Designer Kurti", Price: decimal.RequireFromString("5999.00"), Category: "Kurtis", ImageURL: "https://img.example/2.jpg"},
	)
	orders := newFakeOrderRepo()
	gateway := &fakeGateway{}
	notifier := &fakeNotifier{}

	svc := order.NewService(
		order.NewVerifier(products),
		products,
		orders,
		gateway,
		payment.NewSignatureVerifier(testGatewaySecret),
		payment.NewReceiptGenerator(),
		notifier,
	)

	h := New(Config{
		GatewayKeyID: testGatewayKeyID,
		JWTSecret:    []byte(testJWTSecret),
	}, products, svc, images.NoopSigner{})

	mux := http.NewServeMux()
	h.Routes(mux)

	return &fixture{
		mux:      mux,
		products: products,
		orders:   orders,
		gateway:  gateway,
		notifier: notifier,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func asAdmin(t *testing.T) func(*http.Request) {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(dst))
}

func validOrderPayload() map[string]any {
	return map[string]any{
		"customerName": "Asha Rao",
		"email":        "asha@example.com",
		"phoneNumber":  "9876543210",
		"address":      "14 MG Road, Bengaluru",
		"items":        []map[string]any{{"id": 1, "quantity": 2}},
		"total":        "200.00",
	}
}

func signCallback(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testGatewaySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/orders", validOrderPayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		GatewayOrderID   string `json:"gatewayOrderId"`
		AmountMinorUnits int64  `json:"amountMinorUnits"`
		GatewayPublicKey string `json:"gatewayPublicKey"`
	}
	decodeBody(t, rec, &resp)

	assert.Equal(t, "order_gw1", resp.GatewayOrderID)
	assert.Equal(t, int64(20000), resp.AmountMinorUnits)
	assert.Equal(t, testGatewayKeyID, resp.GatewayPublicKey)

	// Checkout never persists an order.
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrder_TotalMismatch(t *testing.T) {
	f := newFixture(t)

	payload := validOrderPayload()
	payload["total"] = "199.00"

	rec := f.do(t, http.MethodPost, "/api/orders", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid order data", resp["message"])
	assert.Zero(t, f.gateway.calls, "gateway must not be reached on a rejected total")
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	payload := validOrderPayload()
	payload["items"] = []map[string]any{{"id": 999, "quantity": 1}}

	rec := f.do(t, http.MethodPost, "/api/orders", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.gateway.calls)
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_UnknownField(t *testing.T) {
	f := newFixture(t)

	payload := validOrderPayload()
	payload["discountCode"] = "FREE100"

	rec := f.do(t, http.MethodPost, "/api/orders", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder_GatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.fail = true

	rec := f.do(t, http.MethodPost, "/api/orders", validOrderPayload())
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var resp map[string]string
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Checkout unavailable", resp["message"])
}

func TestVerifyOrder(t *testing.T) {
	f := newFixture(t)

	payload := map[string]any{
		"gatewayOrderId": "order_gw1",
		"paymentId":      "pay_abc",
		"signature":      signCallback("order_gw1", "pay_abc"),
		"orderMetaData":  validOrderPayload(),
	}

	rec := f.do(t, http.MethodPost, "/api/orders/verify", payload)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	assert.True(t, resp["verified"])

	require.Len(t, f.orders.orders, 1)
	persisted := f.orders.orders[1]
	assert.Equal(t, order.StatusPending, persisted.Status)
	assert.Equal(t, "pay_abc", persisted.PaymentID)
	assert.Equal(t, "200.00", persisted.Total.StringFixed(2))
	assert.Equal(t, 1, f.notifier.sent)
}

func TestVerifyOrder_BadSignature(t *testing.T) {
	f := newFixture(t)

	payload := map[string]any{
		"gatewayOrderId": "order_gw1",
		"paymentId":      "pay_abc",
		"signature":      signCallback("order_gw1", "pay_tampered"),
		"orderMetaData":  validOrderPayload(),
	}

	rec := f.do(t, http.MethodPost, "/api/orders/verify", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	assert.False(t, resp["verified"])
	assert.Empty(t, f.orders.orders, "no order row for a failed verification")
	assert.Zero(t, f.notifier.sent)
}

func TestVerifyOrder_TamperedMetadata(t *testing.T) {
	// The signature is authentic but the metadata total no longer matches
	// catalog prices: the second verification pass must reject it.
	f := newFixture(t)

	meta := validOrderPayload()
	meta["total"] = "1.00"

	payload := map[string]any{
		"gatewayOrderId": "order_gw1",
		"paymentId":      "pay_abc",
		"signature":      signCallback("order_gw1", "pay_abc"),
		"orderMetaData":  meta,
	}

	rec := f.do(t, http.MethodPost, "/api/orders/verify", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	assert.False(t, resp["verified"])
	assert.Empty(t, f.orders.orders)
}

func TestVerifyOrder_MalformedBody(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/verify", bytes.NewBufferString("[]"))
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	assert.False(t, resp["verified"])
}

func TestListOrders_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/orders", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrders_RejectsExpiredToken(t *testing.T) {
	f := newFixture(t)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	rec := f.do(t, http.MethodGet, "/api/orders", nil, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	f.orders.orders[1] = &order.Order{
		ID:           1,
		CustomerName: "Asha Rao",
		Email:        "asha@example.com",
		Items: []order.Item{
			{ProductID: 1, Name: "Traditional Silk Dupatta", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
		},
		Total:     decimal.RequireFromString("200.00"),
		Status:    order.StatusPending,
		PaymentID: "pay_abc",
		CreatedAt: time.Now(),
	}

	rec := f.do(t, http.MethodGet, "/api/orders", nil, asAdmin(t))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []orderJSON
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "Asha Rao", resp[0].CustomerName)
	assert.Equal(t, "200.00", resp[0].Total)
	assert.Equal(t, "Pending", resp[0].Status)
	require.Len(t, resp[0].Items, 1)
	assert.Equal(t, "100.00", resp[0].Items[0].UnitPrice)
}

func TestSetOrderStatus(t *testing.T) {
	f := newFixture(t)
	f.orders.orders[1] = &order.Order{ID: 1, Status: order.StatusPending}

	rec := f.do(t, http.MethodPatch, "/api/orders/1", map[string]string{"status": "Processing"}, asAdmin(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusProcessing, f.orders.orders[1].Status)

	// Reapplying the current status succeeds.
	rec = f.do(t, http.MethodPatch, "/api/orders/1", map[string]string{"status": "Processing"}, asAdmin(t))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPatch, "/api/orders/1", map[string]string{"status": "Completed"}, asAdmin(t))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, order.StatusCompleted, f.orders.orders[1].Status)
}

func TestSetOrderStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	f.orders.orders[1] = &order.Order{ID: 1, Status: order.StatusCompleted}

	rec := f.do(t, http.MethodPatch, "/api/orders/1", map[string]string{"status": "Processing"}, asAdmin(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, order.StatusCompleted, f.orders.orders[1].Status)
}

func TestSetOrderStatus_UnknownStatus(t *testing.T) {
	f := newFixture(t)
	f.orders.orders[1] = &order.Order{ID: 1, Status: order.StatusPending}

	rec := f.do(t, http.MethodPatch, "/api/orders/1", map[string]string{"status": "Shipped"}, asAdmin(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSetOrderStatus_NotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/orders/99", map[string]string{"status": "Processing"}, asAdmin(t))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetOrderStatus_BadID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPatch, "/api/orders/abc", map[string]string{"status": "Processing"}, asAdmin(t))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []productJSON
	decodeBody(t, rec, &resp)
	assert.Len(t, resp, 2)
	for _, p := range resp {
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.Price)
	}
}

func TestListProductsByCategory(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/category/Kurtis", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []productJSON
	decodeBody(t, rec, &resp)
	require.Len(t, resp, 1)
	assert.Equal(t, "Designer Kurti", resp[0].Name)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/products/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productJSON
	decodeBody(t, rec, &resp)
	assert.Equal(t, int64(1), resp.ID)
	assert.Equal(t, "100.00", resp.Price)

	rec = f.do(t, http.MethodGet, "/api/products/99", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductAdminCRUD(t *testing.T) {
	f := newFixture(t)
	admin := asAdmin(t)

	// Create.
	rec := f.do(t, http.MethodPost, "/api/products", map[string]any{
		"name":        "Recycled Paper Necklace",
		"description": "Handcrafted necklace",
		"price":       "1999.00",
		"category":    "Jewelry",
		"imageUrl":    "https://img.example/3.jpg",
	}, admin)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created productJSON
	decodeBody(t, rec, &created)
	assert.Equal(t, "1999.00", created.Price)

	// Update.
	rec = f.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", created.ID), map[string]any{
		"name":        "Recycled Paper Necklace",
		"description": "Handcrafted necklace",
		"price":       "1499.00",
		"category":    "Jewelry",
		"imageUrl":    "https://img.example/3.jpg",
	}, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	// Soft delete hides it from reads and the price ledger.
	rec = f.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil, admin)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", created.ID), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	payload := validOrderPayload()
	payload["items"] = []map[string]any{{"id": created.ID, "quantity": 1}}
	payload["total"] = "1499.00"

	rec = f.do(t, http.MethodPost, "/api/orders", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code, "a soft-deleted product is not purchasable")
}

func TestProductMutations_RequireAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/products", map[string]any{"name": "X", "category": "Y", "price": "1.00"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/products/1", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProduct_Invalid(t *testing.T) {
	f := newFixture(t)
	admin := asAdmin(t)

	for _, payload := range []map[string]any{
		{"name": "", "category": "Jewelry", "price": "1.00"},
		{"name": "Necklace", "category": "", "price": "1.00"},
		{"name": "Necklace", "category": "Jewelry", "price": "0"},
		{"name": "Necklace", "category": "Jewelry", "price": "-5.00"},
	} {
		rec := f.do(t, http.MethodPost, "/api/products", payload, admin)
		require.Equal(t, http.StatusBadRequest, rec.Code, "payload %v", payload)
	}
}
