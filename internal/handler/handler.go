// Package handler exposes the storefront HTTP API.
package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/ambarika/storefront/internal/domain/order"
	"github.com/ambarika/storefront/internal/domain/product"
	"github.com/ambarika/storefront/internal/images"
	"github.com/ambarika/storefront/internal/payment"
)

// maxBodyBytes caps request body size; no legitimate payload comes close.
const maxBodyBytes = 1 << 20

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// GatewayKeyID is the Razorpay public key id handed to the browser
	// checkout widget.
	GatewayKeyID string
	// JWTSecret verifies admin bearer tokens.
	JWTSecret []byte
}

// Handler implements the HTTP API, delegating business logic to the
// injected domain services.
type Handler struct {
	products     product.Repository
	orders       *order.Service
	signer       images.Signer
	gatewayKeyID string
	jwtSecret    []byte
}

// New constructs a Handler with the required dependencies.
func New(cfg Config, products product.Repository, orders *order.Service, signer images.Signer) *Handler {
	return &Handler{
		products:     products,
		orders:       orders,
		signer:       signer,
		gatewayKeyID: cfg.GatewayKeyID,
		jwtSecret:    cfg.JWTSecret,
	}
}

// Routes registers all API endpoints on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/category/{category}", h.listProductsByCategory)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products", h.adminOnly(h.createProduct))
	mux.HandleFunc("PUT /api/products/{id}", h.adminOnly(h.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", h.adminOnly(h.deleteProduct))

	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("POST /api/orders/verify", h.verifyOrder)
	mux.HandleFunc("GET /api/orders", h.adminOnly(h.listOrders))
	mux.HandleFunc("PATCH /api/orders/{id}", h.adminOnly(h.setOrderStatus))
}

// decode reads a JSON body into dst, rejecting unknown fields and
// oversized payloads.
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, "decode body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// orderErrorStatus classifies a checkout-flow error: business-rule
// rejections (validation, unknown product, price or signature mismatch)
// are 400, gateway transport failures are 502, everything else 500.
func orderErrorStatus(err error) int {
	var (
		valErr      *order.ValidationError
		qtyErr      *order.InvalidQuantityError
		notFoundErr *order.ProductNotFoundError
		priceErr    *order.PriceMismatchError
		gwErr       *payment.GatewayError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.Is(err, payment.ErrSignatureMismatch),
		errors.As(err, &valErr),
		errors.As(err, &qtyErr),
		errors.As(err, &notFoundErr),
		errors.As(err, &priceErr):
		return http.StatusBadRequest
	case errors.As(err, &gwErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeOrderError maps domain errors from the checkout flow onto the HTTP
// surface. Rejections use a generic message so internal pricing/schema
// detail never leaks.
func writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch orderErrorStatus(err) {
	case http.StatusBadRequest:
		zctx.From(r.Context()).Info("Order rejected", zap.Error(err))
		writeMessage(w, http.StatusBadRequest, "Invalid order data")
	case http.StatusBadGateway:
		zctx.From(r.Context()).Error("Payment gateway failure", zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "Checkout unavailable")
	default:
		zctx.From(r.Context()).Error("Order handling failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal Server Error")
	}
}
