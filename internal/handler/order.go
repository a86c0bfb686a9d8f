package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ambarika/storefront/internal/domain/order"
)

// orderDraftJSON is the checkout payload shared by /orders and the
// orderMetaData field of /orders/verify.
type orderDraftJSON struct {
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	PhoneNumber  string          `json:"phoneNumber"`
	Address      string          `json:"address"`
	Items        []lineItemJSON  `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

type lineItemJSON struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

func (j orderDraftJSON) toDraft() order.Draft {
	items := make([]order.LineItem, len(j.Items))
	for i, it := range j.Items {
		items[i] = order.LineItem{ProductID: it.ID, Quantity: it.Quantity}
	}
	return order.Draft{
		CustomerName: j.CustomerName,
		Email:        j.Email,
		PhoneNumber:  j.PhoneNumber,
		Address:      j.Address,
		Items:        items,
		ClaimedTotal: j.Total,
	}
}

type verifyOrderJSON struct {
	GatewayOrderID string         `json:"gatewayOrderId"`
	PaymentID      string         `json:"paymentId"`
	Signature      string         `json:"signature"`
	OrderMetaData  orderDraftJSON `json:"orderMetaData"`
}

type orderItemJSON struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
}

type orderJSON struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	Email        string          `json:"email"`
	PhoneNumber  string          `json:"phoneNumber"`
	Address      string          `json:"address"`
	Items        []orderItemJSON `json:"items"`
	Total        string          `json:"total"`
	Status       string          `json:"status"`
	PaymentID    string          `json:"paymentId"`
	Date         string          `json:"date"`
}

// createOrder handles POST /api/orders: verify the claimed total and open
// a gateway order for the verified amount. No storefront order is
// persisted here.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req orderDraftJSON
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid order data")
		return
	}

	gw, err := h.orders.Checkout(r.Context(), req.toDraft())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"gatewayOrderId":   gw.ID,
		"amountMinorUnits": gw.AmountMinor,
		"gatewayPublicKey": h.gatewayKeyID,
	})
}

// verifyOrder handles POST /api/orders/verify: authenticate the payment
// callback, re-verify the total, and persist the order. Signature and
// total mismatches both surface as 400 {verified:false} with no row
// created.
func (h *Handler) verifyOrder(w http.ResponseWriter, r *http.Request) {
	var req verifyOrderJSON
	if err := decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]bool{"verified": false})
		return
	}

	_, err := h.orders.ConfirmPayment(r.Context(), order.Callback{
		GatewayOrderID: req.GatewayOrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		Draft:          req.OrderMetaData.toDraft(),
	})
	if err != nil {
		h.writeVerifyError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"verified": true})
}

// writeVerifyError keeps the /orders/verify contract: every client-caused
// failure is 400 {verified:false}; only infrastructure errors are 5xx.
func (h *Handler) writeVerifyError(w http.ResponseWriter, r *http.Request, err error) {
	if orderErrorStatus(err) == http.StatusBadRequest {
		zctx.From(r.Context()).Info("Payment verification rejected", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]bool{"verified": false})
		return
	}
	writeOrderError(w, r, err)
}

// listOrders handles GET /api/orders (admin).
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeOrderError(w, r, err)
		return
	}

	out := make([]orderJSON, len(orders))
	for i := range orders {
		out[i] = toOrderJSON(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// setOrderStatus handles PATCH /api/orders/{id} (admin). Reapplying the
// current status succeeds without touching the row.
func (h *Handler) setOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := decode(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid order data")
		return
	}

	status, err := order.ParseStatus(req.Status)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid order status")
		return
	}

	if err := h.orders.SetStatus(r.Context(), id, status); err != nil {
		h.writeStatusError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) writeStatusError(w http.ResponseWriter, r *http.Request, err error) {
	var trErr *order.TransitionError
	switch {
	case errors.Is(err, order.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Order not found")
	case errors.As(err, &trErr):
		writeMessage(w, http.StatusBadRequest, trErr.Error())
	default:
		writeOrderError(w, r, err)
	}
}

func toOrderJSON(o *order.Order) orderJSON {
	items := make([]orderItemJSON, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemJSON{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice.StringFixed(2),
		}
	}
	return orderJSON{
		ID:           o.ID,
		CustomerName: o.CustomerName,
		Email:        o.Email,
		PhoneNumber:  o.PhoneNumber,
		Address:      o.Address,
		Items:        items,
		Total:        o.Total.StringFixed(2),
		Status:       string(o.Status),
		PaymentID:    o.PaymentID,
		Date:         o.CreatedAt.Format(time.RFC3339),
	}
}
