package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/catalog"
	"github.com/dejobratic/storefront/internal/checkout"
	"github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// ProductSource is the slice of the catalog client the order flow needs.
type ProductSource interface {
	Get(ctx context.Context, id int) (catalog.Product, error)
}

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	carts   *cart.Manager
	catalog ProductSource
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, carts *cart.Manager, catalog ProductSource) *Handler {
	return &Handler{service: service, carts: carts, catalog: catalog}
}

// Register binds the order handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/orders", h.handleOrders)
	mux.HandleFunc("/v1/orders/", h.handleOrderByID)
}

func (h *Handler) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createOrder(w, r)
	case http.MethodGet:
		h.listOrders(w, r)
	case http.MethodDelete:
		h.clearOrders(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/orders/"), "/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if id == "summary" {
		h.handleSummary(w, r)
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.deleteOrder(w, r, id)
}

type createOrderRequest struct {
	SelectedIDs   []string       `json:"selected_ids"`
	BuyNow        *buyNowRequest `json:"buy_now"`
	PaymentMethod string         `json:"payment_method"`
	Billing       domain.Billing `json:"billing"`
}

type buyNowRequest struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey == "" {
		writeError(w, http.StatusBadRequest, "Idempotency-Key header required")
		return
	}

	if stored, err := h.service.GetIdempotentResponse(ctx, idemKey); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	} else if stored != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(stored.StatusCode)
		_, _ = w.Write(stored.Body)
		return
	}

	var payload createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	method := domain.PaymentMethod(payload.PaymentMethod)

	var draft checkout.Draft
	var sessionCart *cart.Store

	if payload.BuyNow != nil {
		product, err := h.catalog.Get(ctx, payload.BuyNow.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				writeError(w, http.StatusNotFound, "product not found")
				return
			}
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		draft = checkout.BuyNow(product.LineItem(), payload.BuyNow.Quantity, method)
	} else {
		sessionCart = h.carts.GetOrCreate(sessionID(r))

		var err error
		draft, err = checkout.Prepare(sessionCart, payload.SelectedIDs, method)
		if err != nil {
			writeDomainError(w, err)
			return
		}
	}

	order, err := h.service.PlaceOrder(ctx, draft, payload.Billing)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Purchased lines leave the cart; unselected lines stay.
	if sessionCart != nil {
		for _, item := range draft.Items {
			sessionCart.Remove(item.ID)
		}
	}

	body, err := json.Marshal(map[string]any{"order": order})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stored := ports.StoredResponse{
		StatusCode: http.StatusCreated,
		Body:       body,
		OrderID:    order.ID,
	}

	if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil {
			limit = parsed
		}
	}

	orders, err := h.service.ListOrders(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	summary, err := h.service.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.service.DeleteOrder(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearOrders(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearOrders(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeDomainError maps validation failures from the checkout and order
// domain to 422, everything else to 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrNoSelection),
		errors.Is(err, domain.ErrIncompleteBilling),
		errors.Is(err, domain.ErrInvalidPaymentMethod):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
