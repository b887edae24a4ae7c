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
	"github.com/dejobratic/storefront/internal/pricing"
)

// CartHandler exposes the session cart over HTTP. Totals are recomputed from
// the live cart on every read; nothing derived is cached.
type CartHandler struct {
	carts   *cart.Manager
	catalog ProductSource
	calc    *pricing.Calculator
}

func NewCartHandler(carts *cart.Manager, catalog ProductSource, calc *pricing.Calculator) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, calc: calc}
}

func (h *CartHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/cart", h.handleCart)
	mux.HandleFunc("/v1/cart/items", h.handleItems)
	mux.HandleFunc("/v1/cart/items/", h.handleItemByID)
}

type cartResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals pricing.Totals  `json:"totals"`
}

func (h *CartHandler) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.writeCart(w, h.sessionCart(r))
}

func (h *CartHandler) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload struct {
		ProductID int `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	product, err := h.catalog.Get(r.Context(), payload.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	store := h.sessionCart(r)
	store.Add(product.LineItem())

	h.writeCart(w, store)
}

func (h *CartHandler) handleItemByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/cart/items/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	}

	store := h.sessionCart(r)

	if id, ok := strings.CutSuffix(rest, "/decrease"); ok {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		store.DecreaseQty(strings.Trim(id, "/"))
		h.writeCart(w, store)
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	store.Remove(rest)
	h.writeCart(w, store)
}

func (h *CartHandler) sessionCart(r *http.Request) *cart.Store {
	return h.carts.GetOrCreate(sessionID(r))
}

func (h *CartHandler) writeCart(w http.ResponseWriter, store *cart.Store) {
	writeJSON(w, http.StatusOK, cartResponse{
		Items:  store.Items(),
		Totals: store.Totals(h.calc),
	})
}

// CatalogSource is the full catalog surface the product proxy forwards to.
type CatalogSource interface {
	ProductSource
	List(ctx context.Context, limit, skip int) (catalog.Page, error)
	Search(ctx context.Context, query string) (catalog.Page, error)
}

// ProductHandler proxies catalog reads to the upstream product API.
type ProductHandler struct {
	catalog CatalogSource
}

func NewProductHandler(catalog CatalogSource) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

func (h *ProductHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/v1/products", h.handleList)
	mux.HandleFunc("/v1/products/", h.handleByID)
}

func (h *ProductHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := queryInt(r, "limit")
	skip := queryInt(r, "skip")

	page, err := h.catalog.List(r.Context(), limit, skip)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *ProductHandler) handleByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/products/"), "/")

	if rest == "search" {
		page, err := h.catalog.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	id, err := strconv.Atoi(rest)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, product)
}

func queryInt(r *http.Request, name string) int {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return value
}
