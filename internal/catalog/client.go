package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/storefront/internal/cart"
)

var ErrProductNotFound = errors.New("product not found")

// Product is a catalog record as served by the upstream product API.
type Product struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Rating      float64         `json:"rating"`
	Thumbnail   string          `json:"thumbnail"`
	Images      []string        `json:"images"`
}

// LineItem converts a product into a cart line. The image falls back to the
// first gallery image when no thumbnail is set.
func (p Product) LineItem() cart.LineItem {
	image := p.Thumbnail
	if image == "" && len(p.Images) > 0 {
		image = p.Images[0]
	}

	return cart.LineItem{
		ID:          strconv.Itoa(p.ID),
		Title:       p.Title,
		Price:       p.Price,
		Image:       image,
		Description: p.Description,
	}
}

// Page is one slice of the catalog listing.
type Page struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
	Skip     int       `json:"skip"`
	Limit    int       `json:"limit"`
}

// Client fetches products from the upstream catalog over HTTP.
type Client struct {
	http *resty.Client
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// List returns one page of products. A limit of 0 leaves paging to the
// upstream defaults.
func (c *Client) List(ctx context.Context, limit, skip int) (Page, error) {
	var page Page

	req := c.http.R().SetContext(ctx).SetResult(&page)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if skip > 0 {
		req.SetQueryParam("skip", strconv.Itoa(skip))
	}

	resp, err := req.Get("/products")
	if err != nil {
		return Page{}, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return Page{}, fmt.Errorf("list products: upstream returned %d", resp.StatusCode())
	}

	return page, nil
}

// Get fetches a single product by id.
func (c *Client) Get(ctx context.Context, id int) (Product, error) {
	var product Product

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&product).
		Get("/products/" + strconv.Itoa(id))
	if err != nil {
		return Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	if resp.StatusCode() == 404 {
		return Product{}, fmt.Errorf("get product %d: %w", id, ErrProductNotFound)
	}
	if resp.IsError() {
		return Product{}, fmt.Errorf("get product %d: upstream returned %d", id, resp.StatusCode())
	}

	return product, nil
}

// Search runs a full-text query against the catalog.
func (c *Client) Search(ctx context.Context, query string) (Page, error) {
	var page Page

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&page).
		SetQueryParam("q", query).
		Get("/products/search")
	if err != nil {
		return Page{}, fmt.Errorf("search products: %w", err)
	}
	if resp.IsError() {
		return Page{}, fmt.Errorf("search products: upstream returned %d", resp.StatusCode())
	}

	return page, nil
}
