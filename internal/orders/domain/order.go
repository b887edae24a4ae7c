package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/cart"
	"github.com/dejobratic/storefront/internal/pricing"
)

// PaymentMethod identifies how the customer chose to pay.
type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cod"
)

// Valid reports whether the method is one of the supported kinds.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCard, PaymentCashOnDelivery:
		return true
	default:
		return false
	}
}

// ErrIncompleteBilling is returned when billing details are missing a required
// field. Callers are expected to re-prompt the user; nothing is persisted.
var ErrIncompleteBilling = errors.New("incomplete billing details")

// ErrInvalidPaymentMethod is returned when a payment method is not one of the
// supported kinds.
var ErrInvalidPaymentMethod = errors.New("invalid payment method")

// Billing holds the customer's billing details. All fields are required.
type Billing struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// Validate ensures every billing field is present and non-blank.
func (b Billing) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrIncompleteBilling)
	}
	if strings.TrimSpace(b.Phone) == "" {
		return fmt.Errorf("%w: phone is required", ErrIncompleteBilling)
	}
	if strings.TrimSpace(b.Address) == "" {
		return fmt.Errorf("%w: address is required", ErrIncompleteBilling)
	}
	return nil
}

// Order is a placed order as persisted in the ledger. Items and totals are
// snapshots frozen at placement time, decoupled from any live cart. Orders are
// immutable once created; the only lifecycle events are creation and deletion.
//
// The JSON field layout is the on-storage contract and must round-trip exactly.
type Order struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"date"`
	Items         []cart.LineItem `json:"items"`
	Billing       Billing         `json:"billing"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Totals        pricing.Totals  `json:"totals"`
}

// Validate ensures the order adheres to business constraints.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return errors.New("order id is required")
	}
	if len(o.Items) == 0 {
		return errors.New("order must contain at least one item")
	}
	for _, item := range o.Items {
		if item.Quantity < 1 {
			return fmt.Errorf("item %s has quantity %d, want at least 1", item.ID, item.Quantity)
		}
	}
	if !o.PaymentMethod.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, o.PaymentMethod)
	}
	return o.Billing.Validate()
}

// NewID derives a fresh order id from the current time. When the derived value
// is already taken it is bumped until unique, so two placements within one
// millisecond never collide.
func NewID(now time.Time, taken func(id string) bool) string {
	ms := now.UnixMilli()
	id := fmt.Sprintf("%d", ms)
	for taken != nil && taken(id) {
		ms++
		id = fmt.Sprintf("%d", ms)
	}
	return id
}
