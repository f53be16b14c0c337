package service

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/store"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Reasons a cart operation applied less than what was asked for
const (
	ReasonUnavailable = "unavailable"
	ReasonOutOfStock  = "out_of_stock"
	ReasonClamped     = "clamped"
)

// CartAdjustment reports what a cart operation actually did
type CartAdjustment struct {
	ProductID string `json:"id"`
	Requested int    `json:"requested"`
	Applied   int    `json:"applied"`
	Reason    string `json:"reason,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

// Adjusted reports whether the request was not applied as given
func (a CartAdjustment) Adjusted() bool {
	return a.Reason != ""
}

func (a CartAdjustment) with(reason, notice string) CartAdjustment {
	a.Reason = reason
	a.Notice = notice
	util.CartAdjustmentsTotal.WithLabelValues(reason).Inc()
	return a
}

// CartService manages the cart of the current identity
type CartService struct {
	state  *State
	logger *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(state *State) *CartService {
	return &CartService{
		state:  state,
		logger: util.GetLogger(),
	}
}

// Add puts qty units of a product in the cart, merging with the entry that
// has the same message. The quantity is floored at 1 and clamped to the stock
// not already in the cart.
func (c *CartService) Add(ctx context.Context, productID string, qty int, msg string) CartAdjustment {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	desired := max(1, qty)
	adj := CartAdjustment{ProductID: productID, Requested: desired}

	product, _, ok := c.state.findProduct(productID)
	if !ok {
		return adj.with(ReasonUnavailable, "Este producto ya no está disponible.")
	}
	if product.Stock <= 0 {
		return adj.with(ReasonOutOfStock, "Sin stock disponible.")
	}

	cart := append([]models.CartEntry(nil), c.state.cart...)
	idx := indexOfEntry(cart, productID, msg)
	current := 0
	if idx >= 0 {
		current = cart[idx].Qty
	}

	remaining := max(0, product.Stock-current)
	if remaining == 0 {
		return adj.with(ReasonOutOfStock, "Sin stock disponible.")
	}

	toAdd := min(desired, remaining)
	adj.Applied = toAdd
	if idx >= 0 {
		cart[idx].Qty += toAdd
	} else {
		cart = append(cart, models.CartEntry{ProductID: productID, Qty: toAdd, Message: msg})
	}
	c.state.setCart(ctx, cart)

	if toAdd < desired {
		return adj.with(ReasonClamped,
			fmt.Sprintf("Solo quedan %d unidad(es). Se agregaron %d.", product.Stock, toAdd))
	}
	return adj
}

// SetQty sets the quantity of an existing entry, clamped into [0, stock].
// Zero removes the entry; unknown products and entries are left alone.
func (c *CartService) SetQty(ctx context.Context, productID string, qty int, msg string) CartAdjustment {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	desired := max(0, qty)
	adj := CartAdjustment{ProductID: productID, Requested: desired}

	product, _, ok := c.state.findProduct(productID)
	if !ok {
		return adj
	}
	idx := indexOfEntry(c.state.cart, productID, msg)
	if idx < 0 {
		return adj
	}

	next := min(desired, product.Stock)
	adj.Applied = next

	cart := append([]models.CartEntry(nil), c.state.cart...)
	if next == 0 {
		cart = append(cart[:idx], cart[idx+1:]...)
	} else {
		cart[idx].Qty = next
	}
	c.state.setCart(ctx, cart)

	if desired > product.Stock {
		return adj.with(ReasonClamped, fmt.Sprintf("Stock disponible: %d", product.Stock))
	}
	return adj
}

// Remove drops the entry with the given product and message
func (c *CartService) Remove(ctx context.Context, productID, msg string) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	idx := indexOfEntry(c.state.cart, productID, msg)
	if idx < 0 {
		return
	}
	cart := append([]models.CartEntry(nil), c.state.cart...)
	c.state.setCart(ctx, append(cart[:idx], cart[idx+1:]...))
}

// Clear empties the cart of the current identity
func (c *CartService) Clear(ctx context.Context) {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.state.setCart(ctx, []models.CartEntry{})
}

// Entries returns a copy of the raw cart entries
func (c *CartService) Entries(ctx context.Context) []models.CartEntry {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return append([]models.CartEntry{}, c.state.cart...)
}

// Totals resolves the cart against the live catalog
func (c *CartService) Totals(ctx context.Context) models.CartTotals {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return c.state.cartTotals()
}

// SetShipping stores the selected shipping cost, floored at 0
func (c *CartService) SetShipping(ctx context.Context, cost int64) int64 {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.state.shipping = max(0, cost)
	c.state.persist(ctx, store.KeyShipping, c.state.shipping)
	return c.state.shipping
}

// Shipping returns the selected shipping cost
func (c *CartService) Shipping(ctx context.Context) int64 {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return c.state.shipping
}

// SetCoupon stores the entered coupon code; an empty code clears it
func (c *CartService) SetCoupon(ctx context.Context, code string) string {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	c.state.coupon = pricing.NormalizeCode(code)
	c.state.persist(ctx, store.KeyCoupon, c.state.coupon)
	return c.state.coupon
}

// Coupon returns the entered coupon code
func (c *CartService) Coupon(ctx context.Context) string {
	c.state.mu.Lock()
	defer c.state.mu.Unlock()

	return c.state.coupon
}

func indexOfEntry(cart []models.CartEntry, productID, msg string) int {
	for i, e := range cart {
		if e.Matches(productID, msg) {
			return i
		}
	}
	return -1
}

// mergeCarts sums quantities per (product, message), keeping first-seen order
func mergeCarts(carts ...[]models.CartEntry) []models.CartEntry {
	merged := make([]models.CartEntry, 0)
	index := make(map[string]int)
	for _, cart := range carts {
		for _, e := range cart {
			if e.Qty <= 0 || strings.TrimSpace(e.ProductID) == "" {
				continue
			}
			if i, ok := index[e.Key()]; ok {
				merged[i].Qty += e.Qty
				continue
			}
			index[e.Key()] = len(merged)
			merged = append(merged, e)
		}
	}
	return merged
}
