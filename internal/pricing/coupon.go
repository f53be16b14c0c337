package pricing

import "strings"

// Coupon is a user-entered code with a fixed effect. The two variants are
// AmountOff and FreeShipping; apply is unexported so the set stays closed.
type Coupon interface {
	Code() string
	Label() string
	apply(base, shipping int64) (discount, shipAfter int64)
}

// AmountOff takes a flat amount off the base, never below zero
type AmountOff struct {
	code  string
	label string
	value int64
}

// NewAmountOff creates a flat discount coupon
func NewAmountOff(code, label string, value int64) AmountOff {
	return AmountOff{code: NormalizeCode(code), label: label, value: value}
}

func (c AmountOff) Code() string  { return c.code }
func (c AmountOff) Label() string { return c.label }
func (c AmountOff) Value() int64  { return c.value }

func (c AmountOff) apply(base, shipping int64) (int64, int64) {
	return clamp(c.value, 0, max(0, base)), shipping
}

// FreeShipping zeroes the shipping cost and leaves the base untouched
type FreeShipping struct {
	code  string
	label string
}

// NewFreeShipping creates a shipping waiver coupon
func NewFreeShipping(code, label string) FreeShipping {
	return FreeShipping{code: NormalizeCode(code), label: label}
}

func (c FreeShipping) Code() string  { return c.code }
func (c FreeShipping) Label() string { return c.label }

func (c FreeShipping) apply(_, _ int64) (int64, int64) {
	return 0, 0
}

// DefaultCoupons returns the storefront's static coupon table
func DefaultCoupons() []Coupon {
	return []Coupon{
		NewFreeShipping("ENVIOGRATIS", "Envío gratis"),
		NewAmountOff("5000OFF", "$5.000 OFF", 5000),
	}
}

// CouponResult is the outcome of evaluating a code against a base and shipping cost
type CouponResult struct {
	Valid     bool   `json:"valid"`
	Discount  int64  `json:"discount"`
	ShipAfter int64  `json:"ship_after"`
	Label     string `json:"label,omitempty"`
	Code      string `json:"code,omitempty"`
}

// NormalizeCode trims and uppercases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}
