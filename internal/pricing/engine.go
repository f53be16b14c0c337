package pricing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"storefront/internal/models"
)

// Rules configures the identity-derived benefits
type Rules struct {
	// RegistrationCode grants the permanent promo at sign-up and is never a coupon
	RegistrationCode string
	BirthdayDomains  []string
	BirthdayCakeID   string
	BirthdayCakeName *regexp.Regexp
	SeniorAge        int
	SeniorPercent    int64
	PromoPercent     int64
}

// DefaultRules returns the storefront's benefit rules
func DefaultRules() Rules {
	return Rules{
		RegistrationCode: "FELICES50",
		BirthdayDomains:  []string{"duoc.cl"},
		BirthdayCakeID:   "TE001",
		BirthdayCakeName: regexp.MustCompile(`(?i)torta especial de cumpleaños`),
		SeniorAge:        50,
		SeniorPercent:    50,
		PromoPercent:     10,
	}
}

// Benefits is the breakdown of identity-derived discounts for a cart
type Benefits struct {
	UserDisc     int64  `json:"user_disc"`
	UserLabel    string `json:"user_label,omitempty"`
	BdayDisc     int64  `json:"bday_disc"`
	BdayLabel    string `json:"bday_label,omitempty"`
	BdayEligible bool   `json:"bday_eligible"`
	BdayApplied  bool   `json:"bday_applied"`
}

// Quote is the full price breakdown of a cart
type Quote struct {
	Items             []models.CartLine `json:"items"`
	Subtotal          int64             `json:"subtotal"`
	TotalQty          int               `json:"total_qty"`
	Benefits          Benefits          `json:"benefits"`
	BaseAfterBenefits int64             `json:"base_after_benefits"`
	Coupon            CouponResult      `json:"coupon"`
	SelectedShipping  int64             `json:"selected_shipping"`
	Shipping          int64             `json:"shipping"`
	Total             int64             `json:"total"`
}

// Engine evaluates coupons and benefits. It never mutates its inputs.
type Engine struct {
	rules   Rules
	coupons map[string]Coupon
	now     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the engine's clock
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCoupons replaces the coupon table
func WithCoupons(coupons ...Coupon) Option {
	return func(e *Engine) {
		e.coupons = make(map[string]Coupon, len(coupons))
		for _, c := range coupons {
			e.coupons[c.Code()] = c
		}
	}
}

// NewEngine creates a pricing engine with the default coupon table
func NewEngine(rules Rules, opts ...Option) *Engine {
	e := &Engine{rules: rules, now: time.Now}
	WithCoupons(DefaultCoupons()...)(e)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine's current time
func (e *Engine) Now() time.Time {
	return e.now()
}

// Rules returns the benefit rules in effect
func (e *Engine) Rules() Rules {
	return e.rules
}

// IsRegistrationCode reports whether code is the sign-up promo code
func (e *Engine) IsRegistrationCode(code string) bool {
	return e.rules.RegistrationCode != "" && NormalizeCode(code) == NormalizeCode(e.rules.RegistrationCode)
}

// EvaluateCoupon applies code to base and shipping. Unknown, blank and
// registration codes are invalid and leave shipping untouched.
func (e *Engine) EvaluateCoupon(base, shipping int64, code string) CouponResult {
	code = NormalizeCode(code)
	invalid := CouponResult{ShipAfter: shipping}
	if code == "" || e.IsRegistrationCode(code) {
		return invalid
	}
	coupon, ok := e.coupons[code]
	if !ok {
		return invalid
	}

	discount, shipAfter := coupon.apply(base, shipping)
	return CouponResult{
		Valid:     true,
		Discount:  discount,
		ShipAfter: shipAfter,
		Label:     coupon.Label(),
		Code:      code,
	}
}

type benefitInput struct {
	session  models.CustomerSession
	items    []models.CartLine
	subtotal int64
	now      time.Time
}

type stage func(in benefitInput, out *Benefits)

// Benefits runs the benefit pipeline: birthday cake first, then the
// percentage tier on what is left. A nil session gets nothing.
func (e *Engine) Benefits(session *models.CustomerSession, items []models.CartLine, subtotal int64) Benefits {
	var out Benefits
	if session == nil {
		return out
	}

	in := benefitInput{session: *session, items: items, subtotal: subtotal, now: e.now()}
	for _, s := range []stage{e.birthdayStage, e.percentStage} {
		s(in, &out)
	}
	return out
}

func (e *Engine) birthdayStage(in benefitInput, out *Benefits) {
	out.BdayEligible = e.birthdayEligible(in.session, in.now)
	if !out.BdayEligible {
		return
	}

	cake, ok := e.findCake(in.items)
	if !ok {
		return
	}
	out.BdayDisc = cake.Product.Price
	out.BdayLabel = "Beneficio DUOC: Torta de Cumpleaños gratis"
	out.BdayApplied = true
}

func (e *Engine) birthdayEligible(s models.CustomerSession, now time.Time) bool {
	if !e.inBirthdayDomain(s.Email) {
		return false
	}
	birth, ok := ParseDate(s.Birthdate, now.Location())
	if !ok || !IsBirthday(birth, now) {
		return false
	}
	return s.BirthdayRedeemedYear == nil || *s.BirthdayRedeemedYear != now.Year()
}

func (e *Engine) inBirthdayDomain(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, d := range e.rules.BirthdayDomains {
		if strings.HasSuffix(email, "@"+strings.ToLower(d)) {
			return true
		}
	}
	return false
}

func (e *Engine) findCake(items []models.CartLine) (models.CartLine, bool) {
	for _, it := range items {
		if it.Product.ID != e.rules.BirthdayCakeID &&
			(e.rules.BirthdayCakeName == nil || !e.rules.BirthdayCakeName.MatchString(it.Product.Name)) {
			continue
		}
		if it.Qty > 0 {
			return it, true
		}
		return models.CartLine{}, false
	}
	return models.CartLine{}, false
}

func (e *Engine) percentStage(in benefitInput, out *Benefits) {
	pct := e.percentFor(in.session, in.now)
	if pct == 0 {
		return
	}
	base := max(0, in.subtotal-out.BdayDisc)
	out.UserDisc = percentOf(base, pct)
	out.UserLabel = fmt.Sprintf("Beneficio de usuario (%d%% OFF)", pct)
}

// percentFor picks the single percentage tier; age wins over the promo flag
func (e *Engine) percentFor(s models.CustomerSession, now time.Time) int64 {
	if birth, ok := ParseDate(s.Birthdate, now.Location()); ok && Age(birth, now) > e.rules.SeniorAge {
		return e.rules.SeniorPercent
	}
	if s.PermanentPromo || e.IsRegistrationCode(s.PromoCode) {
		return e.rules.PromoPercent
	}
	return 0
}

// percentOf rounds half up to the integer currency unit
func percentOf(base, pct int64) int64 {
	return (base*pct + 50) / 100
}

// Quote assembles the final total: benefits, then coupon, then shipping,
// flooring at zero after each subtraction.
func (e *Engine) Quote(totals models.CartTotals, session *models.CustomerSession, code string, shipping int64) Quote {
	shipping = max(0, shipping)
	benefits := e.Benefits(session, totals.Items, totals.Subtotal)

	base := max(0, totals.Subtotal-benefits.BdayDisc-benefits.UserDisc)
	coupon := e.EvaluateCoupon(base, shipping, code)

	afterCoupon := base
	effectiveShip := shipping
	if coupon.Valid {
		afterCoupon = max(0, base-coupon.Discount)
		effectiveShip = coupon.ShipAfter
	}

	return Quote{
		Items:             totals.Items,
		Subtotal:          totals.Subtotal,
		TotalQty:          totals.TotalQty,
		Benefits:          benefits,
		BaseAfterBenefits: base,
		Coupon:            coupon,
		SelectedShipping:  shipping,
		Shipping:          effectiveShip,
		Total:             afterCoupon + effectiveShip,
	}
}
