package pricing

import (
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(DefaultRules(), WithClock(func() time.Time { return fixedNow }))
}

func cake() models.Product {
	return models.Product{ID: "TE001", Name: "Torta Especial de Cumpleaños", Price: 55000, Stock: 6}
}

func line(p models.Product, qty int) models.CartLine {
	return models.CartLine{Product: p, Qty: qty, Subtotal: p.Price * int64(qty)}
}

func totalsOf(lines ...models.CartLine) models.CartTotals {
	t := models.CartTotals{Items: lines}
	for _, l := range lines {
		t.Subtotal += l.Subtotal
		t.TotalQty += l.Qty
	}
	return t
}

func year(y int) *int { return &y }

func TestEvaluateCoupon(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name     string
		base     int64
		ship     int64
		code     string
		expected CouponResult
	}{
		{"blank", 10000, 3000, "  ", CouponResult{ShipAfter: 3000}},
		{"unknown", 10000, 3000, "NOPE", CouponResult{ShipAfter: 3000}},
		{"registration code is not a coupon", 10000, 3000, "felices50", CouponResult{ShipAfter: 3000}},
		{"amount off", 10000, 3000, "5000off", CouponResult{Valid: true, Discount: 5000, ShipAfter: 3000, Label: "$5.000 OFF", Code: "5000OFF"}},
		{"amount off clamps to base", 1200, 3000, "5000OFF", CouponResult{Valid: true, Discount: 1200, ShipAfter: 3000, Label: "$5.000 OFF", Code: "5000OFF"}},
		{"amount off on zero base", 0, 0, "5000OFF", CouponResult{Valid: true, Discount: 0, ShipAfter: 0, Label: "$5.000 OFF", Code: "5000OFF"}},
		{"free shipping", 10000, 6000, " enviogratis ", CouponResult{Valid: true, Discount: 0, ShipAfter: 0, Label: "Envío gratis", Code: "ENVIOGRATIS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, e.EvaluateCoupon(tt.base, tt.ship, tt.code))
		})
	}
}

func TestEvaluateCouponIsIdempotent(t *testing.T) {
	e := newTestEngine()
	first := e.EvaluateCoupon(25000, 6000, "5000OFF")
	second := e.EvaluateCoupon(25000, 6000, "5000OFF")
	assert.Equal(t, first, second)

	removed := e.EvaluateCoupon(25000, 6000, "")
	assert.False(t, removed.Valid)
}

func TestAmountOffNeverExceedsBase(t *testing.T) {
	e := newTestEngine()
	for base := int64(0); base <= 12000; base += 250 {
		got := e.EvaluateCoupon(base, 0, "5000OFF")
		assert.Equal(t, min(base, 5000), got.Discount, "base %d", base)
	}
}

func TestBenefitsWithoutSession(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, Benefits{}, e.Benefits(nil, []models.CartLine{line(cake(), 1)}, 55000))
}

func TestBirthdayStage(t *testing.T) {
	e := newTestEngine()
	items := []models.CartLine{line(cake(), 1)}

	tests := []struct {
		name     string
		session  models.CustomerSession
		items    []models.CartLine
		eligible bool
		applied  bool
	}{
		{"eligible with cake", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15"}, items, true, true},
		{"eligible without cake", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15"}, nil, true, false},
		{"cake matched by name", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15"},
			[]models.CartLine{line(models.Product{ID: "X9", Name: "TORTA ESPECIAL DE CUMPLEAÑOS grande", Price: 30000}, 1)}, true, true},
		{"other domain", models.CustomerSession{Email: "ana@gmail.com", Birthdate: "2000-10-15"}, items, false, false},
		{"professor domain is not the student domain", models.CustomerSession{Email: "ana@profesor.duoc.cl", Birthdate: "2000-10-15"}, items, false, false},
		{"not today", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-16"}, items, false, false},
		{"already redeemed this year", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15", BirthdayRedeemedYear: year(2026)}, items, false, false},
		{"redeemed last year", models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15", BirthdayRedeemedYear: year(2025)}, items, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out Benefits
			e.birthdayStage(benefitInput{session: tt.session, items: tt.items, now: fixedNow}, &out)
			assert.Equal(t, tt.eligible, out.BdayEligible)
			assert.Equal(t, tt.applied, out.BdayApplied)
			if tt.applied {
				assert.Equal(t, tt.items[0].Product.Price, out.BdayDisc)
			} else {
				assert.Zero(t, out.BdayDisc)
			}
		})
	}
}

func TestPercentStage(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name     string
		session  models.CustomerSession
		subtotal int64
		bday     int64
		expected int64
		label    string
	}{
		{"senior", models.CustomerSession{Birthdate: "1970-01-01"}, 50000, 0, 25000, "Beneficio de usuario (50% OFF)"},
		{"exactly fifty is not senior", models.CustomerSession{Birthdate: "1976-10-15"}, 50000, 0, 0, ""},
		{"fifty one today", models.CustomerSession{Birthdate: "1975-10-15"}, 50000, 0, 25000, "Beneficio de usuario (50% OFF)"},
		{"permanent promo", models.CustomerSession{Birthdate: "2000-01-01", PermanentPromo: true}, 50000, 0, 5000, "Beneficio de usuario (10% OFF)"},
		{"promo code on session", models.CustomerSession{Birthdate: "2000-01-01", PromoCode: "FELICES50"}, 12345, 0, 1235, "Beneficio de usuario (10% OFF)"},
		{"senior beats promo", models.CustomerSession{Birthdate: "1960-05-05", PermanentPromo: true}, 50000, 0, 25000, "Beneficio de usuario (50% OFF)"},
		{"computed after birthday discount", models.CustomerSession{Birthdate: "1960-05-05"}, 65001, 15000, 25001, "Beneficio de usuario (50% OFF)"},
		{"nothing", models.CustomerSession{Birthdate: "2000-01-01"}, 50000, 0, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Benefits{BdayDisc: tt.bday}
			e.percentStage(benefitInput{session: tt.session, subtotal: tt.subtotal, now: fixedNow}, &out)
			assert.Equal(t, tt.expected, out.UserDisc)
			assert.Equal(t, tt.label, out.UserLabel)
		})
	}
}

func TestQuoteBirthdayCakeScenario(t *testing.T) {
	e := newTestEngine()
	session := &models.CustomerSession{Email: "ana@duoc.cl", Birthdate: "2000-10-15"}

	q := e.Quote(totalsOf(line(cake(), 1)), session, "", 3000)

	assert.Equal(t, int64(55000), q.Benefits.BdayDisc)
	assert.True(t, q.Benefits.BdayApplied)
	assert.Equal(t, int64(0), q.Benefits.UserDisc)
	assert.Equal(t, int64(0), q.BaseAfterBenefits)
	assert.Equal(t, int64(3000), q.Shipping)
	assert.Equal(t, int64(3000), q.Total)
}

func TestQuoteSeniorWithCouponScenario(t *testing.T) {
	e := newTestEngine()
	session := &models.CustomerSession{Email: "luis@gmail.com", Birthdate: "1971-03-10"}
	tart := models.Product{ID: "TC002", Name: "Torta Cuadrada de Frutas", Price: 50000, Stock: 6}

	q := e.Quote(totalsOf(line(tart, 1)), session, "5000OFF", 6000)

	assert.Equal(t, int64(25000), q.Benefits.UserDisc)
	assert.Equal(t, int64(25000), q.BaseAfterBenefits)
	assert.Equal(t, int64(5000), q.Coupon.Discount)
	assert.Equal(t, int64(6000), q.Shipping)
	assert.Equal(t, int64(26000), q.Total)
}

func TestQuoteFreeShippingOverridesSelection(t *testing.T) {
	e := newTestEngine()
	mousse := models.Product{ID: "PI001", Name: "Mousse de Chocolate", Price: 5000, Stock: 6}

	q := e.Quote(totalsOf(line(mousse, 2)), nil, "ENVIOGRATIS", 6000)

	assert.Equal(t, int64(6000), q.SelectedShipping)
	assert.Equal(t, int64(0), q.Shipping)
	assert.Equal(t, int64(10000), q.Total)
}

func TestQuoteNeverNegative(t *testing.T) {
	e := newTestEngine()
	brownie := models.Product{ID: "PG001", Name: "Brownie Sin Gluten", Price: 4000, Stock: 6}

	q := e.Quote(totalsOf(line(brownie, 1)), nil, "5000OFF", -500)

	assert.Equal(t, int64(4000), q.Coupon.Discount)
	assert.Equal(t, int64(0), q.Shipping)
	assert.Equal(t, int64(0), q.Total)
}

func TestAgeAndBirthday(t *testing.T) {
	birth, ok := ParseDate("1976-10-16", time.UTC)
	assert.True(t, ok)
	assert.Equal(t, 49, Age(birth, fixedNow))
	assert.False(t, IsBirthday(birth, fixedNow))

	_, ok = ParseDate("16/10/1976", time.UTC)
	assert.False(t, ok)
	_, ok = ParseDate("", time.UTC)
	assert.False(t, ok)
}
