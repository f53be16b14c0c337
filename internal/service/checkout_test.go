package service

import (
	"context"
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutEmptyCartIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	before := len(f.state.orders)

	result, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}})

	require.NoError(t, err)
	assert.False(t, result.Placed)
	assert.Len(t, f.state.orders, before)
	assert.Empty(t, f.presenter.receipts)
}

func TestCheckoutGuestNeedsContact(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.cart.Add(ctx, "TC001", 2, "")

	tests := []struct {
		name   string
		guest  *GuestContact
		fields []string
	}{
		{"no contact", nil, []string{"name", "email"}},
		{"missing name", &GuestContact{Name: "  ", Email: "pedro@mail.com"}, []string{"name"}},
		{"bad email", &GuestContact{Name: "Pedro", Email: "pedro@mail"}, []string{"email"}},
		{"email with spaces", &GuestContact{Name: "Pedro", Email: "pe dro@mail.com"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: tt.guest})

			var verrs validation.Errors
			require.ErrorAs(t, err, &verrs)
			assert.Len(t, verrs, len(tt.fields))
			for _, field := range tt.fields {
				assert.Contains(t, verrs, field)
			}
			assert.False(t, result.Placed)
		})
	}

	p, _ := f.catalog.Get(ctx, "TC001")
	assert.Equal(t, 6, p.Stock)
	assert.Len(t, f.cart.Entries(ctx), 1)
	assert.Empty(t, f.presenter.receipts)
}

func TestGuestCheckout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cart.Add(ctx, "TC001", 2, "Feliz día")
	f.cart.Add(ctx, "PI001", 1, "")
	f.cart.SetShipping(ctx, 3000)
	before := len(f.state.orders)

	result, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}})
	require.NoError(t, err)
	require.True(t, result.Placed)
	require.NotNil(t, result.Order)

	assert.Equal(t, int64(2*45000+5000+3000), result.Quote.Total)

	order := result.Order
	assert.Equal(t, fmt.Sprintf("PED%d", fixedNow.UnixMilli()), order.ID)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "Pedro", order.Customer)
	assert.Equal(t, result.Quote.Total, order.Total)
	assert.Equal(t, []models.OrderItem{
		{Code: "TC001", Name: "Torta Cuadrada de Chocolate", Qty: 2, Price: 45000},
		{Code: "PI001", Name: "Mousse de Chocolate", Qty: 1, Price: 5000},
	}, order.Items)

	stored := store.ReadJSON[[]models.Order](ctx, f.kv, store.KeyOrders, nil)
	require.Len(t, stored, before+1)
	assert.Equal(t, order.ID, stored[len(stored)-1].ID)

	tc, _ := f.catalog.Get(ctx, "TC001")
	assert.Equal(t, 4, tc.Stock)
	pi, _ := f.catalog.Get(ctx, "PI001")
	assert.Equal(t, 5, pi.Stock)

	assert.Empty(t, f.cart.Entries(ctx))
	assert.Empty(t, store.ReadJSON[[]models.CartEntry](ctx, f.kv, store.KeyGuestCart, nil))

	require.Len(t, f.presenter.receipts, 1)
	assert.Equal(t, "pedro@mail.com", f.presenter.receipts[0].Contact)
	require.Len(t, f.events.placed, 1)
	assert.Equal(t, order.ID, f.events.placed[0].OrderID)
	assert.Equal(t, models.EventTypeOrderPlaced, f.events.placed[0].EventType)
}

func TestOrderSnapshotsSurviveCatalogChanges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cart.Add(ctx, "PI001", 1, "")
	result, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}})
	require.NoError(t, err)

	p, _ := f.catalog.Get(ctx, "PI001")
	p.Price = 9999
	p.Name = "Renamed"
	_, err = f.catalog.Upsert(ctx, p)
	require.NoError(t, err)

	f.staffLogin(t)
	order, err := f.orders.Get(ctx, result.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderItem{Code: "PI001", Name: "Mousse de Chocolate", Qty: 1, Price: 5000}, order.Items[0])
}

func TestStockNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.cart.Add(ctx, "PG001", 6, "")
	p, _ := f.catalog.Get(ctx, "PG001")
	p.Stock = 2
	_, err := f.catalog.Upsert(ctx, p)
	require.NoError(t, err)

	_, err = f.checkout.Checkout(ctx, CheckoutRequest{Guest: &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}})
	require.NoError(t, err)

	p, _ = f.catalog.Get(ctx, "PG001")
	assert.Equal(t, 0, p.Stock)
}

func TestBirthdayCakeRedeemedOncePerYear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.register(t, "ana@duoc.cl", "2000-10-15", "")
	f.cart.Add(ctx, "TE001", 1, "")
	f.cart.SetShipping(ctx, 3000)

	quote := f.checkout.Quote(ctx)
	require.True(t, quote.Benefits.BdayApplied)
	assert.Equal(t, int64(3000), quote.Total)

	result, err := f.checkout.Checkout(ctx, CheckoutRequest{})
	require.NoError(t, err)
	require.True(t, result.Placed)
	assert.Equal(t, int64(3000), result.Order.Total)
	assert.Equal(t, "Ana", result.Order.Customer)

	session := f.accounts.Session(ctx)
	require.NotNil(t, session.BirthdayRedeemedYear)
	assert.Equal(t, 2026, *session.BirthdayRedeemedYear)

	accounts := store.ReadJSON[[]models.CustomerAccount](ctx, f.kv, store.KeyCustomers, nil)
	require.NotNil(t, accounts[0].BirthdayRedeemedYear)
	assert.Equal(t, 2026, *accounts[0].BirthdayRedeemedYear)

	f.cart.Add(ctx, "TE001", 1, "")
	quote = f.checkout.Quote(ctx)
	assert.False(t, quote.Benefits.BdayEligible)
	assert.False(t, quote.Benefits.BdayApplied)
	assert.Equal(t, int64(55000+3000), quote.Total)
}

func TestSeniorCheckoutWithCoupon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.register(t, "luis@gmail.com", "1971-03-10", "")
	f.cart.Add(ctx, "TC002", 1, "")
	f.cart.SetCoupon(ctx, "5000off")
	f.cart.SetShipping(ctx, 6000)

	result, err := f.checkout.Checkout(ctx, CheckoutRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(25000), result.Quote.Benefits.UserDisc)
	assert.Equal(t, int64(5000), result.Quote.Coupon.Discount)
	assert.Equal(t, int64(26000), result.Order.Total)
	assert.Nil(t, f.accounts.Session(ctx).BirthdayRedeemedYear)
}

func TestCheckoutDuplicateSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	guest := &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}

	f.cart.Add(ctx, "PI001", 1, "")
	first, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: guest, IdempotencyKey: "abc"})
	require.NoError(t, err)
	assert.True(t, first.Placed)

	f.cart.Add(ctx, "PI001", 1, "")
	second, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: guest, IdempotencyKey: "abc"})
	require.NoError(t, err)
	assert.True(t, second.Duplicate)
	assert.False(t, second.Placed)
	assert.Len(t, f.cart.Entries(ctx), 1)
	assert.Len(t, f.events.placed, 1)
}

func TestCheckoutContinuesWhenLedgerFails(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: store.NewMemory(), key: store.KeyOrders}
	f := newFixtureWithKV(t, kv)

	f.cart.Add(ctx, "PI001", 2, "")
	result, err := f.checkout.Checkout(ctx, CheckoutRequest{Guest: &GuestContact{Name: "Pedro", Email: "pedro@mail.com"}})

	require.NoError(t, err)
	assert.True(t, result.Placed)
	assert.Nil(t, result.Order)
	assert.Empty(t, f.cart.Entries(ctx))
	p, _ := f.catalog.Get(ctx, "PI001")
	assert.Equal(t, 4, p.Stock)
	assert.Empty(t, f.events.placed)
}

func TestReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, "ana@duoc.cl", "2000-10-15", "")
	f.cart.Add(ctx, "TE001", 1, "Feliz cumpleaños")
	f.cart.SetCoupon(ctx, "ENVIOGRATIS")
	f.cart.SetShipping(ctx, 6000)

	r := NewReceipt(f.checkout.Quote(ctx), "ana@duoc.cl", fixedNow)

	assert.Equal(t, []ReceiptLine{
		{Label: "Subtotal", Amount: 55000},
		{Label: "Beneficio DUOC: Torta de Cumpleaños gratis", Amount: 55000, Deduction: true},
		{Label: "Envío", Amount: 0},
	}, r.Lines)
	assert.Equal(t, int64(0), r.Total)
	assert.Contains(t, r.Text(), "Mensaje: Feliz cumpleaños")
	assert.Contains(t, r.Text(), "$55.000")
}

func TestFormatCLP(t *testing.T) {
	assert.Equal(t, "$0", FormatCLP(0))
	assert.Equal(t, "$500", FormatCLP(500))
	assert.Equal(t, "$5.000", FormatCLP(5000))
	assert.Equal(t, "$1.234.567", FormatCLP(1234567))
	assert.Equal(t, "-$3.000", FormatCLP(-3000))
}
