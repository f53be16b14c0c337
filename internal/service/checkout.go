package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/pricing"
	"storefront/internal/util"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var guestEmailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// GuestContact identifies a buyer without a customer session
type GuestContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CheckoutRequest carries what checkout needs besides the stored cart
type CheckoutRequest struct {
	// Guest is required when no customer is logged in
	Guest          *GuestContact
	IdempotencyKey string
}

// CheckoutResult describes what a checkout call did. A result with Placed
// false and no error means there was nothing to do.
type CheckoutResult struct {
	Placed    bool          `json:"placed"`
	Duplicate bool          `json:"duplicate,omitempty"`
	Order     *models.Order `json:"order,omitempty"`
	Quote     pricing.Quote `json:"quote"`
	Receipt   *Receipt      `json:"receipt,omitempty"`
}

// CheckoutOrchestrator turns the current cart into an order
type CheckoutOrchestrator struct {
	state     *State
	engine    *pricing.Engine
	presenter ReceiptPresenter
	events    OrderEvents
	guard     IdempotencyGuard
	guardTTL  time.Duration
	logger    *zap.Logger
}

// NewCheckoutOrchestrator creates a new checkout orchestrator. A nil guard
// disables duplicate detection.
func NewCheckoutOrchestrator(
	state *State,
	engine *pricing.Engine,
	presenter ReceiptPresenter,
	events OrderEvents,
	guard IdempotencyGuard,
	guardTTL time.Duration,
) *CheckoutOrchestrator {
	return &CheckoutOrchestrator{
		state:     state,
		engine:    engine,
		presenter: presenter,
		events:    events,
		guard:     guard,
		guardTTL:  guardTTL,
		logger:    util.GetLogger(),
	}
}

// Quote prices the current cart with the stored coupon and shipping selection
func (o *CheckoutOrchestrator) Quote(ctx context.Context) pricing.Quote {
	_, span := util.StartSpan(ctx, "CheckoutOrchestrator.Quote")
	defer span.End()

	o.state.mu.Lock()
	defer o.state.mu.Unlock()

	return o.engine.Quote(o.state.cartTotals(), o.state.session, o.state.coupon, o.state.shipping)
}

// Checkout places the current cart as an order. Every step after the
// preconditions is best effort: a failing step is logged and the rest still run.
func (o *CheckoutOrchestrator) Checkout(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutOrchestrator.Checkout")
	defer span.End()

	o.state.mu.Lock()
	defer o.state.mu.Unlock()

	totals := o.state.cartTotals()
	if len(totals.Items) == 0 {
		util.CheckoutBlockedTotal.WithLabelValues("empty_cart").Inc()
		return CheckoutResult{}, nil
	}

	customer, contact, errs := o.buyer(req.Guest)
	if !errs.Empty() {
		util.CheckoutBlockedTotal.WithLabelValues("guest_contact").Inc()
		return CheckoutResult{}, errs
	}

	if !o.claim(ctx, req.IdempotencyKey) {
		util.CheckoutBlockedTotal.WithLabelValues("duplicate").Inc()
		return CheckoutResult{Duplicate: true}, nil
	}

	now := o.engine.Now()
	quote := o.engine.Quote(totals, o.state.session, o.state.coupon, o.state.shipping)

	receipt := NewReceipt(quote, contact, now)
	if err := o.presenter.Present(ctx, receipt); err != nil {
		o.logger.Warn("Failed to present receipt", zap.Error(err))
	}

	o.decrementStock(ctx, totals.Items)

	order := models.Order{
		ID:        o.nextOrderID(now),
		Customer:  customer,
		Total:     quote.Total,
		Status:    models.OrderStatusPending,
		Items:     snapshotItems(totals.Items),
		CreatedAt: now,
	}
	result := CheckoutResult{Placed: true, Quote: quote, Receipt: &receipt}
	if err := o.state.appendOrder(ctx, order); err != nil {
		util.OrderLedgerFailuresTotal.Inc()
		o.logger.Error("Order could not be recorded, continuing checkout",
			zap.String("order_id", order.ID),
			zap.Error(err))
	} else {
		result.Order = &order
	}

	if quote.Benefits.BdayApplied {
		o.recordBirthday(ctx, now.Year())
	}

	o.state.setCart(ctx, []models.CartEntry{})

	o.observe(quote)
	o.logger.Info("Checkout completed",
		zap.String("order_id", order.ID),
		zap.String("customer", customer),
		zap.Int64("total", quote.Total),
		zap.Bool("recorded", result.Order != nil))

	if result.Order != nil {
		o.publishPlaced(ctx, order, contact)
	}
	return result, nil
}

// buyer resolves the display name and contact email of the purchase. Guests
// must give a name and a well-formed email.
func (o *CheckoutOrchestrator) buyer(guest *GuestContact) (string, string, validation.Errors) {
	errs := validation.Errors{}
	if s := o.state.session; s != nil {
		return s.DisplayName(), s.Email, errs
	}

	var name, email string
	if guest != nil {
		name = strings.TrimSpace(guest.Name)
		email = strings.TrimSpace(guest.Email)
	}
	if name == "" {
		errs.Add("name", "Ingresa tu nombre.")
	}
	if !guestEmailPattern.MatchString(email) {
		errs.Add("email", "Ingresa un correo válido.")
	}
	return name, email, errs
}

// claim reports whether the request may proceed. The guard failing open
// keeps checkout available when its backend is down.
func (o *CheckoutOrchestrator) claim(ctx context.Context, key string) bool {
	key = strings.TrimSpace(key)
	if o.guard == nil || key == "" {
		return true
	}
	ok, err := o.guard.Claim(ctx, key, o.guardTTL)
	if err != nil {
		o.logger.Warn("Idempotency check failed, proceeding", zap.String("idempotency_key", key), zap.Error(err))
		return true
	}
	if !ok {
		o.logger.Info("Duplicate checkout request detected", zap.String("idempotency_key", key))
	}
	return ok
}

func (o *CheckoutOrchestrator) decrementStock(ctx context.Context, items []models.CartLine) {
	for _, it := range items {
		_, i, ok := o.state.findProduct(it.Product.ID)
		if !ok {
			continue
		}
		o.state.products[i].Stock = max(0, o.state.products[i].Stock-it.Qty)
	}
	o.state.totals = nil
	o.state.saveProducts(ctx)
}

// nextOrderID derives the id from the checkout time, skipping ids already taken
func (o *CheckoutOrchestrator) nextOrderID(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := fmt.Sprintf("PED%d", ms)
		if o.state.findOrder(id) < 0 {
			return id
		}
		ms++
	}
}

func snapshotItems(lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			Code:  l.Product.ID,
			Name:  l.Product.Name,
			Qty:   l.Qty,
			Price: l.Product.Price,
		})
	}
	return items
}

// recordBirthday marks this year's birthday benefit as used on the account
// and the session
func (o *CheckoutOrchestrator) recordBirthday(ctx context.Context, year int) {
	session := *o.state.session
	session.BirthdayRedeemedYear = &year

	if idx := o.state.findCustomer(session.Email); idx >= 0 {
		o.state.customers[idx].BirthdayRedeemedYear = &year
		o.state.saveCustomers(ctx)
	}
	o.state.setSession(ctx, &session)

	o.logger.Info("Birthday benefit redeemed", zap.String("email", session.Email), zap.Int("year", year))
}

func (o *CheckoutOrchestrator) observe(q pricing.Quote) {
	util.OrdersPlacedTotal.Inc()
	util.OrderTotalAmount.Observe(float64(q.Total))
	if q.Benefits.BdayDisc > 0 {
		util.DiscountsAppliedTotal.WithLabelValues("birthday").Inc()
	}
	if q.Benefits.UserDisc > 0 {
		util.DiscountsAppliedTotal.WithLabelValues("user").Inc()
	}
	if q.Coupon.Valid {
		util.DiscountsAppliedTotal.WithLabelValues("coupon").Inc()
	}
}

func (o *CheckoutOrchestrator) publishPlaced(ctx context.Context, order models.Order, contact string) {
	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:  order.ID,
		Customer: order.Customer,
		Contact:  contact,
		Total:    order.Total,
		Items:    order.Items,
	}
	if err := o.events.PublishOrderPlaced(ctx, event); err != nil {
		o.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}
