package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/seed"
	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is the in-memory view of one storefront instance, written through to
// the KV. Services share it and hold mu for the whole of each operation, so
// every operation runs to completion before the next one starts.
type State struct {
	mu     sync.Mutex
	kv     store.KV
	logger *zap.Logger

	products     []models.Product
	customers    []models.CustomerAccount
	session      *models.CustomerSession
	cart         []models.CartEntry
	totals       *models.CartTotals
	shipping     int64
	coupon       string
	admins       []models.AdminAccount
	adminSession *models.AdminSession
	orders       []models.Order
	comments     map[string][]models.BlogComment
}

// NewState creates an empty state backed by kv; call Load before use
func NewState(kv store.KV) *State {
	return &State{
		kv:       kv,
		logger:   util.GetLogger(),
		comments: make(map[string][]models.BlogComment),
	}
}

// Load reads every slice from the store, seeding the catalog, staff and
// order ledger when they are missing
func (s *State) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loadProducts(ctx)
	s.loadCustomers(ctx)
	s.loadSession(ctx)
	s.loadCart(ctx)
	s.shipping = max(0, store.ReadJSON[int64](ctx, s.kv, store.KeyShipping, 0))
	s.coupon = store.ReadJSON(ctx, s.kv, store.KeyCoupon, "")
	s.loadAdmins(ctx)
	s.adminSession = store.ReadJSON[*models.AdminSession](ctx, s.kv, store.KeyAdminSession, nil)
	s.loadOrders(ctx)
	s.loadComments(ctx)

	s.logger.Info("Storefront state loaded",
		zap.Int("products", len(s.products)),
		zap.Int("customers", len(s.customers)),
		zap.Int("orders", len(s.orders)),
		zap.Bool("customer_session", s.session != nil))
}

// Reload refreshes the slice stored under key after another instance wrote it.
// It reports whether key maps to any slice of this instance.
func (s *State) Reload(ctx context.Context, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case key == store.KeyProducts:
		s.loadProducts(ctx)
	case key == store.KeyCustomers:
		s.loadCustomers(ctx)
	case key == store.KeyCurrentUser:
		s.loadSession(ctx)
		s.loadCart(ctx)
	case key == store.KeyShipping:
		s.shipping = max(0, store.ReadJSON[int64](ctx, s.kv, store.KeyShipping, 0))
	case key == store.KeyCoupon:
		s.coupon = store.ReadJSON(ctx, s.kv, store.KeyCoupon, "")
	case key == store.KeyAdmins:
		s.loadAdmins(ctx)
	case key == store.KeyAdminSession:
		s.adminSession = store.ReadJSON[*models.AdminSession](ctx, s.kv, store.KeyAdminSession, nil)
	case key == store.KeyOrders:
		s.loadOrders(ctx)
	case key == store.KeyComments:
		s.loadComments(ctx)
	case store.IsCartKey(key):
		if key != s.cartKey() {
			return false
		}
		s.loadCart(ctx)
	default:
		return false
	}

	util.StateReloadsTotal.WithLabelValues(key).Inc()
	return true
}

// persist writes value under key; failures are logged and returned
func (s *State) persist(ctx context.Context, key string, value interface{}) error {
	if err := store.WriteJSON(ctx, s.kv, key, value); err != nil {
		s.logger.Error("Failed to persist state", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (s *State) remove(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to delete stored key", zap.String("key", key), zap.Error(err))
	}
}

func (s *State) loadProducts(ctx context.Context) {
	raw := store.ReadJSON[[]map[string]interface{}](ctx, s.kv, store.KeyProducts, nil)
	base := seed.Products()

	if len(raw) == 0 {
		s.products = base
		s.saveProducts(ctx)
	} else {
		s.products = mergeCatalog(base, raw)
	}
	s.pruneCart(ctx)
}

func (s *State) saveProducts(ctx context.Context) error {
	records := make([]models.ProductRecord, 0, len(s.products))
	for _, p := range s.products {
		records = append(records, p.Record())
	}
	return s.persist(ctx, store.KeyProducts, records)
}

func (s *State) findProduct(id string) (models.Product, int, bool) {
	for i, p := range s.products {
		if p.ID == id {
			return p, i, true
		}
	}
	return models.Product{}, -1, false
}

func (s *State) loadCustomers(ctx context.Context) {
	s.customers = store.ReadJSON[[]models.CustomerAccount](ctx, s.kv, store.KeyCustomers, nil)
}

func (s *State) saveCustomers(ctx context.Context) error {
	return s.persist(ctx, store.KeyCustomers, s.customers)
}

func (s *State) findCustomer(email string) int {
	email = strings.ToLower(strings.TrimSpace(email))
	for i, c := range s.customers {
		if strings.ToLower(c.Email) == email {
			return i
		}
	}
	return -1
}

func (s *State) loadSession(ctx context.Context) {
	s.session = store.ReadJSON[*models.CustomerSession](ctx, s.kv, store.KeyCurrentUser, nil)
}

// setSession replaces the customer session; nil logs the customer out
func (s *State) setSession(ctx context.Context, session *models.CustomerSession) {
	s.session = session
	if session == nil {
		s.remove(ctx, store.KeyCurrentUser)
		return
	}
	s.persist(ctx, store.KeyCurrentUser, session)
}

func (s *State) cartKey() string {
	if s.session == nil {
		return store.KeyGuestCart
	}
	return store.CartKey(s.session.Email)
}

func (s *State) loadCart(ctx context.Context) {
	entries := store.ReadJSON[[]models.CartEntry](ctx, s.kv, s.cartKey(), nil)
	cart := make([]models.CartEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID != "" && e.Qty > 0 {
			cart = append(cart, e)
		}
	}
	s.cart = cart
	s.totals = nil
	s.pruneCart(ctx)
}

// setCart replaces the cart of the current identity and persists it
func (s *State) setCart(ctx context.Context, cart []models.CartEntry) {
	s.cart = cart
	s.totals = nil
	s.persist(ctx, s.cartKey(), cart)
}

// pruneCart drops entries whose product left the catalog
func (s *State) pruneCart(ctx context.Context) {
	s.totals = nil
	kept := make([]models.CartEntry, 0, len(s.cart))
	for _, e := range s.cart {
		if _, _, ok := s.findProduct(e.ProductID); ok {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(s.cart) {
		return
	}
	s.logger.Info("Pruned cart entries for vanished products",
		zap.Int("removed", len(s.cart)-len(kept)))
	s.setCart(ctx, kept)
}

// cartTotals resolves the cart against the live catalog, memoized until the
// cart or catalog changes
func (s *State) cartTotals() models.CartTotals {
	if s.totals != nil {
		return *s.totals
	}

	totals := models.CartTotals{Items: make([]models.CartLine, 0, len(s.cart))}
	for _, e := range s.cart {
		p, _, ok := s.findProduct(e.ProductID)
		if !ok {
			continue
		}
		sub := p.Price * int64(e.Qty)
		totals.Items = append(totals.Items, models.CartLine{
			Product:  p,
			Qty:      e.Qty,
			Message:  e.Message,
			Subtotal: sub,
		})
		totals.Subtotal += sub
		totals.TotalQty += e.Qty
	}
	s.totals = &totals
	return totals
}

func (s *State) loadAdmins(ctx context.Context) {
	stored := store.ReadJSON[[]models.AdminAccount](ctx, s.kv, store.KeyAdmins, nil)
	base := seed.Admins()
	if len(stored) == 0 {
		s.admins = base
		s.persist(ctx, store.KeyAdmins, s.admins)
		return
	}

	index := make(map[string]int, len(base))
	for i, a := range base {
		index[strings.ToUpper(a.RUN)] = i
	}
	for _, a := range stored {
		run := strings.ToUpper(a.RUN)
		if i, ok := index[run]; ok {
			base[i] = a
			continue
		}
		index[run] = len(base)
		base = append(base, a)
	}
	s.admins = base
}

func (s *State) loadOrders(ctx context.Context) {
	s.orders = store.ReadJSON[[]models.Order](ctx, s.kv, store.KeyOrders, nil)
	if len(s.orders) == 0 {
		s.orders = seed.Orders()
		s.persist(ctx, store.KeyOrders, s.orders)
	}
}

func (s *State) loadComments(ctx context.Context) {
	raw := store.ReadJSON[map[string][]map[string]interface{}](ctx, s.kv, store.KeyComments, nil)
	now := time.Now().UnixMilli()

	comments := make(map[string][]models.BlogComment, len(raw))
	for postID, list := range raw {
		normalized := make([]models.BlogComment, 0, len(list))
		for _, c := range list {
			normalized = append(normalized, normalizeComment(c, now))
		}
		comments[postID] = normalized
	}
	s.comments = comments
	if len(raw) > 0 {
		s.persist(ctx, store.KeyComments, s.comments)
	}
}

func normalizeComment(raw map[string]interface{}, now int64) models.BlogComment {
	owner := strings.ToLower(firstString(raw, "owner_id", "ownerId", "author_email", "authorEmail", "email"))
	c := models.BlogComment{
		ID:          firstString(raw, "id"),
		OwnerID:     owner,
		AuthorEmail: owner,
		AuthorName:  firstString(raw, "author_name", "authorName", "name", "author"),
		Text:        firstString(raw, "text"),
		CreatedAt:   int64(firstNumber(raw, "ts", "created_at")),
	}
	if c.ID == "" {
		c.ID = newCommentID()
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = now
	}
	if edited := firstNumber(raw, "edited_at", "editedAt"); edited > 0 {
		ts := int64(edited)
		c.EditedAt = &ts
	}
	return c
}

func newCommentID() string {
	return fmt.Sprintf("c_%s", uuid.New().String()[:8])
}
