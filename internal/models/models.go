package models

import (
	"strings"
	"time"
)

// Product represents a product in the catalog
type Product struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Category      string `json:"category"`
	Attr          string `json:"attr"`
	Image         string `json:"img"`
	Stock         int    `json:"stock"`
	CriticalStock int    `json:"critical_stock"`
	Description   string `json:"description,omitempty"`
}

// IsCritical reports whether stock has reached the critical threshold
func (p Product) IsCritical() bool {
	return p.Stock <= p.CriticalStock
}

// ProductRecord is the persisted shape of a product
type ProductRecord struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	Category      string `json:"category"`
	Attr          string `json:"attr"`
	Image         string `json:"image"`
	Stock         int    `json:"stock"`
	CriticalStock int    `json:"critical_stock"`
	Description   string `json:"description"`
}

// Record converts a product into its persisted shape
func (p Product) Record() ProductRecord {
	return ProductRecord{
		Code:          p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Category:      p.Category,
		Attr:          p.Attr,
		Image:         strings.TrimPrefix(p.Image, "/"),
		Stock:         p.Stock,
		CriticalStock: p.CriticalStock,
		Description:   p.Description,
	}
}

// CartEntry is a single line of a cart, keyed by product and message
type CartEntry struct {
	ProductID string `json:"id"`
	Qty       int    `json:"qty"`
	Message   string `json:"msg,omitempty"`
}

// Key returns the identity of the entry inside a cart
func (e CartEntry) Key() string {
	return e.ProductID + "::" + e.Message
}

// Matches reports whether the entry has the given product and message
func (e CartEntry) Matches(productID, message string) bool {
	return e.ProductID == productID && e.Message == message
}

// CartLine is a cart entry resolved against the live catalog
type CartLine struct {
	Product  Product `json:"product"`
	Qty      int     `json:"qty"`
	Message  string  `json:"msg,omitempty"`
	Subtotal int64   `json:"subtotal"`
}

// CartTotals is the derived view of a cart
type CartTotals struct {
	Items    []CartLine `json:"items"`
	Subtotal int64      `json:"subtotal"`
	TotalQty int        `json:"total_qty"`
}

// UserPreferences holds free-form customer preferences
type UserPreferences struct {
	DefaultShipping *int64 `json:"default_ship,omitempty"`
	DefaultCoupon   string `json:"default_coupon,omitempty"`
	Newsletter      bool   `json:"newsletter,omitempty"`
	SaveAddress     bool   `json:"save_address,omitempty"`
}

// CustomerAccount represents a registered customer
type CustomerAccount struct {
	RUN                  string           `json:"run"`
	Type                 string           `json:"type"`
	FirstName            string           `json:"first_name"`
	LastName             string           `json:"last_name"`
	Email                string           `json:"email"`
	Birthdate            string           `json:"birthdate"`
	Region               string           `json:"region"`
	Commune              string           `json:"commune"`
	Address              string           `json:"address"`
	Phone                string           `json:"phone,omitempty"`
	PasswordHash         string           `json:"password_hash"`
	PromoCode            string           `json:"promo_code,omitempty"`
	PermanentPromo       bool             `json:"permanent_promo"`
	CreatedAt            int64            `json:"created_at"`
	BirthdayRedeemedYear *int             `json:"bday_redeemed_year"`
	Prefs                *UserPreferences `json:"prefs,omitempty"`
}

// Session projects the account into its non-secret session view
func (a CustomerAccount) Session() CustomerSession {
	return CustomerSession{
		Email:                a.Email,
		Name:                 a.FirstName,
		Birthdate:            a.Birthdate,
		PromoCode:            a.PromoCode,
		PermanentPromo:       a.PermanentPromo,
		BirthdayRedeemedYear: a.BirthdayRedeemedYear,
		Prefs:                a.Prefs,
	}
}

// CustomerSession marks an authenticated customer; absence means guest
type CustomerSession struct {
	Email                string           `json:"email"`
	Name                 string           `json:"name,omitempty"`
	Birthdate            string           `json:"birthdate,omitempty"`
	PromoCode            string           `json:"promo_code,omitempty"`
	PermanentPromo       bool             `json:"permanent_promo,omitempty"`
	BirthdayRedeemedYear *int             `json:"bday_redeemed_year"`
	Prefs                *UserPreferences `json:"prefs,omitempty"`
}

// DisplayName returns the name shown on orders and comments
func (s CustomerSession) DisplayName() string {
	if name := strings.TrimSpace(s.Name); name != "" {
		return name
	}
	return s.Email
}

// Staff roles
const (
	RoleAdmin    = "Administrador"
	RoleSeller   = "Vendedor"
	RoleCustomer = "Cliente"
)

// AdminAccount represents a staff member
type AdminAccount struct {
	RUN          string `json:"run"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Region       string `json:"region,omitempty"`
	Commune      string `json:"commune,omitempty"`
	Address      string `json:"address,omitempty"`
	Birthdate    string `json:"birthdate,omitempty"`
	PasswordHash string `json:"password_hash,omitempty"`
}

// AdminSession is the reduced view of a logged-in staff member
type AdminSession struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
}

// OrderStatus is the lifecycle state of an order
type OrderStatus string

// Order statuses, in lifecycle order
const (
	OrderStatusPending    OrderStatus = "Pendiente"
	OrderStatusPreparing  OrderStatus = "Preparando"
	OrderStatusDispatched OrderStatus = "Despachado"
	OrderStatusDelivered  OrderStatus = "Entregado"
)

// OrderStatuses lists the statuses in the order they are reached
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPreparing,
	OrderStatusDispatched,
	OrderStatusDelivered,
}

// Rank returns the position of the status in the lifecycle, or -1 if unknown
func (s OrderStatus) Rank() int {
	for i, st := range OrderStatuses {
		if st == s {
			return i
		}
	}
	return -1
}

// Order represents a finalized purchase
type Order struct {
	ID        string      `json:"id"`
	Customer  string      `json:"customer"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at,omitempty"`
}

// OrderItem is an immutable snapshot of a purchased product
type OrderItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Qty   int    `json:"qty"`
	Price int64  `json:"price"`
}

// BlogComment is a comment left by a customer on a blog post
type BlogComment struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	AuthorEmail string `json:"author_email"`
	AuthorName  string `json:"author_name"`
	Text        string `json:"text"`
	CreatedAt   int64  `json:"ts"`
	EditedAt    *int64 `json:"edited_at"`
}
