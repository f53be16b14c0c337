package store

import (
	"context"
	"strings"
)

// KV is the blob store every piece of storefront state is persisted in.
// A missing key is reported through the bool result, never as an error.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Storage keys
const (
	KeyProducts     = "ADMIN_PRODUCTS_V1"
	KeyCustomers    = "USERS_V1"
	KeyCurrentUser  = "CURRENT_USER_V1"
	KeyGuestCart    = "cart"
	KeyShipping     = "shipCost"
	KeyCoupon       = "couponCode_v1"
	KeyAdmins       = "ADMIN_USERS_V1"
	KeyAdminSession = "session"
	KeyOrders       = "ORDERS_V1"
	KeyComments     = "BLOG_COMMENTS_V1"
)

// CartKey returns the cart key for a customer, or the guest cart key for an empty email
func CartKey(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return KeyGuestCart
	}
	return KeyGuestCart + "_" + email
}

// IsCartKey reports whether key holds a guest or customer cart
func IsCartKey(key string) bool {
	return key == KeyGuestCart || strings.HasPrefix(key, KeyGuestCart+"_")
}
