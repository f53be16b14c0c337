package api

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type cartItemRequest struct {
	ProductID string `json:"id"`
	Qty       int    `json:"qty"`
	Message   string `json:"msg"`
}

type shippingRequest struct {
	Cost int64 `json:"cost"`
}

type couponRequest struct {
	Code string `json:"code"`
}

type checkoutRequest struct {
	Guest          *service.GuestContact `json:"guest"`
	IdempotencyKey string                `json:"idempotency_key"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type commentRequest struct {
	Text string `json:"text"`
}

func (h *Handler) listProducts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.catalog.List(c.Request.Context())})
}

func (h *Handler) getProduct(c *gin.Context) {
	p, ok := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// cartView is the cart as the storefront renders it: raw lines plus the priced quote
func (h *Handler) cartView(c *gin.Context) gin.H {
	ctx := c.Request.Context()
	return gin.H{
		"entries":  h.cart.Entries(ctx),
		"coupon":   h.cart.Coupon(ctx),
		"shipping": h.cart.Shipping(ctx),
		"quote":    h.checkout.Quote(ctx),
	}
}

func (h *Handler) getCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.cartView(c))
}

func (h *Handler) clearCart(c *gin.Context) {
	h.cart.Clear(c.Request.Context())
	c.JSON(http.StatusOK, h.cartView(c))
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	adj := h.cart.Add(c.Request.Context(), req.ProductID, req.Qty, req.Message)
	h.respondAdjustment(c, adj)
}

func (h *Handler) setCartItem(c *gin.Context) {
	var req cartItemRequest
	if !bindJSON(c, &req) {
		return
	}
	adj := h.cart.SetQty(c.Request.Context(), c.Param("id"), req.Qty, req.Message)
	h.respondAdjustment(c, adj)
}

func (h *Handler) respondAdjustment(c *gin.Context, adj service.CartAdjustment) {
	view := h.cartView(c)
	view["adjustment"] = adj
	if adj.Reason == service.ReasonUnavailable || adj.Reason == service.ReasonOutOfStock {
		c.JSON(http.StatusConflict, view)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	h.cart.Remove(c.Request.Context(), c.Param("id"), c.Query("msg"))
	c.JSON(http.StatusOK, h.cartView(c))
}

func (h *Handler) setShipping(c *gin.Context) {
	var req shippingRequest
	if !bindJSON(c, &req) {
		return
	}
	h.cart.SetShipping(c.Request.Context(), req.Cost)
	c.JSON(http.StatusOK, h.cartView(c))
}

func (h *Handler) setCoupon(c *gin.Context) {
	var req couponRequest
	if !bindJSON(c, &req) {
		return
	}
	h.cart.SetCoupon(c.Request.Context(), req.Code)
	c.JSON(http.StatusOK, h.cartView(c))
}

// placeOrder handles checkout of the current cart
func (h *Handler) placeOrder(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	if key := c.GetHeader("Idempotency-Key"); key != "" {
		req.IdempotencyKey = key
	}

	result, err := h.checkout.Checkout(c.Request.Context(), service.CheckoutRequest{
		Guest:          req.Guest,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	switch {
	case result.Duplicate:
		c.JSON(http.StatusOK, result)
	case !result.Placed:
		c.JSON(http.StatusConflict, gin.H{"error": "El carrito está vacío."})
	default:
		c.JSON(http.StatusCreated, result)
	}
}

func (h *Handler) register(c *gin.Context) {
	var req service.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) logout(c *gin.Context) {
	h.accounts.Logout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	session := h.accounts.Session(c.Request.Context())
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"guest": true})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var upd service.ProfileUpdate
	if !bindJSON(c, &upd) {
		return
	}
	session, err := h.accounts.UpdateProfile(c.Request.Context(), upd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) listComments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"comments": h.comments.List(c.Request.Context(), c.Param("postId"))})
}

func (h *Handler) addComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	comment, err := h.comments.Add(c.Request.Context(), c.Param("postId"), req.Text)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *Handler) editComment(c *gin.Context) {
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	ok, err := h.comments.Edit(c.Request.Context(), c.Param("postId"), c.Param("id"), req.Text)
	h.respondCommentChange(c, ok, err)
}

func (h *Handler) deleteComment(c *gin.Context) {
	ok, err := h.comments.Delete(c.Request.Context(), c.Param("postId"), c.Param("id"))
	h.respondCommentChange(c, ok, err)
}

func (h *Handler) respondCommentChange(c *gin.Context, ok bool, err error) {
	switch {
	case err != nil:
		h.respondError(c, err)
	case !ok:
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"comments": h.comments.List(c.Request.Context(), c.Param("postId"))})
	}
}
