package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/util"
	"storefront/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	catalog  *service.CatalogService
	cart     *service.CartService
	accounts *service.AccountService
	orders   *service.OrderService
	comments *service.CommentService
	checkout *service.CheckoutOrchestrator
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	catalog *service.CatalogService,
	cart *service.CartService,
	accounts *service.AccountService,
	orders *service.OrderService,
	comments *service.CommentService,
	checkout *service.CheckoutOrchestrator,
) *Handler {
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		accounts: accounts,
		orders:   orders,
		comments: comments,
		checkout: checkout,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.GET("/cart", h.getCart)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/items", h.addCartItem)
		v1.PUT("/cart/items/:id", h.setCartItem)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.PUT("/cart/shipping", h.setShipping)
		v1.PUT("/cart/coupon", h.setCoupon)

		v1.POST("/checkout", h.placeOrder)

		v1.POST("/account/register", h.register)
		v1.POST("/account/login", h.login)
		v1.POST("/account/logout", h.logout)
		v1.GET("/account/me", h.me)
		v1.PATCH("/account/profile", h.updateProfile)

		v1.GET("/posts/:postId/comments", h.listComments)
		v1.POST("/posts/:postId/comments", h.addComment)
		v1.PUT("/posts/:postId/comments/:id", h.editComment)
		v1.DELETE("/posts/:postId/comments/:id", h.deleteComment)

		v1.POST("/admin/login", h.adminLogin)
		v1.POST("/admin/logout", h.adminLogout)
		v1.GET("/admin/me", h.adminMe)

		admin := v1.Group("/admin", h.requireStaff)
		{
			admin.POST("/products", h.upsertProduct)
			admin.PUT("/products/:id", h.upsertProduct)
			admin.DELETE("/products/:id", h.removeProduct)

			admin.GET("/customers", h.listCustomers)
			admin.PUT("/customers/:email", h.upsertCustomer)
			admin.DELETE("/customers/:email", h.removeCustomer)

			admin.GET("/staff", h.listStaff)
			admin.PUT("/staff/:run", h.upsertStaff)
			admin.DELETE("/staff/:run", h.removeStaff)

			admin.GET("/orders", h.listOrders)
			admin.GET("/orders/summary", h.orderSummary)
			admin.GET("/orders/:id", h.getOrder)
			admin.POST("/orders/:id/advance", h.advanceOrder)
			admin.PUT("/orders/:id/status", h.setOrderStatus)
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"products": len(h.catalog.List(c.Request.Context())),
		"time":     time.Now().Unix(),
	})
}

// requireStaff rejects requests without an administrator or seller session
func (h *Handler) requireStaff(c *gin.Context) {
	session := h.accounts.AdminSession(c.Request.Context())
	if session == nil || (session.Role != models.RoleAdmin && session.Role != models.RoleSeller) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Staff session required"})
		return
	}
	c.Next()
}

// bindJSON decodes the request body, answering 400 on failure
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// respondError maps service errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verrs})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Credenciales inválidas."})
	case errors.Is(err, service.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAccountNotFound), errors.Is(err, service.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStatusRegression):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnknownStatus):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
