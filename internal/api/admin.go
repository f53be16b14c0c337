package api

import (
	"net/http"

	"storefront/internal/models"

	"github.com/gin-gonic/gin"
)

type staffRequest struct {
	models.AdminAccount
	Password string `json:"password"`
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	session, err := h.accounts.AdminLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) adminLogout(c *gin.Context) {
	h.accounts.AdminLogout(c.Request.Context())
	c.Status(http.StatusNoContent)
}

func (h *Handler) adminMe(c *gin.Context) {
	session := h.accounts.AdminSession(c.Request.Context())
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No staff session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) upsertProduct(c *gin.Context) {
	var p models.Product
	if !bindJSON(c, &p) {
		return
	}
	if id := c.Param("id"); id != "" {
		p.ID = id
	}
	saved, err := h.catalog.Upsert(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) removeProduct(c *gin.Context) {
	if !h.catalog.Remove(c.Request.Context(), c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.accounts.Customers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for i := range customers {
		customers[i].PasswordHash = ""
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

// upsertCustomer never accepts a password hash from the client; the stored one is kept
func (h *Handler) upsertCustomer(c *gin.Context) {
	var account models.CustomerAccount
	if !bindJSON(c, &account) {
		return
	}
	account.Email = c.Param("email")
	account.PasswordHash = ""
	if err := h.accounts.UpsertCustomer(c.Request.Context(), account); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeCustomer(c *gin.Context) {
	ok, err := h.accounts.RemoveCustomer(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listStaff(c *gin.Context) {
	admins, err := h.accounts.Admins(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	for i := range admins {
		admins[i].PasswordHash = ""
	}
	c.JSON(http.StatusOK, gin.H{"staff": admins})
}

func (h *Handler) upsertStaff(c *gin.Context) {
	var req staffRequest
	if !bindJSON(c, &req) {
		return
	}
	req.AdminAccount.RUN = c.Param("run")
	req.AdminAccount.PasswordHash = ""
	if err := h.accounts.UpsertAdmin(c.Request.Context(), req.AdminAccount, req.Password); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeStaff(c *gin.Context) {
	ok, err := h.accounts.RemoveAdmin(c.Request.Context(), c.Param("run"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Staff account not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) orderSummary(c *gin.Context) {
	summary, err := h.orders.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) advanceOrder(c *gin.Context) {
	order, err := h.orders.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) setOrderStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
