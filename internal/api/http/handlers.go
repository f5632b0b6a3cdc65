package http

import (
	"io"
	"net/http"

	"cravecart/internal/domain"
	"cravecart/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type handler struct {
	deps Deps
}

func (h *handler) health(c *gin.Context) {
	if h.deps.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
		return
	}
	stats := h.deps.DB.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

func (h *handler) requestCode(c *gin.Context) {
	var body struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := h.deps.Auth.RequestCode(c.Request.Context(), body.Phone); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "code sent"})
}

func (h *handler) verifyCode(c *gin.Context) {
	var body struct {
		Phone string `json:"phone" binding:"required"`
		Code  string `json:"code" binding:"required"`
		Name  string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	token, err := h.deps.Auth.VerifyCode(c.Request.Context(), body.Phone, body.Code, body.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handler) partnerLogin(c *gin.Context) {
	var body struct {
		Username string      `json:"username" binding:"required"`
		Password string      `json:"password" binding:"required"`
		Role     domain.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	token, err := h.deps.Partners.Login(c.Request.Context(), body.Username, body.Password, body.Role)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handler) adminLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	token, err := h.deps.Partners.AdminLogin(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *handler) createPartner(c *gin.Context) {
	admin, ok := actorFrom(c).(domain.Admin)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "admin access required")
		return
	}
	var req service.CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	partner, err := h.deps.Partners.CreatePartner(c.Request.Context(), admin, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":       partner.ID,
		"username": partner.Username,
		"role":     partner.Role,
		"name":     partner.Name,
	})
}

func (h *handler) listRestaurants(c *gin.Context) {
	stores, err := h.deps.Catalog.ListStorefronts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h *handler) getRestaurant(c *gin.Context) {
	store, err := h.deps.Catalog.GetStorefront(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

func (h *handler) saveRestaurant(c *gin.Context) {
	admin, ok := actorFrom(c).(domain.Admin)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "admin access required")
		return
	}
	var store domain.Storefront
	if err := c.ShouldBindJSON(&store); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	store.ID = c.Param("id")
	saved, err := h.deps.Catalog.SaveStorefront(c.Request.Context(), admin, store)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *handler) getProfile(c *gin.Context) {
	customer, ok := actorFrom(c).(domain.Customer)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "only customers have a profile")
		return
	}
	profile, err := h.deps.Profiles.GetProfile(c.Request.Context(), customer)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *handler) updateProfile(c *gin.Context) {
	customer, ok := actorFrom(c).(domain.Customer)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "only customers have a profile")
		return
	}
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	profile, err := h.deps.Profiles.UpdateProfile(c.Request.Context(), customer, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *handler) createOrder(c *gin.Context) {
	customer, ok := actorFrom(c).(domain.Customer)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "only customers can place orders")
		return
	}
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	order, err := h.deps.Orders.CreateOrder(c.Request.Context(), customer, req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handler) listOrders(c *gin.Context) {
	filter, err := domain.FilterFor(actorFrom(c), domain.View(c.Query("view")))
	if err != nil {
		h.fail(c, err)
		return
	}
	orders, err := h.deps.Orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// streamOrders pushes a full snapshot as an "orders" event every time the
// caller's view changes, until the client goes away.
func (h *handler) streamOrders(c *gin.Context) {
	filter, err := domain.FilterFor(actorFrom(c), domain.View(c.Query("view")))
	if err != nil {
		h.fail(c, err)
		return
	}
	sub, err := h.deps.Orders.SubscribeOrders(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer sub.Close()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case orders, ok := <-sub.C():
			if !ok {
				return false
			}
			c.SSEvent("orders", orders)
			return true
		}
	})
}

func (h *handler) getOrder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}
	order, err := h.deps.Orders.GetOrder(c.Request.Context(), id, actorFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handler) acceptOrder(c *gin.Context) {
	restaurant, ok := actorFrom(c).(domain.Restaurant)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "restaurant access required")
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := h.deps.Orders.AcceptOrder(c.Request.Context(), id, restaurant); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) claimOrder(c *gin.Context) {
	driver, ok := actorFrom(c).(domain.Driver)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "driver access required")
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	if err := h.deps.Orders.ClaimOrder(c.Request.Context(), id, driver); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) advanceOrder(c *gin.Context) {
	driver, ok := actorFrom(c).(domain.Driver)
	if !ok {
		sendErrorResponse(c, http.StatusForbidden, "driver access required")
		return
	}
	id, ok := orderID(c)
	if !ok {
		return
	}
	var body struct {
		Status domain.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		sendErrorResponse(c, http.StatusBadRequest, "invalid input")
		return
	}
	if err := h.deps.Orders.AdvanceDelivery(c.Request.Context(), id, driver, body.Status); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		sendErrorResponse(c, http.StatusNotFound, "order not found")
		return uuid.Nil, false
	}
	return id, true
}
