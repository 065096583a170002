package api

import (
	"context"
	"net/http"

	"agrimarket-be/internal/order"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type orderHandler struct {
	orders order.Service
}

type checkoutRequest struct {
	// CheckoutKey makes a retried checkout idempotent. Clients generate
	// one per attempt; omitting it still works but retries will duplicate.
	CheckoutKey *uuid.UUID `json:"checkout_key"`
}

func (h *orderHandler) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := uuid.Nil
	if req.CheckoutKey != nil {
		key = *req.CheckoutKey
	}

	orders, err := h.orders.Checkout(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"orders": orders})
}

func (h *orderHandler) get(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	detail, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *orderHandler) list(c *gin.Context) {
	filter := order.ListFilter{
		Limit: parseInt32(c.Query("limit")),
		Page:  parseInt32(c.Query("page")),
	}
	if v := c.Query("status"); v != "" {
		status := order.Status(v)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}
		filter.Status = &status
	}

	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *orderHandler) accept(c *gin.Context)  { h.transition(c, h.orders.Accept) }
func (h *orderHandler) decline(c *gin.Context) { h.transition(c, h.orders.Decline) }
func (h *orderHandler) advance(c *gin.Context) { h.transition(c, h.orders.Advance) }
func (h *orderHandler) cancel(c *gin.Context)  { h.transition(c, h.orders.Cancel) }

func (h *orderHandler) reorder(c *gin.Context) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	o, err := h.orders.Reorder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *orderHandler) transition(c *gin.Context, op func(ctx context.Context, id uuid.UUID) (*order.Order, error)) {
	id, ok := orderID(c)
	if !ok {
		return
	}

	o, err := op(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func orderID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return uuid.Nil, false
	}
	return id, true
}
