package api

import (
	"net/http"
	"strconv"

	"agrimarket-be/internal/batch"
	"agrimarket-be/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type batchHandler struct {
	batches batch.Service
}

type createBatchRequest struct {
	ProduceType string `json:"produce_type" binding:"required"`
	Quantity    int    `json:"quantity" binding:"required"`
}

func (h *batchHandler) create(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.batches.Create(c.Request.Context(), batch.CreateParams{
		ProduceType: req.ProduceType,
		Quantity:    req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *batchHandler) list(c *gin.Context) {
	filter := batch.ListFilter{
		Limit: parseInt32(c.Query("limit")),
		Page:  parseInt32(c.Query("page")),
	}
	if v := c.Query("holder_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holder_id"})
			return
		}
		hid := uint(id)
		filter.HolderID = &hid
	}
	if v := c.Query("holder_role"); v != "" {
		role, err := user.ParseRole(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holder_role"})
			return
		}
		filter.HolderRole = &role
	}
	if v := c.Query("produce_type"); v != "" {
		filter.ProduceType = &v
	}

	batches, err := h.batches.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"batches": batches})
}

type transferBatchRequest struct {
	BatchID  uuid.UUID `json:"batch_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required"`
}

func (h *batchHandler) buy(c *gin.Context) {
	var req transferBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.batches.Buy(c.Request.Context(), batch.TransferParams{
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

type sellToRetailerRequest struct {
	BatchID    uuid.UUID `json:"batch_id" binding:"required"`
	Quantity   int       `json:"quantity" binding:"required"`
	RetailerID uint      `json:"retailer_id" binding:"required"`
}

func (h *batchHandler) sellToRetailer(c *gin.Context) {
	var req sellToRetailerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.batches.SellToRetailer(c.Request.Context(), batch.TransferParams{
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
	}, req.RetailerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *batchHandler) createOrder(c *gin.Context) {
	var req transferBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	b, err := h.batches.Purchase(c.Request.Context(), batch.TransferParams{
		BatchID:  req.BatchID,
		Quantity: req.Quantity,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *batchHandler) trace(c *gin.Context) {
	id, err := uuid.Parse(c.Query("batch_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}

	trace, err := h.batches.Trace(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, trace)
}
