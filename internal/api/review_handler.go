package api

import (
	"net/http"

	"agrimarket-be/internal/review"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type reviewHandler struct {
	reviews review.Service
}

type submitReviewRequest struct {
	OrderID    uuid.UUID `json:"order_id" binding:"required"`
	ProductID  uuid.UUID `json:"product_id" binding:"required"`
	SupplierID uint      `json:"supplier_id" binding:"required"`
	Rating     int       `json:"rating" binding:"required"`
	Comment    string    `json:"comment"`
}

func (h *reviewHandler) submit(c *gin.Context) {
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rev, err := h.reviews.Submit(c.Request.Context(), review.SubmitParams{
		OrderID:    req.OrderID,
		ProductID:  req.ProductID,
		SupplierID: req.SupplierID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rev)
}

// eligibility lets the client decide whether to render the review form.
// Submission re-checks everything, so this answer is advisory.
func (h *reviewHandler) eligibility(c *gin.Context) {
	orderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	if err := h.reviews.Eligible(c.Request.Context(), orderID); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"eligible": false, "reason": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": true})
}
