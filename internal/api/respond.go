package api

import (
	"errors"
	"net/http"

	"agrimarket-be/internal/batch"
	"agrimarket-be/internal/cart"
	"agrimarket-be/internal/logger"
	"agrimarket-be/internal/order"
	"agrimarket-be/internal/product"
	"agrimarket-be/internal/review"
	"agrimarket-be/internal/storage"
	"agrimarket-be/internal/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses with a uniform
// {"error": ...} body. Checkout validation failures additionally carry the
// per-line breakdown.
func respondError(c *gin.Context, err error) {
	var checkoutErr *order.CheckoutError
	if errors.As(err, &checkoutErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": checkoutErr.Error(),
			"lines": checkoutErr.Lines,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("unhandled service error", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, user.ErrInvalidRole),
		errors.Is(err, user.ErrResetTokenInvalid),
		errors.Is(err, product.ErrInvalidInput),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, batch.ErrInvalidInput),
		errors.Is(err, review.ErrInvalidRating),
		errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest

	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized

	case errors.Is(err, product.ErrNotOwner),
		errors.Is(err, order.ErrUnauthorized),
		errors.Is(err, batch.ErrUnauthorized),
		errors.Is(err, review.ErrNotYourOrder):
		return http.StatusForbidden

	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, cart.ErrProductNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, review.ErrOrderNotFound),
		errors.Is(err, batch.ErrBatchNotFound):
		return http.StatusNotFound

	case errors.Is(err, user.ErrEmailExists),
		errors.Is(err, cart.ErrInsufficientStock),
		errors.Is(err, order.ErrInsufficientStock),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrTerminalStatus),
		errors.Is(err, order.ErrNotReorderable),
		errors.Is(err, batch.ErrInsufficientQuantity),
		errors.Is(err, batch.ErrWrongHolder),
		errors.Is(err, review.ErrAlreadyReviewed),
		errors.Is(err, review.ErrNotDelivered),
		errors.Is(err, review.ErrProductMismatch),
		errors.Is(err, review.ErrSupplierMismatch):
		return http.StatusConflict

	case errors.Is(err, storage.ErrUnsupportedFormat),
		errors.Is(err, storage.ErrFileTooLarge):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
