package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	orderapp "github.com/T1-gumayutri/xt-fashion-store-sub000/internal/application/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/cart"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/order"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/payment"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/product"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/internal/domain/promotion"
	"github.com/T1-gumayutri/xt-fashion-store-sub000/pkg/logger"
)

var badRequest = []error{
	order.ErrMissingField,
	order.ErrEmptyItems,
	order.ErrMissingShipping,
	order.ErrInvalidPaymentMethod,
	order.ErrInvalidAmount,
	order.ErrInvalidStatus,
	order.ErrInvalidTransition,
	order.ErrNotCancellable,
	order.ErrNotPayable,
	order.ErrAlreadyPaid,
	product.ErrProductNotFound,
	product.ErrInvalidQuantity,
	product.ErrInsufficientStock,
	cart.ErrInvalidQuantity,
	promotion.ErrPromotionNotFound,
	promotion.ErrPromotionInactive,
	promotion.ErrMinOrderNotMet,
	promotion.ErrPromotionExhausted,
	promotion.ErrPerUserLimitReached,
}

var conflict = []error{
	product.ErrInventoryRace,
	promotion.ErrPromotionRace,
	order.ErrStatusConflict,
	orderapp.ErrCheckoutInProgress,
}

// StatusFor ánh xạ lỗi domain sang HTTP status. Lỗi không nhận diện được là 500.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, payment.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, payment.ErrGatewayRejected), errors.Is(err, payment.ErrChecksumFailed):
		return http.StatusBadGateway
	}
	for _, target := range conflict {
		if errors.Is(err, target) {
			return http.StatusConflict
		}
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, log logger.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.WithContext(c.Request.Context()).Error("request failed",
			logger.String("path", c.FullPath()),
			logger.Error(err),
		)
	}

	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal server error"
	case http.StatusBadGateway:
		msg = "payment gateway returned an invalid response"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badRequestBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
