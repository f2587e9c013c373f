package httpserver

import (
	"errors"
	"net/http"

	"marketplace-backend/internal/domain"
	cartsvc "marketplace-backend/internal/service/cart"
	ratingsvc "marketplace-backend/internal/service/rating"

	"github.com/gin-gonic/gin"
)

// envelope is the uniform response shape for every endpoint.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Message: "ok", Data: data})
}

func respondFailure(c *gin.Context, status int, message string) {
	c.JSON(status, envelope{Success: false, Message: message})
}

// respondError maps service errors onto the envelope. Business failures keep
// their message; anything unrecognized is reported as an opaque internal
// error.
func respondError(c *gin.Context, err error) {
	var validation *domain.ValidationError
	var unavailable *domain.ProductUnavailableError
	var shortStock *domain.InsufficientStockError
	var badTransition *domain.InvalidTransitionError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		respondFailure(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUnauthorized):
		respondFailure(c, http.StatusForbidden, "forbidden")
	case errors.As(err, &validation),
		errors.Is(err, cartsvc.ErrInvalidDiscountCode),
		errors.Is(err, cartsvc.ErrEmptyCart),
		errors.Is(err, ratingsvc.ErrInvalidRating):
		respondFailure(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &unavailable),
		errors.As(err, &shortStock),
		errors.As(err, &badTransition),
		errors.Is(err, ratingsvc.ErrNotEligible):
		respondFailure(c, http.StatusConflict, err.Error())
	case errors.Is(err, ratingsvc.ErrNotAVendor):
		respondFailure(c, http.StatusNotFound, err.Error())
	default:
		respondFailure(c, http.StatusInternalServerError, "internal error")
	}
}
