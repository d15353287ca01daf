package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"shopcore/internal/domain"
	cartsvc "shopcore/internal/service/cart"
	catalogsvc "shopcore/internal/service/catalog"
	checkoutsvc "shopcore/internal/service/checkout"
	customersvc "shopcore/internal/service/customer"
	ordersvc "shopcore/internal/service/order"
	staffsvc "shopcore/internal/service/staff"
)

func errorJSON(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": status, "message": message}})
}

// respondError maps domain and service errors onto HTTP statuses. Anything
// unrecognized becomes a 500 with a generic body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		errorJSON(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrConflict):
		errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, catalogsvc.ErrValidation),
		errors.Is(err, cartsvc.ErrValidation),
		errors.Is(err, checkoutsvc.ErrValidation),
		errors.Is(err, customersvc.ErrValidation),
		errors.Is(err, staffsvc.ErrValidation):
		errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, checkoutsvc.ErrEmptyCart),
		errors.Is(err, checkoutsvc.ErrCartNotActive),
		errors.Is(err, cartsvc.ErrNotActive):
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ordersvc.ErrInvalidTransition):
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cartsvc.ErrForbidden), errors.Is(err, checkoutsvc.ErrForbidden):
		errorJSON(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, staffsvc.ErrProtected):
		errorJSON(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, customersvc.ErrInvalidCredentials), errors.Is(err, staffsvc.ErrInvalidCredentials):
		errorJSON(c, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, customersvc.ErrInvalidToken), errors.Is(err, staffsvc.ErrInvalidToken):
		errorJSON(c, http.StatusUnauthorized, "invalid token")
	default:
		errorJSON(c, http.StatusInternalServerError, "internal error")
	}
}
