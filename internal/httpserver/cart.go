package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cartsvc "shopcore/internal/service/cart"
)

func cartAccessor(c *gin.Context) cartsvc.Accessor {
	acc := cartsvc.Accessor{Token: c.GetHeader(headerCartToken)}
	if cust := currentCustomer(c); cust != nil {
		acc.CustomerID = &cust.ID
	}
	return acc
}

// cartResponse exposes the cart token on creation so guests can present it
// on later requests. Reads never echo it back.
func createCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartsvc.CreateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		cart, err := svc.Create(c.Request.Context(), req, cartAccessor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Header(headerCartToken, cart.Token)
		c.JSON(http.StatusCreated, cart)
	}
}

func getCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart, err := svc.Get(c.Request.Context(), c.Param("id"), cartAccessor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func updateCartHandler(svc CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cartsvc.UpdateInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		cart, err := svc.Update(c.Request.Context(), c.Param("id"), req, cartAccessor(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}
