package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	checkoutsvc "shopcore/internal/service/checkout"
)

func checkoutHandler(svc CheckoutService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkoutsvc.Input
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		req.CartToken = c.GetHeader(headerCartToken)
		if cust := currentCustomer(c); cust != nil {
			req.CustomerID = &cust.ID
			if req.Email == "" {
				req.Email = cust.Email
			}
		}
		order, err := svc.Checkout(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, order)
	}
}
