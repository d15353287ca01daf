package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shopcore/internal/domain"
	orderrepo "shopcore/internal/repository/order"
)

func adminListOrdersHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := svc.List(c.Request.Context(), orderrepo.ListFilter{
			Status:        c.Query("status"),
			PaymentStatus: c.Query("paymentStatus"),
			Email:         c.Query("email"),
			Limit:         intQuery(c, "limit", 0),
			Offset:        intQuery(c, "offset", 0),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": orders, "count": len(orders)})
	}
}

func adminGetOrderHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

type statusChangeRequest struct {
	Status string `json:"status" binding:"required"`
}

func orderStatusHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "status required")
			return
		}
		next := domain.OrderStatus(req.Status)
		if !next.IsValid() {
			errorJSON(c, http.StatusBadRequest, "unknown status "+req.Status)
			return
		}
		order, err := svc.ChangeStatus(c.Request.Context(), c.Param("id"), next)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func orderCaptureHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Capture(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

func orderRefundHandler(svc OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := svc.Refund(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}
