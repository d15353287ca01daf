package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopcore/internal/domain"
)

func getSettingsHandler(repo SettingsRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		s, err := repo.Get(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, s)
	}
}

func updateSettingsHandler(repo SettingsRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req domain.Settings
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(req.StoreName) == "" {
			errorJSON(c, http.StatusBadRequest, "storeName required")
			return
		}
		if len(strings.TrimSpace(req.Currency)) != 3 {
			errorJSON(c, http.StatusBadRequest, "currency must be a 3-letter code")
			return
		}
		if req.FlatShippingCents < 0 || req.FreeShippingThresholdCents < 0 {
			errorJSON(c, http.StatusBadRequest, "shipping amounts cannot be negative")
			return
		}
		updated, err := repo.Upsert(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
