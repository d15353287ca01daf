package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func staffLoginHandler(svc StaffService, signer *csrfSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "email and password required")
			return
		}
		token, user, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"csrfToken": signer.issue(user.ID),
			"user":      user,
		})
	}
}

func staffMeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := staffClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"id":          claims.UserID,
			"email":       claims.Email,
			"role":        claims.Role,
			"permissions": claims.Permissions,
		})
	}
}

// csrfTokenHandler hands out a fresh token mid-session, e.g. after the old
// one expired while the JWT is still good.
func csrfTokenHandler(signer *csrfSigner) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrfToken": signer.issue(staffClaims(c).UserID)})
	}
}
