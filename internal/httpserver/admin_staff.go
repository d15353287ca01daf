package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	staffsvc "shopcore/internal/service/staff"
)

func listStaffHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := svc.ListUsers(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": users, "count": len(users)})
	}
}

func createStaffHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffsvc.UserInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := svc.CreateUser(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func updateStaffHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffsvc.UserInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		user, err := svc.UpdateUser(c.Request.Context(), c.Param("id"), staffClaims(c).UserID, req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func deleteStaffHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteUser(c.Request.Context(), c.Param("id"), staffClaims(c).UserID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listRolesHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, err := svc.ListRoles(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"results": roles, "count": len(roles)})
	}
}

func createRoleHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffsvc.RoleInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		role, err := svc.CreateRole(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, role)
	}
}

func updateRoleHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req staffsvc.RoleInput
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		role, err := svc.UpdateRole(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, role)
	}
}

func deleteRoleHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func listPermissionsHandler(svc StaffService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"permissions": svc.Permissions()})
	}
}
