package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopcore/internal/domain"
)

type segmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func listSegmentsHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		segments, err := repo.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		if segments == nil {
			segments = []domain.Segment{}
		}
		c.JSON(http.StatusOK, gin.H{"results": segments, "count": len(segments)})
	}
}

func createSegmentHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req segmentRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			errorJSON(c, http.StatusBadRequest, "name required")
			return
		}
		seg, err := repo.Create(c.Request.Context(), domain.Segment{
			Name:        strings.TrimSpace(req.Name),
			Description: strings.TrimSpace(req.Description),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, seg)
	}
}

func getSegmentHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		seg, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, seg)
	}
}

func updateSegmentHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req segmentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "invalid request body")
			return
		}
		seg, err := repo.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if name := strings.TrimSpace(req.Name); name != "" {
			seg.Name = name
		}
		seg.Description = strings.TrimSpace(req.Description)
		updated, err := repo.Update(c.Request.Context(), *seg)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func deleteSegmentHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// listSegmentMembersHandler resolves member IDs to customer records.
// Customers deleted since they were added are skipped rather than failing
// the whole listing.
func listSegmentMembersHandler(repo SegmentRepo, customers CustomerService) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids, err := repo.MemberIDs(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		members := make([]domain.Customer, 0, len(ids))
		for _, id := range ids {
			cust, err := customers.Get(c.Request.Context(), id)
			if err != nil {
				continue
			}
			members = append(members, *cust)
		}
		c.JSON(http.StatusOK, gin.H{"results": members, "count": len(members)})
	}
}

type membersRequest struct {
	CustomerIDs []string `json:"customerIds"`
}

func replaceSegmentMembersHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req membersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "customerIds required")
			return
		}
		if err := repo.ReplaceMembers(c.Request.Context(), c.Param("id"), req.CustomerIDs); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

type memberRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
}

func addSegmentMemberHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req memberRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "customerId required")
			return
		}
		if err := repo.AddMember(c.Request.Context(), c.Param("id"), req.CustomerID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func removeSegmentMemberHandler(repo SegmentRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.RemoveMember(c.Request.Context(), c.Param("id"), c.Param("customerId")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
