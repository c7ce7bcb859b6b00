package server

import (
	"net/http"
	"time"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

type retentionSave struct {
	MembershipID string                 `json:"membership_id"`
	Details      map[string]interface{} `json:"details,omitempty"`
	CreatedAt    string                 `json:"created_at"`
}

// CompanyStats reports the credit balance, total saves and the most
// recent retention saves for the dashboard.
func (s *Server) CompanyStats(c *gin.Context) {
	ctx := c.Request.Context()
	companyID := c.Param("company_id")

	balance, err := s.ledgerSvc.Balance(ctx, companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	savesCount, err := s.auditSvc.CountByAction(ctx, companyID, auditdomain.ActionClaimApplied)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.auditSvc.List(ctx, auditdomain.ListFilter{
		CompanyID: companyID,
		Action:    auditdomain.ActionClaimApplied,
		Limit:     10,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	recent := make([]retentionSave, 0, len(entries))
	for _, entry := range entries {
		save := retentionSave{
			Details:   entry.Metadata,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		}
		if entry.TargetID != nil {
			save.MembershipID = *entry.TargetID
		}
		recent = append(recent, save)
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"balance":      balance,
		"saves_count":  savesCount,
		"recent_saves": recent,
	}})
}
