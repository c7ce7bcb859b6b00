package server

import (
	"net/http"
	"strconv"
	"strings"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// listableActions are the audit actions the logs endpoint may expose.
var listableActions = map[string]bool{
	auditdomain.ActionClaimApplied:     true,
	auditdomain.ActionConfigUpdated:    true,
	auditdomain.ActionPaymentProcessed: true,
	auditdomain.ActionCompanyInstalled: true,
	auditdomain.ActionCompanyRemoved:   true,
}

// ListCompanyLogs returns recent audit entries for the company.
func (s *Server) ListCompanyLogs(c *gin.Context) {
	companyID := c.Param("company_id")

	action := strings.TrimSpace(c.Query("action"))
	if action != "" && !listableActions[action] {
		AbortWithError(c, newValidationError("action", "unknown_action", "unknown log action"))
		return
	}

	limit := 50
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be between 1 and 200"))
			return
		}
		limit = parsed
	}

	entries, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListFilter{
		CompanyID: companyID,
		Action:    action,
		Limit:     limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"logs": entries}})
}
