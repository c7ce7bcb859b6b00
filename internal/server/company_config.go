package server

import (
	"net/http"

	auditdomain "github.com/Sourasish2503/churn-buster-v9/internal/audit/domain"
	obscontext "github.com/Sourasish2503/churn-buster-v9/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// GetCompanyConfig returns the retention settings shown in the app.
func (s *Server) GetCompanyConfig(c *gin.Context) {
	companyID := c.Param("company_id")

	percent, err := s.companySvc.DiscountPercent(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"company_id":       companyID,
		"discount_percent": percent,
	}})
}

type updateConfigRequest struct {
	DiscountPercent int64 `json:"discount_percent"`
}

// UpdateCompanyConfig sets the retention discount. Admin only.
func (s *Server) UpdateCompanyConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	companyID := c.Param("company_id")
	actorID := obscontext.ActorIDFromContext(ctx)

	if err := s.companySvc.SetDiscountPercent(ctx, companyID, req.DiscountPercent, actorID); err != nil {
		AbortWithError(c, err)
		return
	}

	entry := &auditdomain.AuditLog{
		CompanyID:  &companyID,
		ActorType:  string(auditdomain.ActorTypeUser),
		Action:     auditdomain.ActionConfigUpdated,
		TargetType: "company_config",
		Metadata:   datatypes.JSONMap{"discount_percent": req.DiscountPercent},
	}
	if actorID != "" {
		entry.ActorID = &actorID
	}
	if err := s.auditSvc.Record(ctx, entry); err != nil {
		s.log.Warn("config audit record failed", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"company_id":       companyID,
		"discount_percent": req.DiscountPercent,
	}})
}
