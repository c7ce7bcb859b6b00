package server

import (
	"net/http"
	"strings"

	claimdomain "github.com/Sourasish2503/churn-buster-v9/internal/claim/domain"
	obscontext "github.com/Sourasish2503/churn-buster-v9/internal/observability/context"
	"github.com/gin-gonic/gin"
)

type claimRequest struct {
	CompanyID          string `json:"company_id"`
	MembershipID       string `json:"membership_id"`
	ExperienceID       string `json:"experience_id"`
	DiscountPercent    int64  `json:"discount_percent"`
	CancellationReason string `json:"cancellation_reason"`
}

// ClaimOffer applies a retention offer to the caller's membership.
func (s *Server) ClaimOffer(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.MembershipID = strings.TrimSpace(req.MembershipID)
	if req.CompanyID == "" {
		AbortWithError(c, newValidationError("company_id", "invalid_company_id", "company id is required"))
		return
	}
	if req.MembershipID == "" {
		AbortWithError(c, newValidationError("membership_id", "invalid_membership_id", "membership id is required"))
		return
	}
	// Zero means "use the company default"; anything else must land in [1,100].
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		AbortWithError(c, newValidationError("discount_percent", "invalid_discount", "discount percent must be between 1 and 100, or 0 for the company default"))
		return
	}

	if !s.claimLimiter.Allow("claim:" + req.CompanyID) {
		AbortWithError(c, ErrRateLimited)
		return
	}

	ctx := c.Request.Context()
	result, err := s.claimSvc.Claim(ctx, claimdomain.Request{
		CompanyID:          req.CompanyID,
		MembershipID:       req.MembershipID,
		ExperienceID:       strings.TrimSpace(req.ExperienceID),
		ActorID:            obscontext.ActorIDFromContext(ctx),
		DiscountPercent:    req.DiscountPercent,
		CancellationReason: strings.TrimSpace(req.CancellationReason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
