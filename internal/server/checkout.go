package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// CheckoutLink resolves a credit pack to its hosted checkout URL. The
// company id rides along in the checkout metadata so the payment
// webhook can attribute the purchase.
func (s *Server) CheckoutLink(c *gin.Context) {
	companyID := c.Param("company_id")

	pack := strings.TrimSpace(c.Query("pack"))
	if pack == "" {
		AbortWithError(c, newValidationError("pack", "required", "pack is required"))
		return
	}

	planID, ok := s.cfg.Credits.Packs[pack]
	if !ok {
		AbortWithError(c, newValidationError("pack", "unknown_pack", "unknown credit pack"))
		return
	}

	checkoutURL := fmt.Sprintf(
		"https://whop.com/checkout/%s?d2c=true&metadata[company_id]=%s",
		url.PathEscape(planID),
		url.QueryEscape(companyID),
	)

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"pack":    pack,
		"plan_id": planID,
		"url":     checkoutURL,
	}})
}
