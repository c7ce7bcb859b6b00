package server

import (
	"errors"
	"net/http"

	claimdomain "github.com/Sourasish2503/churn-buster-v9/internal/claim/domain"
	companydomain "github.com/Sourasish2503/churn-buster-v9/internal/company/domain"
	ledgerdomain "github.com/Sourasish2503/churn-buster-v9/internal/ledger/domain"
	"github.com/Sourasish2503/churn-buster-v9/internal/platform"
	"github.com/Sourasish2503/churn-buster-v9/internal/webhook"
	"github.com/gin-gonic/gin"
)

// APIError is the wire shape of every non-2xx response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code }

var (
	ErrUnauthorized = &APIError{Status: http.StatusUnauthorized, Code: "unauthorized", Message: "authentication required"}
	ErrForbidden    = &APIError{Status: http.StatusForbidden, Code: "forbidden", Message: "access denied"}
	ErrNotFound     = &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	ErrRateLimited  = &APIError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many requests"}

	ErrServiceUnavailable = &APIError{Status: http.StatusServiceUnavailable, Code: "service_unavailable", Message: "service unavailable"}
)

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "invalid request body"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// AbortWithError translates service errors into API responses. Unmapped
// errors become an opaque 500 so internals never leak to callers.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		abort(c, apiErr)
		return
	}

	switch {
	case errors.Is(err, claimdomain.ErrNoCredits):
		abort(c, &APIError{Status: http.StatusPaymentRequired, Code: "insufficient_credits", Message: "no retention credits available"})
	case errors.Is(err, claimdomain.ErrAlreadyClaimed):
		abort(c, &APIError{Status: http.StatusConflict, Code: "offer_already_claimed", Message: "retention offer was already claimed"})
	case errors.Is(err, claimdomain.ErrNotOwner):
		abort(c, &APIError{Status: http.StatusForbidden, Code: "membership_not_owned", Message: "membership belongs to another user"})
	case errors.Is(err, claimdomain.ErrInvalidRequest):
		abort(c, invalidRequestError())
	case errors.Is(err, claimdomain.ErrInvalidDiscount), errors.Is(err, companydomain.ErrInvalidDiscount):
		abort(c, newValidationError("discount_percent", "invalid_discount_percent", "discount percent must be between 1 and 100"))
	case errors.Is(err, companydomain.ErrCompanyNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "company_not_found", Message: "company not found"})
	case errors.Is(err, companydomain.ErrInvalidCompany), errors.Is(err, ledgerdomain.ErrInvalidCompany):
		abort(c, newValidationError("company_id", "invalid_company_id", "invalid company id"))
	case errors.Is(err, platform.ErrMembershipNotFound):
		abort(c, &APIError{Status: http.StatusNotFound, Code: "membership_not_found", Message: "membership not found"})
	case errors.Is(err, platform.ErrUnauthorized):
		abort(c, ErrUnauthorized)
	case errors.Is(err, platform.ErrNotConfigured), errors.Is(err, platform.ErrUnavailable):
		abort(c, &APIError{Status: http.StatusBadGateway, Code: "platform_unavailable", Message: "membership platform unavailable"})
	case errors.Is(err, webhook.ErrInvalidSignature), errors.Is(err, webhook.ErrNoSecret):
		abort(c, &APIError{Status: http.StatusUnauthorized, Code: "invalid_signature", Message: "webhook signature verification failed"})
	case errors.Is(err, webhook.ErrMalformedPayload):
		abort(c, &APIError{Status: http.StatusBadRequest, Code: "malformed_payload", Message: "malformed webhook payload"})
	default:
		abort(c, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"})
	}
}

func abort(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
