package server

import (
	"errors"
	"net/http"
	"strings"

	catalogdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/catalog/domain"
	creditdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/credit/domain"
	invoicedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/invoice/domain"
	paymentdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/payment/domain"
	subscriptiondomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/subscription/domain"
	tenantdomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/tenant/domain"
	usagedomain "github.com/atshybrid/kaburlu-media-backend-sub003/internal/usage/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
	Detail  any               `json:"detail,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var insufficient *creditdomain.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		return http.StatusPaymentRequired, errorPayload{
			Type:    "insufficient_credits",
			Message: insufficient.Error(),
			Detail:  insufficient,
		}
	}

	var gatewayErr *paymentdomain.GatewayError
	if errors.As(err, &gatewayErr) {
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: "payment gateway unavailable",
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorPayload{
			Type:    "invalid_signature",
			Message: "invalid webhook signature",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isCatalogValidationError(err),
		isSubscriptionValidationError(err),
		isUsageValidationError(err),
		isCreditValidationError(err),
		isInvoiceValidationError(err),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, paymentdomain.ErrInvalidPayload):
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrInvalidPlanName),
		errors.Is(err, catalogdomain.ErrInvalidCurrency),
		errors.Is(err, catalogdomain.ErrInvalidCycle),
		errors.Is(err, catalogdomain.ErrInvalidBaseAmount),
		errors.Is(err, catalogdomain.ErrInvalidComponentKind),
		errors.Is(err, catalogdomain.ErrDuplicateComponent),
		errors.Is(err, catalogdomain.ErrInvalidIncludedUnits),
		errors.Is(err, catalogdomain.ErrInvalidUnitAmount),
		errors.Is(err, catalogdomain.ErrInvalidPlanID):
		return true
	default:
		return false
	}
}

func isSubscriptionValidationError(err error) bool {
	switch {
	case errors.Is(err, subscriptiondomain.ErrInvalidTenant),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidStatus),
		errors.Is(err, subscriptiondomain.ErrInvalidStart),
		errors.Is(err, subscriptiondomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}

func isUsageValidationError(err error) bool {
	switch {
	case errors.Is(err, usagedomain.ErrInvalidTenant),
		errors.Is(err, usagedomain.ErrInvalidComponent),
		errors.Is(err, usagedomain.ErrInvalidQuantity),
		errors.Is(err, usagedomain.ErrInvalidPeriod):
		return true
	default:
		return false
	}
}

func isCreditValidationError(err error) bool {
	switch {
	case errors.Is(err, creditdomain.ErrInvalidTenant),
		errors.Is(err, creditdomain.ErrInvalidComponent),
		errors.Is(err, creditdomain.ErrInvalidQuantity),
		errors.Is(err, creditdomain.ErrInvalidUnits),
		errors.Is(err, creditdomain.ErrComponentNotOnPlan),
		errors.Is(err, creditdomain.ErrComponentNotPrepaid):
		return true
	default:
		return false
	}
}

func isInvoiceValidationError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidTenant),
		errors.Is(err, invoicedomain.ErrInvalidPeriod),
		errors.Is(err, invoicedomain.ErrInvalidInvoice),
		errors.Is(err, invoicedomain.ErrInvalidUnits),
		errors.Is(err, invoicedomain.ErrComponentNotOnPlan),
		errors.Is(err, invoicedomain.ErrComponentNotPrepaid):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrAlreadyPaid),
		errors.Is(err, invoicedomain.ErrAlreadyVoid),
		errors.Is(err, paymentdomain.ErrInvoiceVoid):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrPlanNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, paymentdomain.ErrOrderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
