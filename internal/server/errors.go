package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/musichub/musichub/internal/analytics/domain"
	catalogdomain "github.com/musichub/musichub/internal/catalog/domain"
	identitydomain "github.com/musichub/musichub/internal/identity/domain"
	purchasedomain "github.com/musichub/musichub/internal/purchase/domain"
	streamdomain "github.com/musichub/musichub/internal/stream/domain"
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
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal_error")
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

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, identitydomain.ErrInvalidToken):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, purchasedomain.ErrSettlementDeclined):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "settlement_declined",
			Message: "payment was declined",
		}
	case errors.Is(err, purchasedomain.ErrSettlementTimeout):
		return http.StatusPaymentRequired, errorPayload{
			Type:    "settlement_timeout",
			Message: "payment timed out",
		}
	case errors.Is(err, identitydomain.ErrEmailTaken):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "email already registered",
		}
	case errors.Is(err, purchasedomain.ErrPurchaseInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "purchase already in progress",
		}
	case errors.Is(err, streamdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
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

// classifyErrorForLog feeds the request logger with the same taxonomy the
// response mapping uses.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
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
	case isIdentityValidationError(err),
		isCatalogValidationError(err),
		isPurchaseValidationError(err),
		isStreamValidationError(err),
		isAnalyticsValidationError(err):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrSongNotFound),
		errors.Is(err, catalogdomain.ErrArtistNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isIdentityValidationError(err error) bool {
	switch err {
	case identitydomain.ErrInvalidName,
		identitydomain.ErrInvalidEmail,
		identitydomain.ErrInvalidPassword,
		identitydomain.ErrInvalidRole:
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch err {
	case catalogdomain.ErrInvalidArtist,
		catalogdomain.ErrInvalidTitle,
		catalogdomain.ErrInvalidPrice,
		catalogdomain.ErrInvalidUser,
		catalogdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isPurchaseValidationError(err error) bool {
	switch err {
	case purchasedomain.ErrInvalidUser,
		purchasedomain.ErrInvalidSong,
		purchasedomain.ErrInvalidArtist,
		purchasedomain.ErrInvalidAmount,
		purchasedomain.ErrInvalidPaymentMethod,
		purchasedomain.ErrInvalidPhoneNumber,
		purchasedomain.ErrInvalidCardNumber,
		purchasedomain.ErrInvalidPageToken:
		return true
	default:
		return false
	}
}

func isStreamValidationError(err error) bool {
	switch err {
	case streamdomain.ErrInvalidSong,
		streamdomain.ErrInvalidArtist,
		streamdomain.ErrInvalidUser:
		return true
	default:
		return false
	}
}

func isAnalyticsValidationError(err error) bool {
	switch err {
	case analyticsdomain.ErrMissingSubject,
		analyticsdomain.ErrInvalidPeriod,
		analyticsdomain.ErrInvalidArtist,
		analyticsdomain.ErrInvalidSong:
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
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	if code == "invalid_request" {
		return "request"
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
