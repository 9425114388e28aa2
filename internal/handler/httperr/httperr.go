package httperr

import (
	"github.com/gin-gonic/gin"
)

// Wire tokens surfaced in the Response code field. Stable and machine
// checkable; the generic ones are deliberately vague so callers cannot probe
// which codes or requests exist.
const (
	CodeInvalidRequest          = "invalid_request"
	CodeUnauthorized            = "unauthorized"
	CodeMissingPrices           = "missing_prices"
	CodeMissingScreenPrice      = "missing_screen_price"
	CodeScreenOptionInvalid     = "screenOption_invalid"
	CodeStoreNotFound           = "store_not_found_for_selection"
	CodeGenerationFailed        = "code_generation_failed"
	CodeNotFoundOrNotCreatable  = "not_found_or_not_creatable"
	CodeChatLocked              = "chat_locked"
	CodeCustomerMessagesBlocked = "customer_messages_blocked"
	CodeRateLimited             = "rate_limited"
	CodeOpenRequestLimit        = "open_request_limit"
	CodeNotFound                = "not_found"
	CodeInternal                = "internal_error"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, code, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Code = code
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
