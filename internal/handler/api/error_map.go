package api

import (
	"errors"
	"net/http"

	"repairmatch/internal/domain/chat"
	"repairmatch/internal/domain/request"
	"repairmatch/internal/handler/httperr"
	"repairmatch/internal/infra"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/matching"
	"repairmatch/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

// respondError is the single mapping from usecase sentinels to wire tokens.
// Every HTTP handler funnels failures through here so a token is never
// spelled twice.
func respondError(c *gin.Context, err error) {
	var missing *matching.MissingPricesError
	if errors.As(err, &missing) {
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err,
			httperr.CodeMissingPrices, "Some services have no price for this store",
			gin.H{"service_ids": missing.ServiceIDs})
		return
	}

	switch {
	case errors.Is(err, commands.ErrRateLimited):
		httperr.AbortWithError(c, http.StatusTooManyRequests, err,
			httperr.CodeRateLimited, "Too many requests", nil)
	case errors.Is(err, commands.ErrOpenLimit):
		httperr.AbortWithError(c, http.StatusConflict, err,
			httperr.CodeOpenRequestLimit, "Too many open requests", nil)
	case errors.Is(err, commands.ErrNotTransitionable):
		httperr.AbortWithError(c, http.StatusNotFound, err,
			httperr.CodeNotFoundOrNotCreatable, "Request not found or not in a valid state", nil)
	case errors.Is(err, commands.ErrInvalidRequest), errors.Is(err, commands.ErrInvalidMessage):
		httperr.AbortWithError(c, http.StatusBadRequest, err,
			httperr.CodeInvalidRequest, "Invalid request", nil)
	case errors.Is(err, matching.ErrNoStoreFound):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err,
			httperr.CodeStoreNotFound, "No store satisfies the selection", nil)
	case errors.Is(err, matching.ErrMissingScreenPrice):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err,
			httperr.CodeMissingScreenPrice, "Store has no price for this screen option", nil)
	case errors.Is(err, matching.ErrScreenOptionInvalid):
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err,
			httperr.CodeScreenOptionInvalid, "Screen option is invalid for this model", nil)
	case errors.Is(err, matching.ErrUnknownService):
		httperr.AbortWithError(c, http.StatusBadRequest, err,
			httperr.CodeInvalidRequest, "Unknown service selected", nil)
	case errors.Is(err, request.ErrCodeGeneration):
		httperr.AbortWithError(c, http.StatusInternalServerError, err,
			httperr.CodeGenerationFailed, "Could not allocate a request code", nil)
	case errors.Is(err, chat.ErrChatLocked):
		httperr.AbortWithError(c, http.StatusConflict, err,
			httperr.CodeChatLocked, "Chat is not open for this request", nil)
	case errors.Is(err, chat.ErrCustomerBlocked):
		httperr.AbortWithError(c, http.StatusForbidden, err,
			httperr.CodeCustomerMessagesBlocked, "Messages are blocked for this request", nil)
	case errors.Is(err, commands.ErrRequestNotFound),
		errors.Is(err, queries.ErrViewNotFound),
		infra.IsKind(err, infra.KindNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err,
			httperr.CodeNotFound, "Not found", nil)
	case errors.Is(err, commands.ErrInvalidCredentials),
		errors.Is(err, commands.ErrUserInactive):
		httperr.AbortWithError(c, http.StatusUnauthorized, err,
			httperr.CodeUnauthorized, "Invalid credentials", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err,
			httperr.CodeInternal, "Internal server error", nil)
	}
}

func respondBindError(c *gin.Context, err error) {
	httperr.AbortWithError(c, http.StatusBadRequest, err,
		httperr.CodeInvalidRequest, "Invalid request format", nil)
}
