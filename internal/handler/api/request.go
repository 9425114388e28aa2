package api

import (
	"errors"
	"net/http"
	"strconv"

	reqdto "repairmatch/internal/handler/dto/request"
	resdto "repairmatch/internal/handler/dto/response"
	"repairmatch/internal/handler/middleware"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

type RequestHandler struct {
	requestCommands commands.RequestCommands
	requestQueries  queries.RequestQueries
}

func NewRequestHandler(requestCommands commands.RequestCommands, requestQueries queries.RequestQueries) *RequestHandler {
	return &RequestHandler{
		requestCommands: requestCommands,
		requestQueries:  requestQueries,
	}
}

func (h *RequestHandler) Create(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrInvalidRequest)
		return
	}

	var req reqdto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.requestCommands.Create(c.Request.Context(), principal, req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Reused {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromSnapshot(result.Request, result.Reused))
}

func (h *RequestHandler) Get(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, queries.ErrViewNotFound)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	view, err := h.requestQueries.GetByID(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}

// List serves both sides: customers get their own requests, operators their
// store's with optional status and search filters.
func (h *RequestHandler) List(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, queries.ErrViewNotFound)
		return
	}

	var items []*queries.RequestListItem
	var err error
	switch {
	case principal.IsCustomer():
		items, err = h.requestQueries.ListForCustomer(c.Request.Context(), principal.ID)
	case principal.IsStore():
		filter := queries.ListFilter{
			Status: c.Query("status"),
			Search: c.Query("search"),
		}
		items, err = h.requestQueries.ListForStore(c.Request.Context(), principal.StoreID, filter)
	default:
		respondError(c, queries.ErrViewNotFound)
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*resdto.RequestListResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromRequestListItem(item)
	}
	c.JSON(http.StatusOK, response)
}

func (h *RequestHandler) Withdraw(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrNotTransitionable)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.requestCommands.Withdraw(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RequestHandler) Accept(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrNotTransitionable)
		return
	}

	var req reqdto.AcceptRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	snap, err := h.requestCommands.AcceptByCode(c.Request.Context(), principal, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromSnapshot(snap, false))
}

func (h *RequestHandler) Complete(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrNotTransitionable)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.requestCommands.Complete(c.Request.Context(), principal, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrNotTransitionable)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req reqdto.CancelRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBindError(c, err)
		return
	}

	if err := h.requestCommands.CancelByStore(c.Request.Context(), principal, id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RequestHandler) AdminCancel(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrNotTransitionable)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req reqdto.CancelRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		respondBindError(c, err)
		return
	}

	if err := h.requestCommands.CancelByAdmin(c.Request.Context(), principal, id, req.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RequestHandler) BlockMessages(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrRequestNotFound)
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondBindError(c, err)
		return
	}

	var req reqdto.BlockMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.requestCommands.SetCustomerBlocked(c.Request.Context(), principal, id, req.Blocked); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var errInvalidID = errors.New("invalid id in path")

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}
