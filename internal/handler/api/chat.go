package api

import (
	"errors"
	"net/http"

	reqdto "repairmatch/internal/handler/dto/request"
	resdto "repairmatch/internal/handler/dto/response"
	"repairmatch/internal/handler/middleware"
	"repairmatch/internal/realtime"
	"repairmatch/internal/usecase/commands"
	"repairmatch/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ChatHandler struct {
	chatCommands commands.ChatCommands
	chatQueries  queries.ChatQueries
	hub          *realtime.Hub
	service      *realtime.Service
}

func NewChatHandler(chatCommands commands.ChatCommands, chatQueries queries.ChatQueries, hub *realtime.Hub, service *realtime.Service) *ChatHandler {
	return &ChatHandler{
		chatCommands: chatCommands,
		chatQueries:  chatQueries,
		hub:          hub,
		service:      service,
	}
}

// Stream opens the SSE connection. The handshake frame carries the
// connection id that join and read calls must quote.
func (h *ChatHandler) Stream(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrRequestNotFound)
		return
	}

	client := h.hub.Connect(principal)
	defer h.hub.Disconnect(client)

	h.hub.Serve(c.Writer, c.Request, client)
}

// Join subscribes the caller's connection to a request room. Failures are
// soft: the response is an acknowledgment, never a dropped stream.
func (h *ChatHandler) Join(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrRequestNotFound)
		return
	}

	var req reqdto.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	connectionID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		respondBindError(c, err)
		return
	}

	switch {
	case principal.IsCustomer() && req.Code != nil:
		err = h.service.JoinByCode(c.Request.Context(), connectionID, *req.Code)
	case principal.IsStore() && req.RequestID != nil:
		err = h.service.JoinByRequestID(c.Request.Context(), connectionID, *req.RequestID)
	default:
		err = realtime.ErrJoinDenied
	}

	if err != nil {
		c.JSON(http.StatusOK, resdto.AckResponse{OK: false, Reason: joinFailureReason(err)})
		return
	}
	c.JSON(http.StatusOK, resdto.AckResponse{OK: true})
}

func joinFailureReason(err error) string {
	switch {
	case errors.Is(err, realtime.ErrJoinRateLimited):
		return "rate_limited"
	case errors.Is(err, realtime.ErrUnknownConnection):
		return "unknown_connection"
	default:
		return "join_denied"
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrRequestNotFound)
		return
	}

	var req reqdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	msg, err := h.chatCommands.SendMessage(c.Request.Context(), principal, req.RequestID, req.Body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resdto.FromMessage(msg))
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, commands.ErrRequestNotFound)
		return
	}

	var req reqdto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.chatCommands.MarkRead(c.Request.Context(), principal, req.RequestID, req.MessageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.AckResponse{OK: true})
}

func (h *ChatHandler) Messages(c *gin.Context) {
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

	views, err := h.chatQueries.ListMessages(c.Request.Context(), principal, id)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*resdto.MessageResponse, len(views))
	for i, view := range views {
		response[i] = resdto.FromMessageView(view)
	}
	c.JSON(http.StatusOK, response)
}

func (h *ChatHandler) Inbox(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		respondError(c, queries.ErrViewNotFound)
		return
	}

	items, err := h.chatQueries.Inbox(c.Request.Context(), principal, principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]*resdto.InboxItemResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromInboxItem(item)
	}
	c.JSON(http.StatusOK, response)
}
