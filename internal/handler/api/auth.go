package api

import (
	"net/http"

	reqdto "repairmatch/internal/handler/dto/request"
	resdto "repairmatch/internal/handler/dto/response"
	"repairmatch/internal/handler/httperr"
	"repairmatch/internal/handler/middleware"
	"repairmatch/internal/pkg/config"
	"repairmatch/internal/pkg/cookie"
	"repairmatch/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authCommands commands.AuthCommands
	jwtCfg       config.JWTConfig
	cookieCfg    config.CookieConfig
}

func NewAuthHandler(authCommands commands.AuthCommands, jwtCfg config.JWTConfig, cookieCfg config.CookieConfig) *AuthHandler {
	return &AuthHandler{
		authCommands: authCommands,
		jwtCfg:       jwtCfg,
		cookieCfg:    cookieCfg,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req reqdto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authCommands.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	cookie.SetAccessToken(c, h.cookieCfg, result.AccessToken, h.jwtCfg.AccessDuration)
	c.JSON(http.StatusOK, resdto.FromPrincipal(result.Principal))
}

func (h *AuthHandler) Logout(c *gin.Context) {
	cookie.ClearAccessToken(c, h.cookieCfg)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		resp := httperr.Response{Status: http.StatusUnauthorized}
		resp.Error.Code = httperr.CodeUnauthorized
		resp.Error.Message = "Access token required"
		c.JSON(http.StatusUnauthorized, resp)
		return
	}
	c.JSON(http.StatusOK, resdto.FromPrincipal(principal))
}
