package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"repairmatch/internal/domain/user"
	"repairmatch/internal/handler/httperr"
	"repairmatch/internal/pkg/cookie"
	"repairmatch/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

const ctxPrincipalKey = "principal"

type AuthMiddleware struct {
	jwtService *jwt.Service
}

func NewAuthMiddleware(jwtService *jwt.Service) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := cookie.GetAccessToken(c)
		if token == "" {
			authHeader := c.GetHeader("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimSpace(authHeader[len("Bearer "):])
			}
		}

		if token == "" {
			abortUnauthorized(c, "Access token required")
			return
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			slog.Warn("token validation failed", "error", err.Error())
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		kind, err := user.NewKind(claims.Kind)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		principal := user.Principal{ID: claims.UserID, Kind: kind}
		if claims.StoreID != nil {
			principal.StoreID = *claims.StoreID
		}

		c.Set(ctxPrincipalKey, principal)
		c.Next()
	}
}

// RequireKind layers a principal-kind gate behind RequireAuth.
func (m *AuthMiddleware) RequireKind(kinds ...user.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			abortUnauthorized(c, "Access token required")
			return
		}

		for _, k := range kinds {
			if principal.Kind == k {
				c.Next()
				return
			}
		}

		resp := httperr.Response{Status: http.StatusForbidden}
		resp.Error.Code = httperr.CodeUnauthorized
		resp.Error.Message = "Insufficient permissions"
		c.AbortWithStatusJSON(http.StatusForbidden, resp)
	}
}

func GetPrincipal(c *gin.Context) (user.Principal, bool) {
	value, exists := c.Get(ctxPrincipalKey)
	if !exists {
		return user.Principal{}, false
	}
	principal, ok := value.(user.Principal)
	return principal, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	resp := httperr.Response{Status: http.StatusUnauthorized}
	resp.Error.Code = httperr.CodeUnauthorized
	resp.Error.Message = msg
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}
