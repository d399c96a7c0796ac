package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"bottledrop/internal/cache"
	"bottledrop/internal/service"

	"github.com/labstack/echo/v4"
)

const ContextUserKey = "user"

// DisabledUsersKey 是 Redis 中停用使用者 ID 集合的鍵。
// 停用必須即刻生效，不能等 JWT 過期，所以在這裡查集合。
const DisabledUsersKey = "users:disabled"

// verifyAccessToken 為測試替換點。
var verifyAccessToken = service.VerifyAccessToken

func extractClaims(c echo.Context) (*service.CustomClaims, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header format")
	}
	tokenString := parts[1]
	claims, err := verifyAccessToken(tokenString)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("invalid token: %v", err))
	}
	return claims, nil
}

// RequireAuth 驗證 Bearer token 並確認帳號未被停用。
func RequireAuth(rdb cache.Cache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := extractClaims(c)
			if err != nil {
				return err
			}
			disabled, err := rdb.SIsMember(c.Request().Context(), DisabledUsersKey, claims.UserID).Result()
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "authorization check failed")
			}
			if disabled {
				return echo.NewHTTPError(http.StatusUnauthorized, "account disabled")
			}
			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

func requireFlag(rdb cache.Cache, allowed func(*service.CustomClaims) bool, message string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return RequireAuth(rdb)(func(c echo.Context) error {
			claims := c.Get(ContextUserKey).(*service.CustomClaims)
			if !allowed(claims) {
				return echo.NewHTTPError(http.StatusForbidden, message)
			}
			return next(c)
		})
	}
}

// RequireVisit 限收瓶人員（或管理員）。
func RequireVisit(rdb cache.Cache) echo.MiddlewareFunc {
	return requireFlag(rdb, func(cl *service.CustomClaims) bool {
		return cl.CanVisit || cl.IsAdmin
	}, "visit privileges required")
}

// RequireEdit 限可管理 drop point 的使用者（或管理員）。
func RequireEdit(rdb cache.Cache) echo.MiddlewareFunc {
	return requireFlag(rdb, func(cl *service.CustomClaims) bool {
		return cl.CanEdit || cl.IsAdmin
	}, "edit privileges required")
}

// RequireAdmin 限管理員。
func RequireAdmin(rdb cache.Cache) echo.MiddlewareFunc {
	return requireFlag(rdb, func(cl *service.CustomClaims) bool {
		return cl.IsAdmin
	}, "admin privileges required")
}
