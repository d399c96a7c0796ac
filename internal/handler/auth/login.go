// File: internal/handler/auth/login.go
package auth

import (
	"net/http"
	"time"

	"bottledrop/internal/api"
	"bottledrop/internal/database"
	"bottledrop/internal/service"
	"bottledrop/internal/store"

	"github.com/labstack/echo/v4"
)

// accessTokenTTL 是登入後存取令牌的有效期間。
const accessTokenTTL = 24 * time.Hour

var (
	getUserByName    = store.GetUserByName
	authenticateUser = service.AuthenticateUser
	issueAccessToken = service.IssueAccessToken
)

// @Summary     登入使用者
// @Description 使用 Username 與 Password 進行驗證，回傳存取令牌
// @Tags        auth
// @Accept      application/x-www-form-urlencoded
// @Produce     json
// @Param       username formData string true  "使用者名稱"
// @Param       password formData string false "使用者密碼"
// @Success     200      {object} api.LoginResponse
// @Failure     400      {object} api.ErrorResponse
// @Failure     401      {object} api.ErrorResponse
// @Failure     500      {object} api.ErrorResponse
// @Router      /auth/login [post]
func LoginHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: "invalid form data"})
		}
		if err := c.Validate(&req); err != nil {
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: err.Error()})
		}

		user, err := getUserByName(c.Request().Context(), db, req.Username)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
		}

		// 停用的帳號不可登入
		if !user.IsActive {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "account disabled"})
		}

		if err := authenticateUser(c.Request().Context(), *user, req.Password); err != nil {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid credentials"})
		}

		token, err := issueAccessToken(*user, accessTokenTTL)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "failed to issue token"})
		}

		return c.JSON(http.StatusOK, api.LoginResponse{
			AccessToken: token,
			TokenType:   "Bearer",
			ExpiresIn:   int(accessTokenTTL.Seconds()),
		})
	}
}
