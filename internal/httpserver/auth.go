package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tokenauth/internal/logging"
	authmw "github.com/Skotchmaster/tokenauth/internal/middleware/auth"
	"github.com/Skotchmaster/tokenauth/internal/service"
	"github.com/Skotchmaster/tokenauth/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_signup")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("signup_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}

	if err := h.Svc.Signup(ctx, req.Username, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrDuplicateUser):
			return echo.NewHTTPError(http.StatusBadRequest, transport.MsgUsernameTaken)
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, transport.MsgInternal).SetInternal(err)
		}
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: transport.MsgRegistered})
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.Credentials
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidBody)
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return echo.NewHTTPError(http.StatusBadRequest, transport.MsgInvalidCredentials)
		case errors.Is(err, service.ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, transport.MsgInternal).SetInternal(err)
		}
	}

	return c.JSON(http.StatusOK, transport.LoginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
	})
}

// LogOut takes the token from the JSON body, the ?token= query or a bearer
// header, in that order. A missing or unknown token still logs out, and an
// unreadable body only skips the first source.
func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.LogoutRequest
	if err := c.Bind(&req); err != nil {
		l.Debug("logout_body_ignored", "error", err)
		req = transport.LogoutRequest{}
	}

	token := req.Token
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		token = authmw.TokenFromHeader(c.Request())
	}

	if err := h.Svc.Logout(ctx, token); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, transport.MsgInternal).SetInternal(err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: transport.MsgLoggedOut})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	user, ok := authmw.UserFrom(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}
	return c.JSON(http.StatusOK, transport.UserResponse{ID: user.ID, Username: user.Username})
}
