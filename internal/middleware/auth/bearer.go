package authmw

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/tokenauth/internal/logging"
	loggingmw "github.com/Skotchmaster/tokenauth/internal/middleware/logging"
	"github.com/Skotchmaster/tokenauth/internal/models"
	"github.com/Skotchmaster/tokenauth/internal/service"
)

const CtxUser = "user"

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type Bearer struct {
	Auth Authenticator
}

func NewBearer(a Authenticator) *Bearer {
	return &Bearer{Auth: a}
}

// TokenFromHeader returns the credential of an "Authorization: Bearer" header.
func TokenFromHeader(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (m *Bearer) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token := TokenFromHeader(c.Request())
		if token == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		user, err := m.Auth.Authenticate(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			logging.FromContext(ctx).Error("authenticate_error", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		c.Set(CtxUser, user)
		loggingmw.SetUser(c, user.ID)
		return next(c)
	}
}

func UserFrom(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(CtxUser).(*models.User)
	return u, ok && u != nil
}
