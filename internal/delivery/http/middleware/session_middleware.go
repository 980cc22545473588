package middleware

import (
	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/delivery/http/session"
	"gatehouse/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ContextKeyUser is the echo.Context key under which the authenticated user is stored.
const ContextKeyUser = "user"

// SessionMiddleware restores the authenticated user from the session cookie.
// Requests without a valid, unexpired session are rejected before reaching the handler.
type SessionMiddleware struct {
	authUsecase usecase.AuthUsecase
}

// NewSessionMiddleware is the constructor for SessionMiddleware.
func NewSessionMiddleware(authUsecase usecase.AuthUsecase) *SessionMiddleware {
	return &SessionMiddleware{authUsecase: authUsecase}
}

// Authenticate resolves the session cookie into a user and stores it on the context.
func (m *SessionMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(session.CookieName)
		if err != nil || cookie.Value == "" {
			return response.Unauthorized(c, "UNAUTHORIZED", "Session cookie is missing")
		}

		ctx := c.Request().Context()

		out, err := m.authUsecase.DeserializeUser(ctx, &usecase.DeserializeUserInput{
			SessionKey: cookie.Value,
		})
		if err != nil {
			return err
		}
		if !out.Found {
			return response.Unauthorized(c, "UNAUTHORIZED", "Session expired or unknown")
		}

		principal, err := session.Decode(out.Payload)
		if err != nil {
			return response.Unauthorized(c, "UNAUTHORIZED", "Malformed session payload")
		}

		user, err := m.authUsecase.LoadSessionUser(ctx, principal.UserID)
		if err != nil {
			return err
		}

		// Set user info on the context for handlers to use
		c.Set(ContextKeyUser, user)

		return next(c)
	}
}
