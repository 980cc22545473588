// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"gatehouse/config"
	"gatehouse/internal/delivery/http/middleware"
	"gatehouse/internal/delivery/http/response"
	"gatehouse/internal/delivery/http/session"
	domainerrors "gatehouse/internal/domain/errors"
	"gatehouse/internal/domain/service"
	"gatehouse/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// registerRequest is the wire shape for local registration.
type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// loginRequest is the wire shape for local credential login.
type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// googleCallbackRequest carries the ID token issued by Google Sign-In.
type googleCallbackRequest struct {
	IDToken string `json:"id_token" form:"id_token" validate:"required"`
}

// AuthHandler holds dependencies for authentication-related handlers.
type AuthHandler struct {
	uc       usecase.AuthUsecase
	verifier service.FederatedVerifier
	cfg      *config.Config
	logger   *slog.Logger
}

// NewAuthHandler is the constructor for AuthHandler, injected by Fx.
func NewAuthHandler(uc usecase.AuthUsecase, verifier service.FederatedVerifier, cfg *config.Config, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		uc:       uc,
		verifier: verifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// Register handles the local registration request.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output.User, "User registered successfully")
}

// Login handles the local credential login request and issues a session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", err.Error())
	}

	ctx := c.Request().Context()

	user, err := h.uc.ValidateUser(ctx, &usecase.ValidateUserInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.issueSession(c, user); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, user, "Login successful")
}

// GoogleCallback handles the Google Sign-In callback. It accepts the ID token
// either as a form field (Google's POST callback) or as a JSON body.
func (h *AuthHandler) GoogleCallback(c echo.Context) error {
	var req googleCallbackRequest
	if idToken := c.FormValue("id_token"); idToken != "" {
		req.IDToken = idToken
	} else if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid Google callback input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", "ID token is required")
	}

	ctx := c.Request().Context()

	identity, err := h.verifier.ExtractIdentity(ctx, req.IDToken)
	if err != nil {
		return errors.Wrap(domainerrors.ErrInvalidFederatedAssertion, err.Error())
	}

	output, err := h.uc.ValidateUserForGoogle(ctx, &usecase.GoogleLoginInput{
		ProviderID: identity.ProviderID,
		Email:      identity.Email,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.issueSession(c, output.User); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, output.User, "Google authentication successful")
}

// Logout clears the session cookie. The cached session entry is left to
// expire on its own TTL.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return response.Success(c, http.StatusOK, map[string]string{"message": "Successfully logged out"}, "Logout successful")
}

// Me returns the profile of the currently authenticated user.
// It must be mounted behind the session middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := c.Get(middleware.ContextKeyUser).(*usecase.UserView)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "No authenticated user on request")
	}

	return response.Success(c, http.StatusOK, user, "Profile retrieved successfully")
}

// issueSession serializes a session principal into the cache and sets the
// session cookie on the response.
func (h *AuthHandler) issueSession(c echo.Context, user *usecase.UserView) error {
	principal := &session.Principal{
		UserID:   user.ID,
		IssuedAt: time.Now().UTC(),
	}

	payload, err := session.Encode(principal)
	if err != nil {
		return errors.Wrap(err, "encode session principal")
	}

	key := session.NewKey()
	ttl := h.cfg.SessionTTL()

	if err := h.uc.SerializeUser(c.Request().Context(), &usecase.SerializeUserInput{
		SessionKey: key,
		Payload:    payload,
		TTL:        ttl,
	}); err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    key,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
