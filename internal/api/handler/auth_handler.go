package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/heartspace/web-gateway/internal/core/domain"
	"github.com/heartspace/web-gateway/internal/core/service"
)

// SessionService is the login/logout surface the auth handler drives.
type SessionService interface {
	Login(ctx context.Context, store *service.AuthStore, creds domain.Credentials) (*service.AuthResult, error)
	Register(ctx context.Context, in domain.Registration) *service.AuthResult
	Logout(ctx context.Context, store *service.AuthStore) *service.AuthResult
	Refresh(ctx context.Context, store *service.AuthStore) (*service.AuthResult, error)
}

type AuthHandler struct {
	sessions SessionService
}

func NewAuthHandler(sessions SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

type loginRequest struct {
	Email      string `json:"email"      validate:"required,email"`
	Password   string `json:"password"   validate:"required"`
	RememberMe bool   `json:"rememberMe"`
}

type registerRequest struct {
	Email       string `json:"email"       validate:"required,email"`
	Password    string `json:"password"    validate:"required,min=6"`
	FullName    string `json:"fullName"    validate:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

type sessionResponse struct {
	IsAuthenticated bool                `json:"isAuthenticated"`
	State           domain.SessionState `json:"state"`
	User            *domain.User        `json:"user,omitempty"`
	RememberMe      bool                `json:"rememberMe"`
	Redirect        string              `json:"redirect"`
}

type gateResponse struct {
	Open    bool                `json:"open"`
	Pending *domain.PendingAuth `json:"pending,omitempty"`
}

// Login authenticates the caller and sets the session cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  domain.Envelope[service.AuthResult]
// @Failure      401   {object}  domain.Envelope[service.AuthResult]
// @Failure      409   {object}  domain.Envelope[any]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.sessions.Login(c.Request().Context(), ac.Store, domain.Credentials{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
	})
	if err != nil {
		return err
	}

	env := authEnvelope(res, http.StatusUnauthorized)
	if resumed := ac.Gate.Resumed(); resumed != nil {
		env = env.WithMeta("resumed", resumed)
	}
	return respond(c, env)
}

// Register creates an account. The caller is sent to the login page, not
// signed in.
//
// @Summary      Register a new client
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration form"
// @Success      200   {object}  domain.Envelope[service.AuthResult]
// @Failure      400   {object}  domain.Envelope[service.AuthResult]
// @Failure      422   {object}  domain.Envelope[any]
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res := h.sessions.Register(c.Request().Context(), domain.Registration{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	return respond(c, authEnvelope(res, http.StatusBadRequest))
}

// Logout clears the session cookies. Calling it while signed out succeeds.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope[service.AuthResult]
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	res := h.sessions.Logout(c.Request().Context(), ac.Store)
	return respond(c, authEnvelope(res, http.StatusOK))
}

// Refresh exchanges the refresh cookie for a new access token.
//
// @Summary      Refresh the access token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope[service.AuthResult]
// @Failure      401  {object}  domain.Envelope[service.AuthResult]
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	res, err := h.sessions.Refresh(c.Request().Context(), ac.Store)
	if err != nil {
		return err
	}
	return respond(c, authEnvelope(res, http.StatusUnauthorized))
}

// Session reports the caller's session as restored from cookies.
//
// @Summary      Current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope[sessionResponse]
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c echo.Context) error {
	sess := session(c)
	out := sessionResponse{
		IsAuthenticated: sess.State == domain.StateAuthenticated,
		State:           sess.State,
		User:            sess.User,
		RememberMe:      sess.RememberMe,
		Redirect:        domain.RedirectLogin,
	}
	if out.IsAuthenticated {
		out.Redirect = sess.Role().RedirectPath()
	}
	return respond(c, domain.Ok(out))
}

// Gate opens the login dialog, optionally recording an action to resume
// once the caller signs in. Signed-in callers get open=false.
//
// @Summary      Open the login dialog
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.Continuation  false  "Action to resume after login"
// @Success      200   {object}  domain.Envelope[gateResponse]
// @Failure      400   {object}  domain.Envelope[any]
// @Router       /auth/gate [post]
func (h *AuthHandler) OpenGate(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}

	var cont *service.Continuation
	if c.Request().ContentLength != 0 {
		var req service.Continuation
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
		cont = &req
	}

	ctx := c.Request().Context()
	if ok, err := ac.Gate.RequireAuth(ctx, cont); err != nil {
		return err
	} else if ok {
		return respond(c, domain.Ok(gateResponse{}))
	}
	return h.gateState(c, ac)
}

// GateState reports whether the login dialog is open and what it will
// resume.
//
// @Summary      Login dialog state
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope[gateResponse]
// @Router       /auth/gate [get]
func (h *AuthHandler) GateState(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	return h.gateState(c, ac)
}

// CloseGate dismisses the login dialog and drops the pending action.
//
// @Summary      Close the login dialog
// @Tags         auth
// @Produce      json
// @Success      200  {object}  domain.Envelope[gateResponse]
// @Router       /auth/gate [delete]
func (h *AuthHandler) CloseGate(c echo.Context) error {
	ac, err := authContext(c)
	if err != nil {
		return err
	}
	if err := ac.Gate.Close(c.Request().Context()); err != nil {
		return err
	}
	return respond(c, domain.Ok(gateResponse{}))
}

func (h *AuthHandler) gateState(c echo.Context, ac *service.AuthContext) error {
	p, err := ac.Gate.Pending(c.Request().Context())
	if err != nil {
		return err
	}
	return respond(c, domain.Ok(gateResponse{Open: p != nil, Pending: p}))
}

// authEnvelope wraps res; failures carry failCode so the client can
// branch on the status alone. The toast rides in metaData.
func authEnvelope(res *service.AuthResult, failCode int) domain.Envelope[*service.AuthResult] {
	env := domain.Envelope[*service.AuthResult]{
		Data:      res,
		Message:   res.Message,
		IsSuccess: res.Success,
		Code:      http.StatusOK,
	}
	if !res.Success {
		env.Code = failCode
	}
	if res.Toast != nil {
		env = env.WithMeta("toast", res.Toast)
	}
	return env
}
