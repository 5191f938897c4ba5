package echoapi

import (
	"fmt"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/zugate/teacherdash/core"
	"github.com/zugate/teacherdash/core/session"
	"github.com/zugate/teacherdash/services/teacherapi"
)

const dashboardEntry = "/dashboard"

type sessionApi struct {
	sess       *session.Session
	auth       Authenticator
	validate   *validator.Validate
	translator ut.Translator
	appName    string
}

func registerSessionAPI(
	g *echo.Group,
	sess *session.Session,
	auth Authenticator,
	validate *validator.Validate,
	translator ut.Translator,
	appName string,
) {
	api := sessionApi{
		sess:       sess,
		auth:       auth,
		validate:   validate,
		translator: translator,
		appName:    appName,
	}

	g.GET("/", api.home)
	g.POST("/login", api.login)
	g.POST("/session/token", api.setToken)
	g.POST("/logout", api.logout)
}

// Handlers

func (api *sessionApi) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.sessionResponse())
}

func (api *sessionApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := validateRequest(api.validate, api.translator, data); err != nil {
		return err
	}

	token, err := api.auth.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if apiErr, ok := errors.Cause(err).(*teacherapi.APIError); ok {
			if apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized {
				return errInvalidCredentials
			}
		}
		return errors.Wrap(err, "logging in")
	}
	return api.adopt(ctx, token)
}

// setToken adopts a token obtained elsewhere.
func (api *sessionApi) setToken(ctx echo.Context) error {
	var data TokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TokenRequest")
	}
	if err := validateRequest(api.validate, api.translator, data); err != nil {
		return err
	}
	return api.adopt(ctx, data.Token)
}

func (api *sessionApi) logout(ctx echo.Context) error {
	if err := api.sess.Logout(ctx.Request().Context()); err != nil {
		// the token would come back on the next boot
		return core.NewShutdownError(fmt.Sprintf("logging out: stored token cannot be cleared: %v", err))
	}
	return ctx.JSON(http.StatusOK, redirectResponse{Redirect: session.AnonymousEntry})
}

// adopt stores token as the session token; an undecodable token leaves the session anonymous.
func (api *sessionApi) adopt(ctx echo.Context, token string) error {
	if err := api.sess.SetToken(ctx.Request().Context(), token); err != nil {
		if session.IsDecodeError(err) {
			return ctx.JSON(http.StatusUnauthorized, api.sessionResponse())
		}
		return errors.Wrap(err, "setting session token")
	}
	return ctx.JSON(http.StatusOK, api.sessionResponse())
}

func (api *sessionApi) sessionResponse() SessionResponse {
	snap := api.sess.Current()
	resp := SessionResponse{App: api.appName, Authenticated: snap.Authenticated(), User: snap.User}
	if session.Authorize(snapshot(snap), session.RoleTeacher).Allow {
		resp.Redirect = dashboardEntry
	}
	return resp
}
