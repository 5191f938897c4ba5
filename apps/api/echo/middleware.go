package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zugate/teacherdash/core/session"
)

const contextSubjectKey = "subject"

// snapshot pins one session read so the decision and the context subject agree.
type snapshot session.Snapshot

func (snap snapshot) Current() session.Snapshot { return session.Snapshot(snap) }

// guardMiddleware re-checks the session on every request; a denied request is redirected to the anonymous entry.
func guardMiddleware(sess *session.Session, role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			snap := sess.Current()
			dec := session.Authorize(snapshot(snap), role)
			if !dec.Allow {
				ctx.Response().Header().Set(echo.HeaderLocation, dec.Redirect)
				return ctx.JSON(http.StatusSeeOther, redirectResponse{Redirect: dec.Redirect})
			}
			ctx.Set(contextSubjectKey, snap.User)
			return next(ctx)
		}
	}
}

func contextSubject(ctx echo.Context) session.Subject {
	sub, _ := ctx.Get(contextSubjectKey).(session.Subject)
	return sub
}
