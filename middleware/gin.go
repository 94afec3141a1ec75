package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrive/hriveauth/guard"
)

// GinSessionKey is the gin context key holding the guard.Session.
const GinSessionKey = "hrive.session"

// GinGuard is Guard for gin routers. The session is stored in the request
// context as well as under GinSessionKey.
func GinGuard(res RequestResolver, g *guard.Guard, opts ...Option) gin.HandlerFunc {
	o := newOptions(opts)

	return func(c *gin.Context) {
		session := resolveRequest(c.Request, res, o)
		d := g.Evaluate(session, c.Request.URL.RequestURI())
		if o.observe != nil {
			o.observe(c.Request, d)
		}

		switch d.Outcome {
		case guard.OutcomeRender:
			c.Set(GinSessionKey, session)
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), sessionContextKey{}, session))
			c.Next()
		case guard.OutcomeLoading:
			if wantsJSON(c.Request) {
				writeDecision(c.Writer, http.StatusOK, d)
			} else {
				o.loading.ServeHTTP(c.Writer, c.Request)
			}
			c.Abort()
		default:
			if wantsJSON(c.Request) {
				writeDecision(c.Writer, redirectStatus(d), d)
			} else {
				c.Redirect(http.StatusSeeOther, RedirectURL(d))
			}
			c.Abort()
		}
	}
}
