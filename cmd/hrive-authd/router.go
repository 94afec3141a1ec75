package main

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrive/hriveauth"
	"github.com/hrive/hriveauth/functions"
	"github.com/hrive/hriveauth/guard"
	"github.com/hrive/hriveauth/metrics/export/prometheus"
	"github.com/hrive/hriveauth/middleware"
	"github.com/hrive/hriveauth/role"
)

type portal struct {
	title string
	allow role.Role
}

// portals are keyed by their home path; each admits only its own role.
var portals = map[string]portal{
	role.HomePath(role.Admin):       {title: "Admin", allow: role.Admin},
	role.HomePath(role.HRManager):   {title: "HR Manager", allow: role.HRManager},
	role.HomePath(role.LineManager): {title: "Line Manager", allow: role.LineManager},
	role.HomePath(role.Employee):    {title: "Employee", allow: role.Employee},
}

var pages = template.Must(template.New("portal").Parse(`<!doctype html>
<title>HRive {{.Title}}</title>
<h1>HRive {{.Title}} portal</h1>
<p>Signed in as {{.Email}} ({{.Role}}).</p>
<form method="post" action="/api/logout" onsubmit="event.preventDefault();fetch('/api/logout',{method:'POST',credentials:'include'}).then(()=>location.assign('/login'))"><button>Sign out</button></form>
`))

func init() {
	template.Must(pages.New("login").Parse(`<!doctype html>
<title>HRive sign in</title>
<h1>Sign in to HRive</h1>
<form id="login">
<label>Email <input name="email" type="email" autocomplete="username" required></label>
<label>Password <input name="password" type="password" autocomplete="current-password" required></label>
<button>Sign in</button>
</form>
<p id="error" role="alert"></p>
<script>
const redirect = {{.Redirect}};
document.getElementById('login').addEventListener('submit', async (ev) => {
  ev.preventDefault();
  const form = new FormData(ev.target);
  const res = await fetch('/api/login', {
    method: 'POST',
    credentials: 'include',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({email: form.get('email'), password: form.get('password')}),
  });
  const body = await res.json();
  if (!res.ok) { document.getElementById('error').textContent = body.error; return; }
  if (redirect) { location.replace(redirect); return; }
  const session = await (await fetch('/api/session', {credentials: 'include'})).json();
  location.replace(session.data.home);
});
</script>
`))
}

func newRouter(engine *hriveauth.Engine, logger *slog.Logger) *gin.Engine {
	cfg := engine.Config()
	fcfg := functions.ConfigFrom(cfg)
	fcfg.Logger = logger

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))
	r.SetHTMLTemplate(pages)

	r.Any("/api/login", gin.WrapH(functions.Login(engine, fcfg)))
	r.Any("/api/refresh", gin.WrapH(functions.Refresh(engine, fcfg)))
	r.Any("/api/logout", gin.WrapH(functions.Logout(engine, fcfg)))
	r.Any("/api/seed-test-users", gin.WrapH(functions.SeedTestUsers(engine, fcfg)))
	r.Any("/api/session", gin.WrapH(functions.Session(engine, fcfg)))

	r.GET(role.SignInPath, func(c *gin.Context) {
		c.HTML(http.StatusOK, "login", gin.H{"Redirect": localPath(c.Query("redirect"))})
	})
	r.GET("/metrics", gin.WrapH(prometheus.NewExporter(engine).Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if _, err := engine.Ping(ctx); err != nil {
			c.String(http.StatusServiceUnavailable, "redis unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})

	guardOpts := []middleware.Option{
		middleware.WithCookieName(cfg.Portal.AccessCookieName),
		middleware.WithTimeout(cfg.Portal.ResolveTimeout),
		middleware.WithObserver(engine.ObserveDecision),
		middleware.WithLogger(logger),
	}
	for path, p := range portals {
		group := r.Group(path, middleware.GinGuard(engine, guard.MustNew(p.allow), guardOpts...))
		group.GET("", renderPortal(p))
		group.GET("/*rest", renderPortal(p))
	}
	return r
}

func renderPortal(p portal) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := c.MustGet(middleware.GinSessionKey).(guard.Session)
		c.HTML(http.StatusOK, "portal", gin.H{
			"Title": p.title,
			"Email": s.User.Email,
			"Role":  s.Role.String(),
		})
	}
}

// localPath keeps only same-origin absolute paths.
func localPath(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return ""
	}
	return target
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.LogAttrs(c.Request.Context(), slog.LevelDebug, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}
