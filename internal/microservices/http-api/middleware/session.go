package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	csrf "github.com/utrack/gin-csrf"

	"favmovies/internal/microservices/http-api/views"
)

// CSRFTokenKey holds the token the forms embed as _csrf.
const CSRFTokenKey = "csrf_field"

// Sessions stores the session in a signed cookie. Flash messages and the
// CSRF salt live there.
func Sessions(name, secret string, secure bool) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(name, store)
}

// CSRF rejects unsafe requests whose _csrf field does not match the session
// salt. Must run after Sessions.
func CSRF(secret string) gin.HandlerFunc {
	return csrf.Middleware(csrf.Options{
		Secret: secret,
		ErrorFunc: func(c *gin.Context) {
			c.HTML(http.StatusForbidden, views.Error, gin.H{
				"Status":     http.StatusForbidden,
				"StatusText": http.StatusText(http.StatusForbidden),
				"Message":    "The form has expired. Reload the page and try again.",
			})
			c.Abort()
		},
	})
}

// CSRFToken exposes the current token to handlers under CSRFTokenKey.
func CSRFToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(CSRFTokenKey, csrf.GetToken(c))
		c.Next()
	}
}
