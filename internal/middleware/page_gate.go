package middleware

import (
	"net/url"
	"strings"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/config"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
)

var (
	protectedPagePrefixes = []string{"/create", "/settings", "/admin"}
	adminPagePrefixes     = []string{"/admin"}
)

// PageGate guards the browser pages. Without a session it redirects to
// /login?callbackUrl=<path>; non-admins hitting an admin page go to /.
// The token is read from the bearer header or the access_token cookie.
func PageGate(cfg *config.Config, users CallerResolver) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Filter: func(c *fiber.Ctx) bool {
			return !hasPrefix(c.Path(), protectedPagePrefixes)
		},
		SigningKey:  jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		TokenLookup: "header:Authorization,cookie:access_token",
		AuthScheme:  "Bearer",
		SuccessHandler: func(c *fiber.Ctx) error {
			caller, err := lookup(c, users)
			if err != nil {
				return redirectToLogin(c)
			}
			if hasPrefix(c.Path(), adminPagePrefixes) && !caller.IsAdmin {
				return c.Redirect("/", fiber.StatusFound)
			}
			identity.Set(c, caller)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return redirectToLogin(c)
		},
	})
}

func redirectToLogin(c *fiber.Ctx) error {
	return c.Redirect("/login?callbackUrl="+url.QueryEscape(c.Path()), fiber.StatusFound)
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
