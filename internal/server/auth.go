package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const tokenTTL = 12 * time.Hour

// SignJWT issues a signed token with the provided subject and TTL.
func SignJWT(subject string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// registerAuth exposes the access-key to token exchange. A single shared key
// suits the classroom deployment; per-user accounts are not a concern here.
func registerAuth(g *echo.Group, accessKey string, secret []byte) {
	g.POST("/token", func(c echo.Context) error {
		var req struct {
			AccessKey string `json:"access_key"`
		}
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		if subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(accessKey)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid access key")
		}
		tok, err := SignJWT("teacher", secret, tokenTTL)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "token signing failed")
		}
		return c.JSON(http.StatusOK, map[string]string{"token": tok})
	})
}

// authMiddleware validates JWT tokens from the Authorization header or auth
// cookie. Paths under skipPrefix stay open so the token exchange works.
func authMiddleware(secret []byte, skipPrefix string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if strings.HasPrefix(c.Path(), skipPrefix) {
				return next(c)
			}
			tok := extractToken(c)
			if tok == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
			}
			parsed, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) { return secret, nil })
			if err != nil || !parsed.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
				if sub, ok := claims["sub"].(string); ok {
					c.Set("user_id", sub)
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
	}
}

func extractToken(c echo.Context) string {
	if h := c.Request().Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	if ck, err := c.Cookie("auth"); err == nil {
		return ck.Value
	}
	return ""
}
