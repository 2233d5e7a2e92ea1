package middleware

import (
	"net/http"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	userIDKey = "user_id"
	permsKey  = "perms"
)

type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
}

func NewAuthenticator(cfg config.JWT) *Authenticator {
	return &Authenticator{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Authenticate validates the bearer token and stores the caller's user id
// (the "sub" claim) and permissions on the context.
func (a *Authenticator) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauth(c, "invalid_request", "missing bearer token")
			}

			raw := strings.TrimPrefix(auth, "Bearer ")
			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return a.secret, nil
			},
				jwt.WithLeeway(30*time.Second), // small clock skew
				jwt.WithIssuer(a.issuer),
				jwt.WithAudience(a.audience),
			)
			if err != nil || !token.Valid {
				return unauth(c, "invalid_token", "invalid jwt")
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return unauth(c, "invalid_token", "claims parsing error")
			}
			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return unauth(c, "invalid_token", "missing subject")
			}

			c.Set(userIDKey, sub)
			c.Set(permsKey, extractPerms(claims))
			return next(c)
		}
	}
}

// Issue signs a token for userID carrying perms.
func (a *Authenticator) Issue(userID string, perms []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"iss":   a.issuer,
		"aud":   a.audience,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
		"perms": perms,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Require ensures all required permissions are present. It must run after
// Authenticate.
func Require(requiredPerms ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, _ := c.Get(permsKey).(map[string]struct{})
			if !hasAll(perms, requiredPerms) {
				return forbidden(c, "insufficient_scope", "missing required permissions")
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated caller.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

func extractPerms(claims jwt.MapClaims) map[string]struct{} {
	out := map[string]struct{}{}
	if arr, ok := claims["perms"].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok && s != "" {
				out[s] = struct{}{}
			}
		}
	}
	return out
}

func hasAll(have map[string]struct{}, req []string) bool {
	for _, r := range req {
		if _, ok := have[r]; !ok {
			return false
		}
	}
	return true
}

func unauth(c echo.Context, code, desc string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="`+code+`", error_description="`+desc+`"`)
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": code, "error_description": desc})
}

func forbidden(c echo.Context, code, desc string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Bearer error="`+code+`", error_description="`+desc+`"`)
	return c.JSON(http.StatusForbidden, map[string]string{"error": code, "error_description": desc})
}
