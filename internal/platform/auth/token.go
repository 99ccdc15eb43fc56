package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// TokenConfig holds what the middleware and issuer need to mint and verify
// tokens. HS256 with a shared secret: the token issuer is this server itself,
// not an external identity provider.
type TokenConfig struct {
	Secret []byte
	TTL    time.Duration
}

// IssueToken mints a signed JWT for the actor. The returned JTI identifies the
// token for later revocation.
func IssueToken(cfg TokenConfig, actor Actor) (token, jti string, err error) {
	jti = uuid.NewString()
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID.String(),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
		},
		Role: actor.Role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.Secret)
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// ParseToken verifies a signed JWT and returns its claims.
func ParseToken(cfg TokenConfig, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// Middleware authenticates requests with a Bearer token. Revoked tokens are
// rejected even before their natural expiry. On success the actor is placed on
// the request context for services and the audit middleware.
func Middleware(cfg TokenConfig, revoked *TokenRevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := ParseToken(cfg, parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}
			if revoked != nil && revoked.IsRevoked(claims.ID) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
			}

			role := claims.Role
			if role != RoleAdmin {
				role = RoleStaff
			}

			actor := Actor{ID: userID, Role: role}
			ctx := WithActor(c.Request().Context(), actor)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set("claims", claims)

			return next(c)
		}
	}
}

// RequireRole returns middleware that checks if the actor has one of the
// specified roles. The administrator passes every check.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			for _, required := range roles {
				if actor.Role == required || actor.Role == RoleAdmin {
					return next(c)
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
