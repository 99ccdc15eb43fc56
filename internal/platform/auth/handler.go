package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler exposes the authentication endpoints: login issues a token, logout
// revokes the presented one.
type Handler struct {
	strategy Strategy
	tokens   TokenConfig
	revoked  *TokenRevocationStore
}

func NewHandler(strategy Strategy, tokens TokenConfig, revoked *TokenRevocationStore) *Handler {
	return &Handler{strategy: strategy, tokens: tokens, revoked: revoked}
}

// RegisterRoutes registers the auth endpoints. Login is registered on the
// public group; logout needs an authenticated request so the token to revoke
// is known. Force-logout of another user's sessions is admin only.
func (h *Handler) RegisterRoutes(public, authed *echo.Group) {
	public.POST("/auth/login", h.Login)
	authed.POST("/auth/logout", h.Logout)
	authed.POST("/auth/users/:id/logout", h.LogoutUser, RequireRole(RoleAdmin))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	actor, err := h.strategy.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error())
	}

	token, jti, err := IssueToken(h.tokens, actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}
	if h.revoked != nil {
		h.revoked.TrackIssued(jti, actor.ID.String(), time.Now().Add(h.tokens.TTL))
	}

	return c.JSON(http.StatusOK, loginResponse{
		Token:  token,
		UserID: actor.ID.String(),
		Role:   actor.Role,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	claims, ok := c.Get("claims").(*Claims)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	if h.revoked != nil && claims.ExpiresAt != nil {
		h.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	}
	return c.NoContent(http.StatusNoContent)
}

// LogoutUser revokes every tracked session of the given user, for example
// when a staff account is being retired.
func (h *Handler) LogoutUser(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	count := 0
	if h.revoked != nil {
		count = h.revoked.RevokeAllForUser(id.String())
	}
	return c.JSON(http.StatusOK, map[string]int{"revoked_sessions": count})
}
