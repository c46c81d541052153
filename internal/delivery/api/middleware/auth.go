package middleware

import (
	"log/slog"
	"strings"

	"cleancity/internal/delivery/api/response"
	deliverycontext "cleancity/internal/delivery/context"
	"cleancity/internal/domain/entity"
	"cleancity/internal/domain/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AuthMiddlewareParams holds dependencies for AuthMiddleware, injected by Fx.
type AuthMiddlewareParams struct {
	fx.In

	TokenService service.TokenService
	Logger       *slog.Logger
}

// AuthMiddleware resolves the bearer token into the calling actor.
type AuthMiddleware struct {
	tokenSvc service.TokenService
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(params AuthMiddlewareParams) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: params.TokenService, logger: params.Logger}
}

// Authenticate validates the access token and stores the actor on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(strings.TrimSpace(tokenString))
		if err != nil {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger).Debug("Rejected access token",
				slog.Any("error", err),
			)

			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		}

		roles := entity.RolesFromStrings(claims.Roles)
		if claims.ActorID == "" || len(roles) == 0 {
			return response.Unauthorized(c, "INVALID_TOKEN", "Token carries no actor or role")
		}

		deliverycontext.SetActor(c, entity.Actor{ID: claims.ActorID, Roles: roles})

		return next(c)
	}
}

// RequireRole lets the request through when the actor holds any of roles.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := deliverycontext.GetActor(c)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			for _, role := range roles {
				if actor.Is(role) {
					return next(c)
				}
			}

			return response.Forbidden(c, "FORBIDDEN", "Permission denied: role not allowed")
		}
	}
}
