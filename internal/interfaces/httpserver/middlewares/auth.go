package middlewares

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/infrastructure/authclient"
	"arbor-server/chat-api/internal/infrastructure/metrics"
	"arbor-server/chat-api/internal/interfaces/httpserver/responses"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

const (
	principalContextKey = "principal"
	sessionCookieName   = "session"
)

// AuthMiddleware resolves the caller's session token against the auth service
// and aborts with 401 when no valid session is present.
func AuthMiddleware(resolver authclient.Resolver, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := resolvePrincipal(c, resolver)
		if err != nil {
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
				metrics.RecordAuthRequest("unauthorized")
				responses.HandleError(c, err, "unauthorized")
				return
			}
			logger.Error().Err(err).Msg("session resolution failed")
			metrics.RecordAuthRequest("error")
			responses.HandleError(c, err, "auth service unavailable")
			return
		}

		metrics.RecordAuthRequest("ok")
		setPrincipal(c, principal)
		c.Next()
	}
}

// OptionalAuthMiddleware resolves a session when one is offered but lets the
// request through anonymously when no token is present. A token that is
// present but invalid still aborts, so clients cannot silently fall back to
// anonymous mode with a stale session.
func OptionalAuthMiddleware(resolver authclient.Resolver, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c)
		if token == "" {
			c.Next()
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if platformerrors.IsErrorType(err, platformerrors.ErrorTypeUnauthorized) {
				metrics.RecordAuthRequest("unauthorized")
				responses.HandleError(c, err, "unauthorized")
				return
			}
			logger.Error().Err(err).Msg("session resolution failed")
			metrics.RecordAuthRequest("error")
			responses.HandleError(c, err, "auth service unavailable")
			return
		}

		metrics.RecordAuthRequest("ok")
		setPrincipal(c, *principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

func resolvePrincipal(c *gin.Context, resolver authclient.Resolver) (domain.Principal, error) {
	token := sessionToken(c)
	if token == "" {
		return domain.Principal{}, platformerrors.NewError(c.Request.Context(),
			platformerrors.LayerRoute, platformerrors.ErrorTypeUnauthorized,
			"authentication required", errors.New("no session token"),
			"4be8a1d0-9c27-4f56-8a3e-71d2c5f0b986")
	}

	principal, err := resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		return domain.Principal{}, err
	}
	return *principal, nil
}

// sessionToken extracts the session token, preferring a Bearer header over
// the session cookie when both are present.
func sessionToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if token := strings.TrimSpace(parts[1]); token != "" {
				return token
			}
		}
	}
	if cookie, err := c.Request.Cookie(sessionCookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
	c.Set("user_id", principal.ID)
	c.Set("user_email", principal.Email)
	c.Request.Header.Set("X-Principal-Id", principal.ID)
	c.Request.Header.Set("X-Principal-Kind", string(principal.Kind))
	c.Writer.Header().Set("X-Principal-Id", principal.ID)
}
