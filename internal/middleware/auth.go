package middleware

import (
	"strings"

	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/alimikegami/campus-platform/auth-service/pkg/response"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
	"github.com/alimikegami/campus-platform/auth-service/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// RequireToken rejects requests without a valid bearer token and stores the
// validated claims on the echo context.
func RequireToken(issuer *token.Issuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return response.WriteErrorResponse(c, errs.ErrMissingToken, nil)
			}

			result := issuer.Validate(raw)
			if err := result.Err(); err != nil {
				log.Ctx(c.Request().Context()).Debug().Str("component", "RequireToken").Stringer("status", result.Status).Msg("token rejected")
				return response.WriteErrorResponse(c, err, nil)
			}

			utils.SetTokenClaims(c, result.Claims)
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, value, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
