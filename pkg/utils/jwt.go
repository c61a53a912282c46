package utils

import (
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
	"github.com/labstack/echo/v4"
)

const claimsKey = "user"

func SetTokenClaims(c echo.Context, claims *token.Claims) {
	c.Set(claimsKey, claims)
}

// ExtractTokenClaims returns the claims stored by the token middleware.
func ExtractTokenClaims(c echo.Context) (*token.Claims, bool) {
	claims, ok := c.Get(claimsKey).(*token.Claims)
	return claims, ok && claims != nil
}
