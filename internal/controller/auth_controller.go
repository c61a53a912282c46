package controller

import (
	"errors"
	"net/http"

	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/alimikegami/campus-platform/auth-service/internal/middleware"
	"github.com/alimikegami/campus-platform/auth-service/internal/service"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/alimikegami/campus-platform/auth-service/pkg/response"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
	"github.com/alimikegami/campus-platform/auth-service/pkg/utils"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const signupMessage = "Compte activé avec succès. Vérifiez votre email pour le mot de passe."

type Controller struct {
	service service.AuthService
}

func CreateController(e *echo.Group, service service.AuthService, issuer *token.Issuer) {
	ac := Controller{
		service: service,
	}
	e.POST("/auth/signup", ac.Signup)
	e.POST("/auth/signin", ac.Signin)
	e.GET("/auth/me", ac.Me, middleware.RequireToken(issuer))
}

func (c *Controller) Signup(e echo.Context) error {
	payload := dto.SignupRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Error().Err(err).Str("component", "Signup").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(e, err)
	}

	err = c.service.Signup(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, signupMessage, nil)
}

// Signin writes the bare token body, not the response envelope.
func (c *Controller) Signin(e echo.Context) error {
	payload := dto.SigninRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Error().Err(err).Str("component", "Signin").Msg("")
		return response.WriteErrorResponse(e, errs.ErrClient, nil)
	}

	if err := payload.Validate(); err != nil {
		return writeValidationError(e, err)
	}

	resp, err := c.service.Signin(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return e.JSON(http.StatusOK, resp)
}

func (c *Controller) Me(e echo.Context) error {
	claims, ok := utils.ExtractTokenClaims(e)
	if !ok {
		return response.WriteErrorResponse(e, errs.ErrMissingToken, nil)
	}

	resp := dto.SessionResponse{
		ID:    claims.ID,
		Email: claims.Subject,
		Roles: claims.Roles,
	}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Unix()
	}

	return response.WriteSuccessResponse(e, "", resp)
}

func writeValidationError(e echo.Context, err error) error {
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return response.WriteErrorResponse(e, errs.ErrClient, fieldErrs)
	}

	log.Error().Err(err).Str("component", "writeValidationError").Msg("")
	return response.WriteErrorResponse(e, errs.ErrInternalServer, nil)
}
