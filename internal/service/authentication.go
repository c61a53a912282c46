package service

import (
	"context"
	"fmt"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/alimikegami/campus-platform/auth-service/pkg/password"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
	"github.com/rs/zerolog/log"
)

func (s *ServiceImpl) Signin(ctx context.Context, req dto.SigninRequest) (resp dto.SigninResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("component", "Signin").Interface("panic", r).Msg("recovered")
			signinTotal.WithLabelValues("error").Inc()
			resp, err = dto.SigninResponse{}, errs.ErrInternalServer
		}
	}()

	user, err := s.repo.GetUserByCinOrEmail(ctx, req.CinOrEmail)
	if err != nil {
		signinTotal.WithLabelValues("error").Inc()
		return resp, errs.ErrInternalServer
	}

	if !user.Exists() || !user.IsActivated() {
		s.codec.VerifyDummy(req.Password)
		signinTotal.WithLabelValues("invalid_credentials").Inc()
		return resp, errs.ErrInvalidCredentials
	}

	outcome := s.codec.Verify(req.Password, user.Hash())
	if !outcome.Matched() {
		signinTotal.WithLabelValues("invalid_credentials").Inc()
		return resp, errs.ErrInvalidCredentials
	}

	if outcome == password.LegacyMatch {
		s.migrateLegacyHash(ctx, user, req.Password)
	}

	roles, err := s.roles.Resolve(ctx, user)
	if err != nil {
		log.Error().Err(err).Str("component", "Signin").Int64("user_id", user.ID).Msg("role resolution failed")
		signinTotal.WithLabelValues("error").Inc()
		return resp, errs.ErrInternalServer
	}

	accessToken, err := s.issuer.Issue(token.Identity{
		Subject: user.Email,
		UserID:  user.ID,
		Roles:   roles,
	})
	if err != nil {
		log.Error().Err(err).Str("component", "Signin").Int64("user_id", user.ID).Msg("token issuance failed")
		signinTotal.WithLabelValues("error").Inc()
		return resp, errs.ErrInternalServer
	}

	signinTotal.WithLabelValues("success").Inc()

	return dto.SigninResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		Roles:       roles,
		User: dto.PublicProfile{
			ID:    user.ID,
			Email: user.Email,
			Phone: user.Phone,
			Image: user.Image,
		},
	}, nil
}

// migrateLegacyHash rewrites a verified legacy hash as bcrypt. Failure is
// logged and otherwise ignored: the legacy hash is still valid.
func (s *ServiceImpl) migrateLegacyHash(ctx context.Context, user domain.User, plaintext string) {
	hash, err := s.codec.Hash(plaintext)
	if err == nil {
		err = s.repo.HandleTrx(ctx, func(ctx context.Context, repo repository.UserRepository) error {
			return repo.UpdatePasswordHash(ctx, user.ID, hash)
		})
	}
	if err != nil {
		log.Error().Err(fmt.Errorf("rehash legacy password: %w", err)).Str("component", "Signin").Int64("user_id", user.ID).Msg("continuing with legacy hash")
		passwordMigrationsTotal.WithLabelValues("error").Inc()
		return
	}

	passwordMigrationsTotal.WithLabelValues("success").Inc()
	log.Info().Str("component", "Signin").Int64("user_id", user.ID).Msg("legacy password hash migrated")

	s.publish(ctx, dto.EventPasswordMigrated, user.ID, dto.PasswordMigratedEvent{ID: user.ID})
}
