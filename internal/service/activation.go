package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alimikegami/campus-platform/auth-service/internal/domain"
	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/pkg/errs"
	"github.com/alimikegami/campus-platform/auth-service/pkg/password"
	"github.com/rs/zerolog/log"
)

const activationSubject = "Activation de votre compte"

const activationBody = `Bonjour %s,

Votre compte a été activé avec succès.

Voici vos informations de connexion :
CIN : %s
Email : %s
Mot de passe : %s

Veuillez conserver ce mot de passe en lieu sûr.
Cordialement,
L'équipe d'administration.
`

func (s *ServiceImpl) Signup(ctx context.Context, req dto.SignupRequest) (err error) {
	user, err := s.repo.GetUserByCinAndEmail(ctx, req.CIN, req.Email)
	if err != nil {
		signupTotal.WithLabelValues("error").Inc()
		return err
	}

	if !user.Exists() {
		signupTotal.WithLabelValues("not_found").Inc()
		return errs.ErrNotFound
	}

	if user.IsActivated() {
		signupTotal.WithLabelValues("already_activated").Inc()
		return errs.ErrAlreadyActivated
	}

	plain, err := s.codec.Generate(password.DefaultLength)
	if err != nil {
		log.Error().Err(err).Str("component", "Signup").Msg("password generation failed")
		signupTotal.WithLabelValues("error").Inc()
		return errs.ErrInternalServer
	}

	hash, err := s.codec.Hash(plain)
	if err != nil {
		log.Error().Err(err).Str("component", "Signup").Msg("password hashing failed")
		signupTotal.WithLabelValues("error").Inc()
		return errs.ErrInternalServer
	}

	err = s.repo.HandleTrx(ctx, func(ctx context.Context, repo repository.UserRepository) error {
		if err := repo.ActivateUser(ctx, user.ID, hash); err != nil {
			return err
		}
		return ensureRoleRecord(ctx, repo, user)
	})
	if err != nil {
		if errors.Is(err, errs.ErrAlreadyActivated) {
			signupTotal.WithLabelValues("already_activated").Inc()
			return errs.ErrAlreadyActivated
		}

		log.Error().Err(err).Str("component", "Signup").Int64("user_id", user.ID).Msg("activation rolled back")
		signupTotal.WithLabelValues("error").Inc()
		if !errors.Is(err, errs.ErrPersistence) {
			err = fmt.Errorf("%w: %v", errs.ErrPersistence, err)
		}
		return err
	}

	signupTotal.WithLabelValues("success").Inc()
	log.Info().Str("component", "Signup").Int64("user_id", user.ID).Msg("account activated")

	s.notifier.Send(user.Email, activationSubject,
		fmt.Sprintf(activationBody, user.LastName, user.CIN, user.Email, plain),
		s.config.NotifierConfig.TimeoutSeconds, s.config.NotifierConfig.MaxRetries)

	s.publish(ctx, dto.EventUserActivated, user.ID, dto.UserActivatedEvent{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
	})

	return nil
}

// ensureRoleRecord creates the profile row for the user's role unless one
// already exists.
func ensureRoleRecord(ctx context.Context, repo repository.UserRepository, user domain.User) error {
	if !user.Role.Known() {
		log.Warn().Str("component", "Signup").Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("unrecognized role; no profile created")
		return nil
	}

	exists, err := repo.RoleRecordExists(ctx, user.ID, user.Role)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	return repo.CreateRoleRecord(ctx, domain.NewRoleRecord(user.ID, user.Role))
}

func (s *ServiceImpl) publish(ctx context.Context, eventType string, userID int64, data interface{}) {
	err := s.publisher.Publish(context.WithoutCancel(ctx), eventType, strconv.FormatInt(userID, 10), data)
	if err != nil {
		log.Error().Err(err).Str("component", "publish").Str("event_type", eventType).Msg("")
	}
}
