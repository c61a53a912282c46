package service

import (
	"github.com/alimikegami/campus-platform/auth-service/config"
	"github.com/alimikegami/campus-platform/auth-service/internal/repository"
	"github.com/alimikegami/campus-platform/auth-service/pkg/password"
	"github.com/alimikegami/campus-platform/auth-service/pkg/token"
)

type ServiceImpl struct {
	repo      repository.UserRepository
	codec     *password.Codec
	issuer    *token.Issuer
	roles     *RoleResolver
	notifier  Notifier
	publisher EventPublisher
	config    *config.Config
}

func CreateNewService(repo repository.UserRepository, codec *password.Codec, issuer *token.Issuer, notifier Notifier, publisher EventPublisher, config *config.Config) AuthService {
	return &ServiceImpl{
		repo:      repo,
		codec:     codec,
		issuer:    issuer,
		roles:     NewRoleResolver(repo),
		notifier:  notifier,
		publisher: publisher,
		config:    config,
	}
}
