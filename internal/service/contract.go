package service

import (
	"context"

	"github.com/alimikegami/campus-platform/auth-service/internal/dto"
)

type AuthService interface {
	// Signup activates a pre-provisioned account and mails it a generated password.
	Signup(ctx context.Context, req dto.SignupRequest) (err error)
	// Signin authenticates by CIN or email and issues a session token.
	Signin(ctx context.Context, req dto.SigninRequest) (resp dto.SigninResponse, err error)
}

// Notifier never reports failure; delivery problems are its own to log.
type Notifier interface {
	Send(to, subject, body string, timeoutSeconds, maxRetries int)
}

type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, data interface{}) error
}
