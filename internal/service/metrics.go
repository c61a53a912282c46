package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	signupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signup_total",
		Help: "Account activation attempts by result.",
	}, []string{"result"})

	signinTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_signin_total",
		Help: "Signin attempts by result.",
	}, []string{"result"})

	passwordMigrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_password_migrations_total",
		Help: "Legacy password hash migrations by result.",
	}, []string{"result"})
)
