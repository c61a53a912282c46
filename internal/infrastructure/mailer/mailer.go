package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/textproto"

	"github.com/alimikegami/campus-platform/auth-service/config"
	circuitbreaker "github.com/alimikegami/campus-platform/auth-service/internal/infrastructure/circuit-breaker"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"
	"gopkg.in/gomail.v2"
)

// ErrAuthentication means the SMTP server rejected our credentials. Retrying
// will not help.
var ErrAuthentication = errors.New("smtp authentication failed")

type Message struct {
	To      string
	Subject string
	Body    string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type SMTPSender struct {
	dialer  dialer
	from    string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// CreateSMTPSender builds a gomail-backed sender. gomail upgrades plain
// connections with STARTTLS whenever the server offers it; with StartTLS
// disabled on port 465 the dialer uses implicit TLS instead.
func CreateSMTPSender(conf config.SMTPConfig) *SMTPSender {
	d := gomail.NewDialer(conf.Host, conf.Port, conf.Username, conf.Password)
	d.TLSConfig = &tls.Config{ServerName: conf.Host, MinVersion: tls.VersionTLS12}
	d.SSL = !conf.StartTLS && conf.Port == 465

	from := conf.From
	if from == "" {
		from = conf.Username
	}

	return &SMTPSender{
		dialer:  d,
		from:    from,
		breaker: circuitbreaker.CreateCircuitBreaker[struct{}]("smtp"),
	}
}

// Send delivers msg or returns when ctx is done. gomail has no context
// support and its dial timeout does not cover the SMTP conversation, so an
// abandoned send may still complete later. Callers that retry must wait for
// it rather than sending again.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		_, err := s.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, s.dialer.DialAndSend(m)
		})
		done <- err
	}()

	select {
	case err := <-done:
		return classify(err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func classify(err error) error {
	if err == nil {
		return nil
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		switch tpErr.Code {
		case 530, 534, 535:
			return errors.Join(ErrAuthentication, err)
		}
	}
	return err
}

// IsRetryable reports whether another attempt could succeed. Authentication
// failures, an open breaker and permanent 5xx replies are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAuthentication) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code >= 400 && tpErr.Code < 500
	}

	return true
}

// NoopSender stands in when no mail credentials are configured.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, msg Message) error {
	log.Warn().Str("component", "NoopSender").Str("to", msg.To).Msg("mail credentials not configured; skipping send")
	return nil
}
