package jobs

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var legacyHashes = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "auth_legacy_password_hashes",
	Help: "Activated users whose stored password hash is still the legacy SHA-256 digest.",
})

type LegacyHashCounter interface {
	CountLegacyHashes(ctx context.Context) (int64, error)
}

// LegacyHashAudit reports how many accounts still wait for a login-time
// hash migration.
type LegacyHashAudit struct {
	repo    LegacyHashCounter
	timeout time.Duration
}

func NewLegacyHashAudit(repo LegacyHashCounter) *LegacyHashAudit {
	return &LegacyHashAudit{repo: repo, timeout: 30 * time.Second}
}

func (a *LegacyHashAudit) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	count, err := a.repo.CountLegacyHashes(ctx)
	if err != nil {
		log.Error().Err(err).Str("component", "LegacyHashAudit").Msg("")
		return err
	}

	legacyHashes.Set(float64(count))
	log.Info().Str("component", "LegacyHashAudit").Int64("legacy_hashes", count).Msg("legacy hash audit finished")
	return nil
}

// Schedule registers the audit as a singleton duration job that also runs
// once as soon as the scheduler starts.
func Schedule(s gocron.Scheduler, audit *LegacyHashAudit, interval time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(
			interval,
		),
		gocron.NewTask(
			func() {
				_ = audit.Run(context.Background())
			},
		),
		gocron.WithName("legacy-hash-audit"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
}
