package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stockwatch/internal/domain"
)

type Mailer interface {
	Enqueue(ctx context.Context, msg domain.MailMessage) error
}

type IdentityResolver interface {
	NotificationAddress(ctx context.Context, ownerUID string) (string, error)
}

// AlertScheduler runs one evaluation pass per tick over every enabled
// threshold. Each threshold is processed independently: a failure ends
// that threshold's work for the tick and never aborts the rest of the
// pass. A threshold is disabled only after its notification has been
// enqueued, so an enqueue failure means it fires again next tick; a
// disable failure after enqueue can produce a duplicate notification.
type AlertScheduler struct {
	thresholds  domain.ThresholdRepository
	charts      domain.ChartProvider
	identity    IdentityResolver
	mailer      Mailer
	logger      *zap.Logger
	cron        *gocron.Scheduler
	interval    time.Duration
	location    *time.Location
	concurrency int
	now         func() time.Time
}

func NewAlertScheduler(
	thresholds domain.ThresholdRepository,
	charts domain.ChartProvider,
	identity IdentityResolver,
	mailer Mailer,
	interval time.Duration,
	location *time.Location,
	concurrency int,
	logger *zap.Logger,
) *AlertScheduler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &AlertScheduler{
		thresholds:  thresholds,
		charts:      charts,
		identity:    identity,
		mailer:      mailer,
		logger:      logger,
		cron:        gocron.NewScheduler(location),
		interval:    interval,
		location:    location,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Start schedules the recurring pass. SingletonMode keeps a slow pass
// from overlapping the next one; each pass is also bounded by a deadline
// equal to the tick interval, so abandoned thresholds stay enabled and
// are re-evaluated next tick.
func (s *AlertScheduler) Start(ctx context.Context) error {
	_, err := s.cron.Every(s.interval).SingletonMode().Do(func() {
		passCtx, cancel := context.WithTimeout(ctx, s.interval)
		defer cancel()

		if err := s.RunPass(passCtx); err != nil {
			s.logger.Error("threshold pass aborted", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	s.cron.StartAsync()
	s.logger.Info("alert scheduler started", zap.Duration("interval", s.interval), zap.String("timezone", s.location.String()))
	return nil
}

func (s *AlertScheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("alert scheduler stopped")
}

// RunPass evaluates a snapshot of all enabled thresholds. Only a failed
// snapshot aborts the pass; per-threshold failures are logged and
// swallowed here so the rest of the batch completes.
func (s *AlertScheduler) RunPass(ctx context.Context) error {
	grouped, err := s.thresholds.ListAllEnabledGroupedByOwner(ctx)
	if err != nil {
		return fmt.Errorf("list enabled thresholds: %w", err)
	}

	// One lookup date for the whole pass.
	date := s.now().In(s.location).Format("2006-01-02")

	var group errgroup.Group
	group.SetLimit(s.concurrency)

	for ownerUID, thresholds := range grouped {
		for _, threshold := range thresholds {
			ownerUID, threshold := ownerUID, threshold
			group.Go(func() error {
				if err := s.processThreshold(ctx, ownerUID, threshold, date); err != nil {
					s.logger.Error("threshold processing failed",
						zap.Uint("threshold_id", threshold.ID),
						zap.String("ticker", threshold.Ticker),
						zap.String("owner_uid", ownerUID),
						zap.Error(err),
					)
				}
				return nil
			})
		}
	}

	_ = group.Wait()
	return nil
}

func (s *AlertScheduler) processThreshold(ctx context.Context, ownerUID string, threshold domain.Threshold, date string) error {
	target, err := decimal.NewFromString(threshold.Target)
	if err != nil {
		return fmt.Errorf("malformed target %q: %w", threshold.Target, err)
	}
	if !threshold.Condition.Valid() {
		return fmt.Errorf("malformed condition %q", threshold.Condition)
	}

	series, err := s.charts.GetChart(ctx, threshold.Ticker, date, domain.Interval1Min)
	if err != nil {
		return fmt.Errorf("fetch chart: %w", err)
	}

	price, ok := series.LatestClose()
	if !ok {
		s.logger.Debug("no price data for threshold",
			zap.Uint("threshold_id", threshold.ID),
			zap.String("ticker", threshold.Ticker),
			zap.String("date", date),
		)
		return nil
	}

	if !Breached(threshold.Condition, price, target) {
		return nil
	}

	email, err := s.identity.NotificationAddress(ctx, ownerUID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}

	if err := s.mailer.Enqueue(ctx, buildAlertMail(email, threshold.Ticker, threshold.Condition, price, target)); err != nil {
		// Threshold stays enabled and fires again next tick.
		return fmt.Errorf("enqueue mail: %w", err)
	}

	if err := s.thresholds.Disable(ctx, ownerUID, threshold.ID); err != nil {
		// Mail is already enqueued; the next tick may send a duplicate.
		s.logger.Warn("disable failed after enqueue, duplicate notification possible",
			zap.Uint("threshold_id", threshold.ID),
			zap.String("ticker", threshold.Ticker),
		)
		return fmt.Errorf("disable threshold: %w", err)
	}

	s.logger.Info("alert fired",
		zap.Uint("threshold_id", threshold.ID),
		zap.String("ticker", threshold.Ticker),
		zap.String("condition", string(threshold.Condition)),
		zap.String("price", price.String()),
		zap.String("target", target.String()),
		zap.String("to", email),
	)
	return nil
}

func buildAlertMail(to, ticker string, condition domain.Condition, price, target decimal.Decimal) domain.MailMessage {
	return domain.MailMessage{
		To:      to,
		Subject: fmt.Sprintf("📈 Alert: %s is %s %s", ticker, condition, target),
		Text:    fmt.Sprintf("%s is now %s, which is %s your threshold of %s.", ticker, price, condition, target),
		HTML: fmt.Sprintf(
			"<p><strong>%s</strong> is now <strong>%s</strong>, which is <strong>%s</strong> your threshold of <strong>%s</strong>.</p>",
			ticker, price, condition, target,
		),
	}
}
