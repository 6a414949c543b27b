// Package relay wires extraction, normalization, formatting and delivery into
// the per-request webhook pipeline.
package relay

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"

	"tradingview-relay/internal/alert"
	"tradingview-relay/internal/config"
	apperrors "tradingview-relay/internal/errors"
	"tradingview-relay/internal/format"
	"tradingview-relay/internal/logging"
	"tradingview-relay/internal/models"
	"tradingview-relay/internal/notify"
	"tradingview-relay/internal/payload"
)

// Service processes webhook bodies. It holds no per-request state and is safe
// for concurrent use.
type Service struct {
	normalizer *alert.Normalizer
	formatter  *format.Formatter
	sender     notify.Sender
	logger     zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for alerts without a timestamp.
func WithClock(clk clock.Clock) Option {
	return func(s *Service) {
		s.normalizer = alert.NewNormalizer(clk, s.logger)
	}
}

// WithSender overrides the notification sender.
func WithSender(sender notify.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// NewService creates a Service from cfg. Without WithSender, notifications go
// to Telegram.
func NewService(cfg config.Config, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		formatter: format.NewFormatter(cfg.Chart.BaseURL),
		logger:    logger,
	}
	s.normalizer = alert.NewNormalizer(nil, logger)
	for _, opt := range opts {
		opt(s)
	}
	if s.sender == nil {
		s.sender = notify.NewTelegramSender(cfg.Telegram, logger)
	}
	return s
}

// Render runs extraction, normalization and formatting without delivering.
func (s *Service) Render(ctx context.Context, body []byte, contentType string) (models.Alert, models.Notification, error) {
	log := s.loggerFor(ctx)

	rec, err := payload.Extract(body, contentType)
	if err != nil {
		excerpt := payload.Excerpt(string(body))
		var pe *apperrors.PayloadError
		if apperrors.As(err, &pe) {
			excerpt = pe.Excerpt
		}
		logging.LogPayloadRejected(log, contentType, excerpt, err)
		return models.Alert{}, models.Notification{}, err
	}

	a := s.normalizer.Normalize(rec)
	logging.LogAlertReceived(log, a.Symbol, string(a.Direction), a.PriceText, a.Interval)

	return a, s.formatter.Format(a), nil
}

// Process handles one webhook body. The only error returned is the
// ErrNotAPayload family; delivery failures are logged by the sender and
// never reach the caller. The sender sees a context logger tagged with the
// alert's symbol.
func (s *Service) Process(ctx context.Context, body []byte, contentType string) (models.Notification, error) {
	a, n, err := s.Render(ctx, body, contentType)
	if err != nil {
		return models.Notification{}, err
	}
	ctx = logging.WithLogger(ctx, logging.WithSymbol(s.loggerFor(ctx), a.Symbol))
	s.sender.Send(ctx, n)
	return n, nil
}

// loggerFor prefers the request-scoped logger carried by ctx.
func (s *Service) loggerFor(ctx context.Context) zerolog.Logger {
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return s.logger
}
