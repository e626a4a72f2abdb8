package relay

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-commit-relay/core"
	"github.com/goliatone/go-commit-relay/message"
	"github.com/goliatone/go-commit-relay/tracker"
)

type Option func(*Service)

type Service struct {
	repository      core.RepositoryClient
	webhook         core.WebhookClient
	formatter       core.CommitFormatter
	ledger          *Ledger
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metrics         core.MetricsRecorder
	tracker         *tracker.Tracker
	pollInterval    time.Duration
	backoffPolicy   tracker.BackoffPolicy
	initialRevision int64
	botName         string
	avatar          []byte
	now             func() time.Time
}

func WithLogger(logger core.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(s *Service) {
		s.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = recorder
	}
}

func WithFormatter(formatter core.CommitFormatter) Option {
	return func(s *Service) {
		s.formatter = formatter
	}
}

func WithLedger(ledger *Ledger) Option {
	return func(s *Service) {
		s.ledger = ledger
	}
}

func WithPollInterval(interval time.Duration) Option {
	return func(s *Service) {
		s.pollInterval = interval
	}
}

func WithBackoffPolicy(policy tracker.BackoffPolicy) Option {
	return func(s *Service) {
		s.backoffPolicy = policy
	}
}

// WithInitialRevision forces the tracker seed, replaying every revision
// after it on the first poll. Zero means "seed from HEAD at startup".
func WithInitialRevision(revision int64) Option {
	return func(s *Service) {
		s.initialRevision = revision
	}
}

// WithProfile sets the webhook posting identity applied at startup.
func WithProfile(botName string, avatar []byte) Option {
	return func(s *Service) {
		s.botName = botName
		s.avatar = avatar
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(repository core.RepositoryClient, webhook core.WebhookClient, options ...Option) (*Service, error) {
	if repository == nil {
		return nil, fmt.Errorf("relay: repository client is required")
	}
	if webhook == nil {
		return nil, fmt.Errorf("relay: webhook client is required")
	}

	service := &Service{
		repository:   repository,
		webhook:      webhook,
		pollInterval: time.Duration(core.DefaultPollIntervalSeconds) * time.Second,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}

	if service.formatter == nil {
		service.formatter = message.NewFormatter()
	}
	if service.ledger == nil {
		service.ledger = NewLedger(0)
	}
	if service.backoffPolicy == nil {
		service.backoffPolicy = tracker.StepBackoffPolicy{}
	}
	if service.pollInterval <= 0 {
		service.pollInterval = time.Duration(core.DefaultPollIntervalSeconds) * time.Second
	}
	if service.initialRevision < 0 {
		return nil, fmt.Errorf("relay: initial revision must not be negative")
	}
	if service.metrics == nil {
		service.metrics = core.NopMetricsRecorder{}
	}
	service.loggerProvider, service.logger = glog.Resolve("relay", service.loggerProvider, service.logger)

	return service, nil
}

// NewFromConfig wires poll interval, backoff bounds, initial revision, and
// bot identity from a resolved Config. The avatar payload stays an option
// because loading it from disk is the caller's concern.
func NewFromConfig(
	repository core.RepositoryClient,
	webhook core.WebhookClient,
	cfg core.Config,
	options ...Option,
) (*Service, error) {
	base := []Option{
		WithPollInterval(cfg.PollInterval()),
		WithBackoffPolicy(tracker.StepBackoffPolicy{Step: cfg.BackoffStep(), Max: cfg.BackoffMax()}),
		WithInitialRevision(cfg.InitialRevision),
		WithProfile(cfg.Webhook.BotName, nil),
	}
	return New(repository, webhook, append(base, options...)...)
}

// Bootstrap verifies both endpoints, applies the webhook profile, and seeds
// the tracker. Run calls it before looping; one-shot callers use it ahead of
// a single PollOnce.
func (s *Service) Bootstrap(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	return s.seedTracker(ctx)
}

// Run bootstraps, then loops poll cycles until ctx is cancelled.
// Steady-state failures never escape; the only non-nil returns are startup
// connection errors.
func (s *Service) Run(ctx context.Context) error {
	if err := s.Bootstrap(ctx); err != nil {
		return err
	}

	s.logInfo(ctx, "relay started", map[string]any{
		"initial_revision":      s.tracker.LastConfirmed(),
		"poll_interval_seconds": int(s.pollInterval / time.Second),
	})

	for {
		if err := s.PollOnce(ctx); err != nil && ctx.Err() != nil {
			break
		}
		if err := waitWithContext(ctx, s.pollInterval+s.tracker.Backoff()); err != nil {
			break
		}
	}

	s.logInfo(ctx, "relay shutting down", map[string]any{
		"last_confirmed": s.tracker.LastConfirmed(),
	})
	return nil
}

func (s *Service) connect(ctx context.Context) error {
	if pinger, ok := s.repository.(core.RepositoryPinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
		s.logInfo(ctx, "repository connection verified", nil)
	}
	if pinger, ok := s.webhook.(core.WebhookPinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
		s.logInfo(ctx, "webhook connection verified", nil)
	}
	if profile, ok := s.webhook.(core.WebhookProfileClient); ok && (s.botName != "" || len(s.avatar) > 0) {
		if err := profile.Modify(ctx, s.botName, s.avatar); err != nil {
			// Identity is cosmetic; a failed rename must not stop delivery.
			s.logError(ctx, "webhook profile update failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	return nil
}

func (s *Service) seedTracker(ctx context.Context) error {
	seed := s.initialRevision
	if seed == 0 {
		head, err := s.repository.Head(ctx)
		if err != nil {
			return core.NewConnectError(err, core.RelayErrorRepositoryConnect, "relay: query initial head revision")
		}
		seed = head
	}
	s.tracker = tracker.New(seed, s.backoffPolicy)
	return nil
}

// PollOnce runs one full poll/deliver cycle. It mutates only the tracker and
// ledger, reports the outcome through logs and metrics, and returns the
// cycle's error for callers that want it (the run loop discards it).
func (s *Service) PollOnce(ctx context.Context) error {
	if s.tracker == nil {
		return fmt.Errorf("relay: service is not started")
	}
	startedAt := s.now()
	cycleID := uuid.NewString()

	head, err := s.repository.Head(ctx)
	if err != nil {
		s.tracker.OnFailure()
		s.observeCycle(ctx, startedAt, err, map[string]any{
			"cycle_id":        cycleID,
			"backoff_seconds": int(s.tracker.Backoff() / time.Second),
		})
		return core.MapError(err)
	}

	delta, ok := s.tracker.ComputeDelta(head)
	if !ok {
		s.tracker.OnSuccess()
		s.observeCycle(ctx, startedAt, nil, map[string]any{
			"cycle_id":    cycleID,
			"head":        head,
			"new_commits": 0,
		})
		return nil
	}

	records, err := s.repository.Log(ctx, delta)
	if err != nil {
		s.tracker.OnFailure()
		s.observeCycle(ctx, startedAt, err, map[string]any{
			"cycle_id":        cycleID,
			"head":            head,
			"delta":           delta.String(),
			"backoff_seconds": int(s.tracker.Backoff() / time.Second),
		})
		return core.MapError(err)
	}

	for _, record := range records {
		if err := s.deliver(ctx, cycleID, record); err != nil {
			// Abort the batch without advancing: the undelivered tail is
			// retried with the same range on the next cycle.
			s.tracker.OnFailure()
			s.observeCycle(ctx, startedAt, err, map[string]any{
				"cycle_id":        cycleID,
				"head":            head,
				"delta":           delta.String(),
				"failed_revision": record.Revision,
				"backoff_seconds": int(s.tracker.Backoff() / time.Second),
			})
			return core.MapError(err)
		}
	}

	s.tracker.ConfirmAdvance(delta.To)
	s.tracker.OnSuccess()
	s.observeCycle(ctx, startedAt, nil, map[string]any{
		"cycle_id":    cycleID,
		"head":        head,
		"delta":       delta.String(),
		"new_commits": len(records),
	})
	return nil
}

func (s *Service) deliver(ctx context.Context, cycleID string, record core.CommitRecord) error {
	content := s.formatter.Format(record)
	entry := s.ledger.Begin(record.Revision)

	if err := s.webhook.Send(ctx, content); err != nil {
		s.ledger.Fail(entry.ID, err)
		s.observeDelivery(ctx, cycleID, entry, record, err)
		return err
	}

	s.ledger.Complete(entry.ID)
	s.observeDelivery(ctx, cycleID, entry, record, nil)
	return nil
}

// LastConfirmed reports the tracker position, or zero before Run seeds it.
func (s *Service) LastConfirmed() int64 {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.LastConfirmed()
}

func (s *Service) Backoff() time.Duration {
	if s.tracker == nil {
		return 0
	}
	return s.tracker.Backoff()
}

func (s *Service) Ledger() *Ledger {
	return s.ledger
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
