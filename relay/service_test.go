package relay

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-commit-relay/core"
	"github.com/goliatone/go-commit-relay/tracker"
)

type fakeRepository struct {
	head      int64
	headErr   error
	records   []core.CommitRecord
	logErr    error
	pingErr   error
	lastDelta core.Delta
	headCalls int
}

func (r *fakeRepository) Head(context.Context) (int64, error) {
	r.headCalls++
	if r.headErr != nil {
		return 0, r.headErr
	}
	return r.head, nil
}

func (r *fakeRepository) Log(_ context.Context, delta core.Delta) ([]core.CommitRecord, error) {
	r.lastDelta = delta
	if r.logErr != nil {
		return nil, r.logErr
	}
	out := make([]core.CommitRecord, 0, len(r.records))
	for _, record := range r.records {
		if record.Revision >= delta.From && record.Revision <= delta.To {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeRepository) Ping(ctx context.Context) error {
	if r.pingErr != nil {
		return core.NewConnectError(r.pingErr, core.RelayErrorRepositoryConnect, "fake: repository unreachable")
	}
	return nil
}

type fakeWebhook struct {
	sent    []string
	failOn  map[int]error // 1-based send index -> error
	pingErr error
	profile string
}

func (w *fakeWebhook) Send(_ context.Context, content string) error {
	attempt := len(w.sent) + 1
	if err, ok := w.failOn[attempt]; ok {
		return err
	}
	w.sent = append(w.sent, content)
	return nil
}

func (w *fakeWebhook) Ping(context.Context) error {
	if w.pingErr != nil {
		return core.NewConnectError(w.pingErr, core.RelayErrorWebhookConnect, "fake: webhook unreachable")
	}
	return nil
}

func (w *fakeWebhook) Modify(_ context.Context, name string, _ []byte) error {
	w.profile = name
	return nil
}

func commitFixture(revision int64) core.CommitRecord {
	return core.CommitRecord{
		Revision:  revision,
		Author:    "dev",
		Timestamp: time.Date(2021, time.March, 14, 8, 0, 0, 0, time.UTC),
		Message:   fmt.Sprintf("change %d", revision),
		ChangedPaths: []core.ChangedPath{
			{Kind: core.ChangeModified, Path: fmt.Sprintf("/trunk/file%d.py", revision)},
		},
	}
}

func startedService(t *testing.T, repo *fakeRepository, hook *fakeWebhook, seed int64, options ...Option) *Service {
	t.Helper()
	service, err := New(repo, hook, options...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	service.tracker = tracker.New(seed, service.backoffPolicy)
	return service
}

func TestService_PollOnceDeliversNewCommitsInOrder(t *testing.T) {
	repo := &fakeRepository{
		head:    12,
		records: []core.CommitRecord{commitFixture(11), commitFixture(12)},
	}
	hook := &fakeWebhook{}
	service := startedService(t, repo, hook, 10)

	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if repo.lastDelta.From != 11 || repo.lastDelta.To != 12 {
		t.Fatalf("expected delta [11, 12], got %v", repo.lastDelta)
	}
	if len(hook.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(hook.sent))
	}
	if !strings.Contains(hook.sent[0], "r11 ") || !strings.Contains(hook.sent[1], "r12 ") {
		t.Fatalf("expected oldest-first delivery, got headers %q, %q", hook.sent[0], hook.sent[1])
	}
	if service.LastConfirmed() != 12 {
		t.Fatalf("expected tracker advanced to 12, got %d", service.LastConfirmed())
	}
	if service.Backoff() != 0 {
		t.Fatalf("expected zero backoff after success, got %v", service.Backoff())
	}
}

func TestService_PollOnceEmptyDeltaResetsBackoff(t *testing.T) {
	repo := &fakeRepository{head: 10}
	hook := &fakeWebhook{}
	service := startedService(t, repo, hook, 10)
	service.tracker.OnFailure()

	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(hook.sent) != 0 {
		t.Fatalf("expected no deliveries, got %d", len(hook.sent))
	}
	if service.Backoff() != 0 {
		t.Fatalf("expected backoff reset on empty delta, got %v", service.Backoff())
	}
}

func TestService_PollOnceContactFailureGrowsBackoff(t *testing.T) {
	repo := &fakeRepository{headErr: core.NewContactError(errors.New("E170013"), "fake: head failed")}
	hook := &fakeWebhook{}
	service := startedService(t, repo, hook, 10,
		WithBackoffPolicy(tracker.StepBackoffPolicy{Step: 15 * time.Second, Max: 120 * time.Second}))
	service.tracker = tracker.New(10, tracker.StepBackoffPolicy{Step: 15 * time.Second, Max: 120 * time.Second})

	var previous time.Duration
	for i := 0; i < 3; i++ {
		if err := service.PollOnce(context.Background()); err == nil {
			t.Fatalf("expected contact error")
		}
		if service.Backoff() <= previous {
			t.Fatalf("expected strictly increasing backoff, got %v after %v", service.Backoff(), previous)
		}
		if service.Backoff() > 120*time.Second {
			t.Fatalf("backoff exceeded cap: %v", service.Backoff())
		}
		previous = service.Backoff()
	}
	if service.LastConfirmed() != 10 {
		t.Fatalf("contact failure must not move the tracker, got %d", service.LastConfirmed())
	}

	repo.headErr = nil
	repo.head = 10
	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if service.Backoff() != 0 {
		t.Fatalf("expected backoff reset after success, got %v", service.Backoff())
	}
}

func TestService_PollOnceMidBatchFailureKeepsTrackerAndRetries(t *testing.T) {
	repo := &fakeRepository{
		head: 13,
		records: []core.CommitRecord{
			commitFixture(11), commitFixture(12), commitFixture(13),
		},
	}
	hook := &fakeWebhook{
		failOn: map[int]error{2: core.NewDeliveryError(errors.New("429"), "fake: send failed")},
	}
	service := startedService(t, repo, hook, 10)

	err := service.PollOnce(context.Background())
	if err == nil {
		t.Fatalf("expected delivery error")
	}
	if !core.IsDeliveryError(err) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if len(hook.sent) != 1 {
		t.Fatalf("expected batch aborted after first failure, got %d deliveries", len(hook.sent))
	}
	if service.LastConfirmed() != 10 {
		t.Fatalf("partial batch must not advance tracker, got %d", service.LastConfirmed())
	}

	// Next cycle: head moved on, the failed range is retried from r11.
	repo.head = 14
	repo.records = append(repo.records, commitFixture(14))
	hook.failOn = nil

	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("retry poll: %v", err)
	}
	if repo.lastDelta.From != 11 || repo.lastDelta.To != 14 {
		t.Fatalf("expected retry delta [11, 14], got %v", repo.lastDelta)
	}
	if service.LastConfirmed() != 14 {
		t.Fatalf("expected tracker advanced to 14, got %d", service.LastConfirmed())
	}
	// r11 is delivered twice across the two cycles: at-least-once, never lost.
	total := len(hook.sent)
	if total != 5 {
		t.Fatalf("expected 5 total sends (1 + 4 retried), got %d", total)
	}
}

func TestService_PollOnceRecordsLedgerOutcomes(t *testing.T) {
	repo := &fakeRepository{head: 11, records: []core.CommitRecord{commitFixture(11)}}
	hook := &fakeWebhook{}
	service := startedService(t, repo, hook, 10)

	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	recent := service.Ledger().Recent(1)
	if len(recent) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(recent))
	}
	if recent[0].Status != core.DeliveryStatusDelivered || recent[0].Revision != 11 {
		t.Fatalf("unexpected ledger record %+v", recent[0])
	}
}

func TestService_RunSeedsFromHeadByDefault(t *testing.T) {
	repo := &fakeRepository{head: 42}
	hook := &fakeWebhook{}
	service, err := New(repo, hook,
		WithPollInterval(time.Millisecond),
		WithProfile("buildbot", nil),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := service.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if service.LastConfirmed() != 42 {
		t.Fatalf("expected tracker seeded from head 42, got %d", service.LastConfirmed())
	}
	if len(hook.sent) != 0 {
		t.Fatalf("pre-existing commits must not replay by default, got %d sends", len(hook.sent))
	}
	if hook.profile != "buildbot" {
		t.Fatalf("expected profile applied at startup, got %q", hook.profile)
	}
}

func TestService_RunHonorsExplicitInitialRevision(t *testing.T) {
	repo := &fakeRepository{
		head:    42,
		records: []core.CommitRecord{commitFixture(41), commitFixture(42)},
	}
	hook := &fakeWebhook{}
	service, err := New(repo, hook,
		WithPollInterval(time.Millisecond),
		WithInitialRevision(40),
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := service.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(hook.sent) < 2 {
		t.Fatalf("expected historical replay of r41 and r42, got %d sends", len(hook.sent))
	}
	if service.LastConfirmed() != 42 {
		t.Fatalf("expected tracker at 42 after replay, got %d", service.LastConfirmed())
	}
}

func TestService_RunPropagatesRepositoryConnectFailure(t *testing.T) {
	repo := &fakeRepository{pingErr: errors.New("unreachable")}
	service, err := New(repo, &fakeWebhook{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	runErr := service.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected connect error")
	}
	if !core.IsConnectError(runErr) {
		t.Fatalf("expected connect error, got %v", runErr)
	}
}

func TestService_RunPropagatesWebhookConnectFailure(t *testing.T) {
	repo := &fakeRepository{head: 5}
	hook := &fakeWebhook{pingErr: errors.New("401")}
	service, err := New(repo, hook)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	runErr := service.Run(context.Background())
	if runErr == nil {
		t.Fatalf("expected connect error")
	}
	if !core.IsConnectError(runErr) {
		t.Fatalf("expected connect error, got %v", runErr)
	}
}

func TestService_RunStopsPromptlyOnCancellation(t *testing.T) {
	repo := &fakeRepository{head: 5}
	service, err := New(repo, &fakeWebhook{}, WithPollInterval(time.Hour))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case runErr := <-done:
		if runErr != nil {
			t.Fatalf("expected clean shutdown, got %v", runErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancellation during sleep did not terminate the loop")
	}
}

func TestNew_RequiresClients(t *testing.T) {
	if _, err := New(nil, &fakeWebhook{}); err == nil {
		t.Fatalf("expected error for nil repository")
	}
	if _, err := New(&fakeRepository{}, nil); err == nil {
		t.Fatalf("expected error for nil webhook")
	}
}

func TestWaitWithContext_CancelledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := waitWithContext(ctx, time.Hour)
	if err == nil {
		t.Fatalf("expected context error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("wait did not return promptly on cancellation")
	}
}

type capturingLogger struct {
	infos  []string
	errors []string
}

func (l *capturingLogger) Trace(string, ...any) {}
func (l *capturingLogger) Debug(string, ...any) {}
func (l *capturingLogger) Warn(string, ...any)  {}
func (l *capturingLogger) Fatal(string, ...any) {}

func (l *capturingLogger) Info(msg string, _ ...any)  { l.infos = append(l.infos, msg) }
func (l *capturingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

func (l *capturingLogger) WithContext(context.Context) core.Logger { return l }

func TestService_BootstrapConnectsAndSeedsWithoutDelivering(t *testing.T) {
	repo := &fakeRepository{head: 42}
	hook := &fakeWebhook{}
	service, err := New(repo, hook, WithProfile("buildbot", nil))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := service.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	if service.LastConfirmed() != 42 {
		t.Fatalf("expected tracker seeded at 42, got %d", service.LastConfirmed())
	}
	if hook.profile != "buildbot" {
		t.Fatalf("expected profile applied, got %q", hook.profile)
	}
	if len(hook.sent) != 0 {
		t.Fatalf("bootstrap must not deliver, got %d sends", len(hook.sent))
	}

	// A bootstrapped service serves one-shot cycles.
	repo.head = 43
	repo.records = []core.CommitRecord{commitFixture(43)}
	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll after bootstrap: %v", err)
	}
	if len(hook.sent) != 1 {
		t.Fatalf("expected 1 delivery after bootstrap, got %d", len(hook.sent))
	}
}

func TestService_BootstrapPropagatesConnectFailure(t *testing.T) {
	repo := &fakeRepository{pingErr: errors.New("refused")}
	service, err := New(repo, &fakeWebhook{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = service.Bootstrap(context.Background())
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if !core.IsConnectError(err) {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestService_HonorsConfiguredLogLevel(t *testing.T) {
	capture := &capturingLogger{}
	repo := &fakeRepository{head: 11, records: []core.CommitRecord{commitFixture(11)}}
	hook := &fakeWebhook{}
	service := startedService(t, repo, hook, 10,
		WithLogger(core.NewLevelLogger(capture, core.LevelError)),
	)

	if err := service.PollOnce(context.Background()); err != nil {
		t.Fatalf("poll: %v", err)
	}
	if len(capture.infos) != 0 {
		t.Fatalf("expected info logs filtered at error level, got %v", capture.infos)
	}

	repo.headErr = errors.New("svn: timeout")
	_ = service.PollOnce(context.Background())
	if len(capture.errors) == 0 {
		t.Fatalf("expected error log to pass the level filter")
	}
}
