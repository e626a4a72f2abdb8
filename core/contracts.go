package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// RepositoryClient is the minimal read surface the relay needs from a
// version-control repository. Log must return records ordered oldest-first
// with changed paths populated.
type RepositoryClient interface {
	Head(ctx context.Context) (int64, error)
	Log(ctx context.Context, delta Delta) ([]CommitRecord, error)
}

// RepositoryPinger is implemented by repository clients that can verify
// connectivity at startup.
type RepositoryPinger interface {
	Ping(ctx context.Context) error
}

// WebhookClient delivers one formatted message to the notification channel.
// The client owns connection-level retries and timeouts; the relay treats
// any returned error as a single opaque delivery failure.
type WebhookClient interface {
	Send(ctx context.Context, content string) error
}

// WebhookProfileClient is implemented by webhook clients that can update the
// posting identity (display name, avatar) ahead of the first delivery.
type WebhookProfileClient interface {
	Modify(ctx context.Context, name string, avatar []byte) error
}

// WebhookPinger is implemented by webhook clients that can verify the
// endpoint at startup.
type WebhookPinger interface {
	Ping(ctx context.Context) error
}

// CommitFormatter renders a commit record into the exact text block sent to
// the webhook. Implementations must be pure: identical input yields
// byte-identical output.
type CommitFormatter interface {
	Format(record CommitRecord) string
}

// TransportAdapter executes one webhook HTTP exchange. Webhook clients
// describe the request; the adapter owns connection handling, timeouts, and
// response size limits.
type TransportAdapter interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

type TransportRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}
