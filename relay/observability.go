package relay

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-commit-relay/core"
)

func (s *Service) observeCycle(ctx context.Context, startedAt time.Time, err error, fields map[string]any) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = "relay.poll"
	contextFields["status"] = status
	contextFields["duration_ms"] = s.now().Sub(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{"status": status}
	s.recordCounter(ctx, "relay.poll.total", 1, tags)
	s.recordHistogram(ctx, "relay.poll.duration_ms", float64(s.now().Sub(startedAt).Milliseconds()), tags)

	if err != nil {
		s.logError(ctx, "poll cycle failed", contextFields)
		return
	}
	s.logInfo(ctx, "poll cycle completed", contextFields)
}

func (s *Service) observeDelivery(ctx context.Context, cycleID string, entry core.DeliveryRecord, record core.CommitRecord, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	fields := map[string]any{
		"event_type":  "relay.deliver",
		"status":      status,
		"cycle_id":    cycleID,
		"delivery_id": entry.ID,
		"revision":    record.Revision,
		"author":      record.Author,
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	s.recordCounter(ctx, "relay.deliver.total", 1, map[string]string{"status": status})

	if err != nil {
		s.logError(ctx, "commit delivery failed", fields)
		return
	}
	s.logInfo(ctx, "commit delivered", fields)
}

func (s *Service) logInfo(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "info", message, fields)
}

func (s *Service) logError(ctx context.Context, message string, fields map[string]any) {
	s.logWithLevel(ctx, "error", message, fields)
}

func (s *Service) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if s == nil || s.logger == nil {
		return
	}
	logger := s.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (s *Service) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (s *Service) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if s == nil || s.metrics == nil {
		return
	}
	s.metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
