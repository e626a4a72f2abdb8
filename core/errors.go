package core

import (
	"net/http"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const (
	RelayErrorBadInput          = "RELAY_BAD_INPUT"
	RelayErrorRepositoryConnect = "RELAY_REPOSITORY_CONNECT"
	RelayErrorWebhookConnect    = "RELAY_WEBHOOK_CONNECT"
	RelayErrorRepositoryContact = "RELAY_REPOSITORY_CONTACT"
	RelayErrorDeliveryFailed    = "RELAY_DELIVERY_FAILED"
	RelayErrorInternal          = "RELAY_INTERNAL_ERROR"
)

// NewConnectError marks a startup-time endpoint failure. Connect errors are
// fatal: the process exits instead of retrying.
func NewConnectError(source error, textCode string, message string) error {
	return goerrors.Wrap(source, goerrors.CategoryOperation, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(textCode)
}

// NewContactError marks a transient failure talking to the repository during
// steady state. Contact errors are swallowed by the relay loop and converted
// into backoff.
func NewContactError(source error, message string) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(RelayErrorRepositoryContact)
}

// NewDeliveryError marks a webhook send failure mid-batch. The current batch
// aborts without advancing the tracker so the same range retries next cycle.
func NewDeliveryError(source error, message string) error {
	return goerrors.Wrap(source, goerrors.CategoryExternal, message).
		WithCode(http.StatusBadGateway).
		WithTextCode(RelayErrorDeliveryFailed)
}

// NewRateLimitedError marks a webhook 429. It still classifies as a
// delivery failure, so the relay aborts the batch and retries next cycle,
// but it carries the server-requested delay for operators reading the logs.
func NewRateLimitedError(source error, message string, retryAfter time.Duration) error {
	err := goerrors.Wrap(source, goerrors.CategoryRateLimit, message).
		WithCode(http.StatusTooManyRequests).
		WithTextCode(RelayErrorDeliveryFailed)
	if retryAfter > 0 {
		err = err.WithMetadata(map[string]any{"retry_after_seconds": int64(retryAfter.Seconds())})
	}
	return err
}

func IsContactError(err error) bool {
	return hasTextCode(err, RelayErrorRepositoryContact)
}

func IsDeliveryError(err error) bool {
	return hasTextCode(err, RelayErrorDeliveryFailed)
}

func IsConnectError(err error) bool {
	return hasTextCode(err, RelayErrorRepositoryConnect) || hasTextCode(err, RelayErrorWebhookConnect)
}

// ErrorTextCode extracts the machine-readable code from err, or "" when the
// error carries no envelope. Callers use it to branch on failure classes
// without unwrapping goerrors themselves.
func ErrorTextCode(err error) string {
	if err == nil {
		return ""
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	return richErr.TextCode
}

func hasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

func relayErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureRelayErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "webhook"), strings.Contains(msg, "deliver"):
		return newRelayError(err.Error(), goerrors.CategoryExternal, RelayErrorDeliveryFailed)
	case strings.Contains(msg, "repository"), strings.Contains(msg, "svn"):
		return newRelayError(err.Error(), goerrors.CategoryExternal, RelayErrorRepositoryContact)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newRelayError(err.Error(), goerrors.CategoryBadInput, RelayErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureRelayErrorEnvelope(mapped)
}

func newRelayError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureRelayErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureRelayErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = relayHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultRelayTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultRelayTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return RelayErrorBadInput
	case goerrors.CategoryExternal:
		return RelayErrorRepositoryContact
	default:
		return RelayErrorInternal
	}
}

func relayHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// MapError converts any error into a relay error envelope. The relay loop
// uses it so every logged failure carries a category and text code.
func MapError(err error) *goerrors.Error {
	return relayErrorMapper(err)
}
