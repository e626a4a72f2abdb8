// Package relay drives the poll/format/deliver cycle: it asks the
// repository for its head revision, computes the undelivered delta, formats
// each commit, and posts it to the webhook in commit order. All steady-state
// failures are swallowed here and converted into backoff plus a log entry;
// only startup connection failures escape to the caller.
//
// The loop is intentionally a single goroutine. Delivery order is an
// invariant, so concurrent delivery would only buy a reordering buffer.
package relay
