// Package core contains the canonical relay domain contracts, entities,
// configuration, and error envelopes. Adapter packages (svn, discord,
// transport) and the relay loop depend on this package; core must not
// depend on any adapter.
package core
