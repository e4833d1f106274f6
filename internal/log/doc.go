// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard slog
// package.
//
// civimon handles exactly one secret: the classification service API key.
// It must never end up in a run log, because run logs are routinely attached
// to coverage reports and shared. The SecureHandler masks attribute values
// that look like credentials (Authorization headers, bearer tokens, API
// keys) regardless of log level, so verbose debugging stays safe to share.
//
// Usage:
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("classifying document", "url", u, "api_key", key) // key is masked
package log
