// Package log builds the slog loggers used by mirrorsync.
//
// Every logger is wrapped in a SecureHandler, which masks values that look
// like credentials before they are written:
//   - attributes keyed like secrets (authorization, cookie, token, ...)
//   - values shaped like bearer tokens, JWTs or private keys
//   - userinfo and token query parameters of URLs, also inside error text
//
// Catalog entries may send custom request headers and upstream URLs may
// carry access tokens, and sync logs are often published as CI output.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
package log
