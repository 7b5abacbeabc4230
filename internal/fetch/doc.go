// Package fetch retrieves upstream documents and probes mirror liveness.
//
// Client issues GET and HEAD requests with the configured User-Agent,
// routing .onion hosts through a Tor SOCKS5 client when one is set.
// Cache holds fetched bodies for the lifetime of one run so that every
// entry reading the same handle observes a single network request.
package fetch
