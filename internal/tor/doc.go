// Package tor routes requests for .onion mirrors through a Tor SOCKS5
// proxy.
//
// A Client wraps a SOCKS5 dialer and hands out *http.Client values that
// the fetch layer uses for .onion hosts only. EmbeddedTor starts a private
// Tor daemon with tornago for hosts that have no system Tor running.
package tor
