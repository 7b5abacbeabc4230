package model

import "fmt"

// Network identifies the class of endpoint tracked for a service.
type Network string

const (
	// NetworkClearnet is the regular internet.
	NetworkClearnet Network = "clearnet"

	// NetworkOnion is the Tor hidden service network.
	NetworkOnion Network = "onion"

	// NetworkI2P is the Invisible Internet Project network.
	NetworkI2P Network = "i2p"

	// NetworkLoki is the Lokinet network.
	NetworkLoki Network = "loki"
)

// Networks lists every supported network in report order.
var Networks = []Network{NetworkClearnet, NetworkOnion, NetworkI2P, NetworkLoki}

// ParseNetwork converts a catalog tag into a Network.
func ParseNetwork(s string) (Network, error) {
	for _, n := range Networks {
		if string(n) == s {
			return n, nil
		}
	}
	return "", fmt.Errorf("unknown network %q", s)
}

// Stem returns the snapshot file name without extension.
// Clearnet snapshots are stored as "instances" for compatibility with
// existing consumers of the output tree.
func (n Network) Stem() string {
	if n == NetworkClearnet {
		return "instances"
	}
	return string(n)
}

// Title returns the human readable network name used in reports.
func (n Network) Title() string {
	switch n {
	case NetworkClearnet:
		return "Clearnet"
	case NetworkOnion:
		return "Onion"
	case NetworkI2P:
		return "I2P"
	case NetworkLoki:
		return "Loki"
	default:
		return string(n)
	}
}

// Scheme returns the URL scheme used when linking to a domain of this network.
// Only clearnet mirrors are expected to serve TLS.
func (n Network) Scheme() string {
	if n == NetworkClearnet {
		return "https"
	}
	return "http"
}
