package domain

import (
	"encoding/base32"
	"errors"
	"fmt"
	"net"
	"strings"

	"golang.org/x/crypto/sha3"
	"golang.org/x/net/idna"
)

const (
	onionSuffix    = ".onion"
	onionV3Length  = 56
	onionV2Length  = 16
	onionV3Version = 0x03
)

var (
	// ErrMalformed is returned for hosts that are not valid domain names.
	ErrMalformed = errors.New("malformed domain")

	// ErrOnionChecksum is returned for v3 onion addresses whose checksum does not match.
	ErrOnionChecksum = errors.New("invalid onion v3 checksum")

	// ErrOnionV2 is returned for deprecated v2 onion addresses.
	ErrOnionV2 = errors.New("deprecated onion v2 address")
)

var lookupProfile = idna.Lookup

// Validate checks that a canonical domain is a well-formed host name.
// A trailing path (when paths are allowed) and a port are ignored.
func Validate(d string) error {
	host, _, _ := strings.Cut(d, "/")
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrMalformed)
	}

	if label, ok := strings.CutSuffix(host, onionSuffix); ok {
		if i := strings.LastIndexByte(label, '.'); i >= 0 {
			label = label[i+1:]
		}
		return validateOnion(label)
	}

	if net.ParseIP(host) != nil {
		return nil
	}
	if _, err := lookupProfile.ToASCII(host); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformed, host, err)
	}
	return nil
}

func validateOnion(label string) error {
	switch len(label) {
	case onionV2Length:
		return ErrOnionV2
	case onionV3Length:
	default:
		return fmt.Errorf("%w: onion label of length %d", ErrMalformed, len(label))
	}

	decoded, err := base32.StdEncoding.DecodeString(strings.ToUpper(label))
	if err != nil || len(decoded) != 35 {
		return fmt.Errorf("%w: onion label is not base32", ErrMalformed)
	}

	pubkey, checksum, version := decoded[:32], decoded[32:34], decoded[34]
	if version != onionV3Version {
		return fmt.Errorf("%w: version %d", ErrOnionChecksum, version)
	}

	data := make([]byte, 0, len(".onion checksum")+len(pubkey)+1)
	data = append(data, ".onion checksum"...)
	data = append(data, pubkey...)
	data = append(data, version)
	sum := sha3.Sum256(data)
	if sum[0] != checksum[0] || sum[1] != checksum[1] {
		return ErrOnionChecksum
	}
	return nil
}
