package domain

import (
	"errors"
	"strings"
	"testing"
)

// Deterministic v3 addresses derived from test public keys; they do not
// belong to real services.
const (
	testOnionZeroKey = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqd.onion"
	testOnionSeqKey  = "aaaqeayeaudaocajbifqydiob4ibceqtcqkrmfyydenbwha5dyp3kead.onion"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		domain  string
		wantErr error
	}{
		{name: "plain host", domain: "example.com"},
		{name: "host with port", domain: "example.com:8443"},
		{name: "host with path", domain: "example.com/search"},
		{name: "ip address", domain: "192.0.2.1"},
		{name: "i2p base32 host", domain: "ukeu3k5oycgaauneqgtnvselmt4yemvoilkln7jpvamvfx7dnkdq.b32.i2p"},
		{name: "valid onion", domain: testOnionZeroKey},
		{name: "valid onion with subdomain", domain: "www." + testOnionSeqKey},
		{name: "uppercase onion", domain: strings.ToUpper(testOnionZeroKey)},
		{name: "onion v2", domain: "facebookcorewwwi.onion", wantErr: ErrOnionV2},
		{name: "onion with broken checksum", domain: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaam2dqe.onion", wantErr: ErrOnionChecksum},
		{name: "onion with odd length", domain: "abc.onion", wantErr: ErrMalformed},
		{name: "underscore host", domain: "bad_host.example", wantErr: ErrMalformed},
		{name: "empty", domain: "", wantErr: ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := Validate(tt.domain)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
