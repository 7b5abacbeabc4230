// Package domain turns raw URLs into canonical domain strings.
//
// Normalize is pure and total: malformed input is rejected, never
// reported as an error. Validate adds the optional strict checks used
// when StrictDomains is enabled (IDNA well-formedness and onion v3
// checksums).
package domain
