package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// AppName is the application name used for XDG directory paths.
const AppName = "mirrorsync"

// Default configuration values.
const (
	// DefaultOutputDir is the directory holding instances/ and the reports.
	DefaultOutputDir = "."

	// DefaultMode runs all entries of a tier concurrently.
	DefaultMode = "concurrent"

	// DefaultGroupDelay separates consecutive groups in sequential mode.
	DefaultGroupDelay = 3 * time.Second

	// DefaultTimeout bounds a single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies mirrorsync to upstream sources and mirrors.
	DefaultUserAgent = "mirrorsync/1.0 (+https://github.com/nao1215/mirrorsync)"

	// DefaultMaxBodySize caps the bytes read from one response.
	DefaultMaxBodySize = 10 * 1024 * 1024

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the base delay between attempts.
	DefaultRetryDelay = 3 * time.Second

	// DefaultRetryMultiplier scales the retry delay per attempt.
	DefaultRetryMultiplier = 1.0

	// DefaultConnectRetries is the number of extra GETs made when
	// connecting to a source times out.
	DefaultConnectRetries = 3

	// DefaultConnectRetryDelay separates connect-timeout retries.
	DefaultConnectRetryDelay = 3 * time.Second

	// DefaultLivenessInterval paces HEAD probes.
	DefaultLivenessInterval = 1 * time.Second

	// DefaultCacheScope shares fetched bodies inside a group.
	DefaultCacheScope = "group"

	// DefaultHeaderConcurrency bounds parallel header requests per entry.
	DefaultHeaderConcurrency = 4

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of a sync run. It is filled from defaults,
// then the environment, then command line flags.
type Config struct {
	// OutputDir is the repository root; snapshots go under OutputDir/instances.
	OutputDir string

	// CatalogPath points at a YAML catalog. Empty means discovery, then
	// the built-in catalog.
	CatalogPath string

	// Mode is "sequential" or "concurrent".
	Mode string

	// Concurrency limits parallel entries in concurrent mode; 0 is unlimited.
	Concurrency int

	// GroupDelay is slept between groups in sequential mode.
	GroupDelay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps response bodies in bytes.
	MaxBodySize int64

	// MaxRetries, RetryDelay and RetryMultiplier drive the retry controller.
	MaxRetries      int
	RetryDelay      time.Duration
	RetryMultiplier float64

	// ConnectRetries and ConnectRetryDelay retry a GET whose connection
	// attempt timed out, inside a single pipeline attempt.
	ConnectRetries    int
	ConnectRetryDelay time.Duration

	// TraceErrors logs the full error chain of failed attempts.
	TraceErrors bool

	// EscapeDuplicates removes duplicate domains before sorting.
	EscapeDuplicates bool

	// IgnorePathDomains rejects URLs with a path; AllowPathDomains keeps
	// host+path when paths are not ignored.
	IgnorePathDomains bool
	AllowPathDomains  bool

	// StrictDomains drops domains failing IDNA or onion checksum checks.
	StrictDomains bool

	// LivenessInterval is the minimum gap between liveness probes.
	LivenessInterval time.Duration

	// CacheScope is "run", "group" or "off".
	CacheScope string

	// HeaderConcurrency bounds parallel header requests per entry.
	HeaderConcurrency int

	// GroupsOnly restricts the run to the named groups.
	GroupsOnly []string

	// TorProxyAddress routes .onion requests through an existing SOCKS5
	// proxy ("host:port").
	TorProxyAddress string

	// EmbeddedTor starts a private Tor daemon for .onion requests. It is
	// ignored when TorProxyAddress is set.
	EmbeddedTor       bool
	TorStartupTimeout time.Duration

	// HistoryDir holds the run history database; empty disables history.
	HistoryDir string

	// MetricsFile receives Prometheus metrics in textfile format; empty
	// disables the export.
	MetricsFile string

	// SkipReports disables the ReadMe/all.json/all.md generation after a sync.
	SkipReports bool

	// Verbose enables debug logging; LogJSON switches to JSON log lines.
	Verbose bool
	LogJSON bool
}

// NewConfig returns a Config populated with the defaults.
func NewConfig() *Config {
	return &Config{
		OutputDir:         DefaultOutputDir,
		Mode:              DefaultMode,
		GroupDelay:        DefaultGroupDelay,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		MaxRetries:        DefaultMaxRetries,
		RetryDelay:        DefaultRetryDelay,
		RetryMultiplier:   DefaultRetryMultiplier,
		ConnectRetries:    DefaultConnectRetries,
		ConnectRetryDelay: DefaultConnectRetryDelay,
		EscapeDuplicates:  true,
		IgnorePathDomains: true,
		LivenessInterval:  DefaultLivenessInterval,
		CacheScope:        DefaultCacheScope,
		HeaderConcurrency: DefaultHeaderConcurrency,
		TorStartupTimeout: DefaultTorStartupTimeout,
		HistoryDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for mirrorsync.
// On Linux: ~/.local/share/mirrorsync
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for mirrorsync.
// On Linux: ~/.config/mirrorsync
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate returns the first invalid setting as a sentinel error.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if c.Mode != "sequential" && c.Mode != "concurrent" {
		return ErrInvalidMode
	}
	if c.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.GroupDelay < 0 {
		return ErrInvalidGroupDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if c.RetryDelay < 0 || c.RetryMultiplier < 0 {
		return ErrInvalidRetryDelay
	}
	if c.ConnectRetries < 0 || c.ConnectRetryDelay < 0 {
		return ErrInvalidConnectRetry
	}
	if c.LivenessInterval < 0 {
		return ErrInvalidLivenessInterval
	}
	switch c.CacheScope {
	case "run", "group", "off":
	default:
		return ErrInvalidCacheScope
	}
	if c.HeaderConcurrency <= 0 {
		return ErrInvalidHeaderConcurrency
	}
	return nil
}
