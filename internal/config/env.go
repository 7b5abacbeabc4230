package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MIRRORSYNC_"

// LoadDotEnv loads .env.local and then .env from dir into the process
// environment. Variables already set are never replaced, so .env.local
// wins over .env and the real environment wins over both. Missing files
// are skipped.
func LoadDotEnv(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		path := filepath.Join(dir, name)
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides fields from MIRRORSYNC_* variables found by lookup.
// Pass os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.str("OUTPUT_DIR", &c.OutputDir)
	e.str("CATALOG", &c.CatalogPath)
	e.str("MODE", &c.Mode)
	e.integer("CONCURRENCY", &c.Concurrency)
	e.duration("GROUP_DELAY", &c.GroupDelay)
	e.duration("TIMEOUT", &c.Timeout)
	e.str("USER_AGENT", &c.UserAgent)
	e.int64("MAX_BODY_SIZE", &c.MaxBodySize)
	e.integer("MAX_RETRIES", &c.MaxRetries)
	e.duration("RETRY_DELAY", &c.RetryDelay)
	e.float("RETRY_MULTIPLIER", &c.RetryMultiplier)
	e.integer("CONNECT_RETRIES", &c.ConnectRetries)
	e.duration("CONNECT_RETRY_DELAY", &c.ConnectRetryDelay)
	e.boolean("TRACE_ERRORS", &c.TraceErrors)
	e.boolean("ESCAPE_DUPLICATES", &c.EscapeDuplicates)
	e.boolean("IGNORE_PATH_DOMAINS", &c.IgnorePathDomains)
	e.boolean("ALLOW_PATH_DOMAINS", &c.AllowPathDomains)
	e.boolean("STRICT_DOMAINS", &c.StrictDomains)
	e.duration("LIVENESS_INTERVAL", &c.LivenessInterval)
	e.str("CACHE_SCOPE", &c.CacheScope)
	e.integer("HEADER_CONCURRENCY", &c.HeaderConcurrency)
	e.list("GROUPS_ONLY", &c.GroupsOnly)
	e.str("TOR_PROXY", &c.TorProxyAddress)
	e.boolean("EMBEDDED_TOR", &c.EmbeddedTor)
	e.duration("TOR_STARTUP_TIMEOUT", &c.TorStartupTimeout)
	e.str("HISTORY_DIR", &c.HistoryDir)
	e.str("METRICS_FILE", &c.MetricsFile)
	e.boolean("SKIP_REPORTS", &c.SkipReports)
	e.boolean("VERBOSE", &c.Verbose)
	e.boolean("LOG_JSON", &c.LogJSON)

	return e.err
}

// envReader records the first parse failure and ignores later variables.
type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) get(name string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func (e *envReader) fail(name, value string, err error) {
	e.err = fmt.Errorf("%w: %s%s=%q: %w", ErrInvalidEnv, EnvPrefix, name, value, err)
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = b
}

func (e *envReader) integer(name string, dst *int) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) int64(name string, dst *int64) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = n
}

func (e *envReader) float(name string, dst *float64) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = f
}

func (e *envReader) duration(name string, dst *time.Duration) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(name, v, err)
		return
	}
	*dst = d
}

// list splits a comma separated value; an empty value clears the list.
func (e *envReader) list(name string, dst *[]string) {
	v, ok := e.get(name)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}
