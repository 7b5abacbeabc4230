package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/nao1215/mirrorsync/internal/catalog"
	"github.com/nao1215/mirrorsync/internal/config"
	"github.com/nao1215/mirrorsync/internal/extract"
	mlog "github.com/nao1215/mirrorsync/internal/log"
	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// buildConfig layers defaults, .env files, MIRRORSYNC_* variables and
// explicitly set flags, in that order, and validates the result.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(""); err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	f := changedFlags{fs: cmd.Flags()}
	f.str("output", &cfg.OutputDir)
	f.str("catalog", &cfg.CatalogPath)
	f.boolean("verbose", &cfg.Verbose)
	f.boolean("log-json", &cfg.LogJSON)

	f.str("mode", &cfg.Mode)
	f.integer("concurrency", &cfg.Concurrency)
	f.duration("group-delay", &cfg.GroupDelay)
	f.duration("timeout", &cfg.Timeout)
	f.str("user-agent", &cfg.UserAgent)
	f.int64("max-body-size", &cfg.MaxBodySize)
	f.integer("retries", &cfg.MaxRetries)
	f.duration("retry-delay", &cfg.RetryDelay)
	f.float("retry-multiplier", &cfg.RetryMultiplier)
	f.integer("connect-retries", &cfg.ConnectRetries)
	f.duration("connect-retry-delay", &cfg.ConnectRetryDelay)
	f.boolean("trace-errors", &cfg.TraceErrors)
	f.negated("keep-duplicates", &cfg.EscapeDuplicates)
	f.boolean("ignore-path-domains", &cfg.IgnorePathDomains)
	f.boolean("allow-path-domains", &cfg.AllowPathDomains)
	f.boolean("strict", &cfg.StrictDomains)
	f.duration("liveness-interval", &cfg.LivenessInterval)
	f.str("cache-scope", &cfg.CacheScope)
	f.integer("header-concurrency", &cfg.HeaderConcurrency)
	f.list("groups", &cfg.GroupsOnly)
	f.str("tor-proxy", &cfg.TorProxyAddress)
	f.boolean("embedded-tor", &cfg.EmbeddedTor)
	f.duration("tor-timeout", &cfg.TorStartupTimeout)
	f.str("history-dir", &cfg.HistoryDir)
	f.str("metrics-file", &cfg.MetricsFile)
	f.boolean("skip-reports", &cfg.SkipReports)

	var noHistory bool
	f.boolean("no-history", &noHistory)
	if noHistory {
		cfg.HistoryDir = ""
	}

	if f.err != nil {
		return nil, f.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return cfg, nil
}

// changedFlags copies only flags the user set, so that environment
// values survive untouched flags. Flags a command does not define are
// skipped.
type changedFlags struct {
	fs  *pflag.FlagSet
	err error
}

func (f *changedFlags) changed(name string) bool {
	return f.err == nil && f.fs.Lookup(name) != nil && f.fs.Changed(name)
}

func (f *changedFlags) set(err error) {
	if err != nil && f.err == nil {
		f.err = err
	}
}

func (f *changedFlags) str(name string, dst *string) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetString(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) boolean(name string, dst *bool) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetBool(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) negated(name string, dst *bool) {
	var v bool
	if !f.changed(name) {
		return
	}
	f.boolean(name, &v)
	*dst = !v
}

func (f *changedFlags) integer(name string, dst *int) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetInt(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) int64(name string, dst *int64) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetInt64(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) float(name string, dst *float64) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetFloat64(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) duration(name string, dst *time.Duration) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetDuration(name)
	f.set(err)
	*dst = v
}

func (f *changedFlags) list(name string, dst *[]string) {
	if !f.changed(name) {
		return
	}
	v, err := f.fs.GetStringSlice(name)
	f.set(err)
	*dst = v
}

// setupLogger builds the redacting logger and installs it as default.
func setupLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	logger := mlog.New(w, cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)
	return logger
}

// loadCatalog resolves, parses and validates the catalog. The returned
// string names where it came from.
func loadCatalog(cfg *config.Config) (*model.Catalog, string, error) {
	path, err := cfg.FindCatalogFile()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", err, cfg.CatalogPath)
	}

	var (
		c      *model.Catalog
		source = path
	)
	if path == "" {
		source = "built-in"
		c, err = catalog.Default()
	} else {
		c, err = catalog.LoadFile(path)
	}
	if err != nil {
		return nil, source, err
	}
	if err := c.Validate(extract.DefaultRegistry().Has); err != nil {
		return nil, source, err
	}
	return c, source, nil
}
