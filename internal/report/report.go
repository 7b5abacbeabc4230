package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/mirrorsync/internal/model"
	"github.com/nao1215/mirrorsync/internal/snapshot"
)

// File names of the generated reports.
const (
	GroupReadmeName = "ReadMe.MD"
	GroupJSONName   = "all.json"
	AllJSONName     = "all.json"
	AllMarkdownName = "all.md"
)

// Store is the read side of the snapshot tree plus its layout.
type Store interface {
	snapshot.Reader
	GroupDir(groupPath string) string
	InstancesRoot() string
}

// Generator writes every report of a catalog.
type Generator struct {
	store  Store
	logger *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// NewGenerator returns a Generator reading snapshots from store.
func NewGenerator(store Store, opts ...Option) *Generator {
	g := &Generator{store: store}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// section is the loaded snapshot of one entry of a group.
type section struct {
	network model.Network
	domains []string
}

// groupData holds the loaded snapshots of a group in catalog order.
type groupData struct {
	group    model.Group
	sections []section
}

// load reads the snapshots of g. Entries without a snapshot are left out.
func (gen *Generator) load(g model.Group) (groupData, error) {
	data := groupData{group: g}
	for _, e := range g.Entries {
		domains, ok, err := gen.store.Load(e)
		if err != nil {
			return data, err
		}
		if !ok {
			gen.logger.Debug("no snapshot, section skipped", "entry", e.ID())
			continue
		}
		data.sections = append(data.sections, section{network: e.Network, domains: domains})
	}
	return data, nil
}

// WriteGroup writes ReadMe.MD and all.json into the directory of g.
func (gen *Generator) WriteGroup(g model.Group) error {
	data, err := gen.load(g)
	if err != nil {
		return fmt.Errorf("report %s: %w", g.Name, err)
	}
	return gen.writeGroup(data)
}

func (gen *Generator) writeGroup(data groupData) error {
	dir := gen.store.GroupDir(data.group.Path)

	readme, err := renderGroupMarkdown(data, 1)
	if err != nil {
		return fmt.Errorf("report %s: %w", data.group.Name, err)
	}
	if err := snapshot.WriteFile(filepath.Join(dir, GroupReadmeName), readme); err != nil {
		return fmt.Errorf("report %s: %w", data.group.Name, err)
	}

	js, err := snapshot.Marshal(groupJSON(data))
	if err != nil {
		return fmt.Errorf("report %s: %w", data.group.Name, err)
	}
	if err := snapshot.WriteFile(filepath.Join(dir, GroupJSONName), js); err != nil {
		return fmt.Errorf("report %s: %w", data.group.Name, err)
	}
	return nil
}

// WriteAll writes the reports of every group of catalog, then the global
// all.json and all.md. Groups without any snapshot are skipped.
func (gen *Generator) WriteAll(catalog *model.Catalog) error {
	var groups []groupData
	for _, g := range catalog.Groups {
		data, err := gen.load(g)
		if err != nil {
			return fmt.Errorf("report %s: %w", g.Name, err)
		}
		if len(data.sections) == 0 {
			gen.logger.Warn("group has no snapshots, report skipped", "group", g.Name)
			continue
		}
		if err := gen.writeGroup(data); err != nil {
			return err
		}
		groups = append(groups, data)
	}

	root := gen.store.InstancesRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}

	js, err := snapshot.Marshal(allJSON(groups))
	if err != nil {
		return fmt.Errorf("report all.json: %w", err)
	}
	if err := snapshot.WriteFile(filepath.Join(root, AllJSONName), js); err != nil {
		return fmt.Errorf("report all.json: %w", err)
	}

	md, err := renderAllMarkdown(groups)
	if err != nil {
		return fmt.Errorf("report all.md: %w", err)
	}
	if err := snapshot.WriteFile(filepath.Join(root, AllMarkdownName), md); err != nil {
		return fmt.Errorf("report all.md: %w", err)
	}

	gen.logger.Info("reports written",
		"groups", len(groups),
		"dir", root,
	)
	return nil
}
