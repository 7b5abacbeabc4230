package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/mirrorsync/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrDecode wraps every failure to turn YAML into a catalog.
var ErrDecode = errors.New("failed to decode catalog")

// file mirrors the YAML layout of a catalog.
type file struct {
	Shared map[string]string `yaml:"shared,omitempty"`
	Groups []groupDTO        `yaml:"groups"`
}

type groupDTO struct {
	Name        string     `yaml:"name"`
	Home        string     `yaml:"home,omitempty"`
	Path        string     `yaml:"path"`
	Description string     `yaml:"description,omitempty"`
	Entries     []entryDTO `yaml:"entries"`
}

// entryDTO carries exactly one strategy block.
type entryDTO struct {
	Network       string            `yaml:"network"`
	Priority      int               `yaml:"priority,omitempty"`
	Transform     string            `yaml:"transform,omitempty"`
	CheckLiveness bool              `yaml:"check_liveness,omitempty"`
	Headers       map[string]string `yaml:"headers,omitempty"`

	Regex        *regexDTO   `yaml:"regex,omitempty"`
	CroppedRegex *croppedDTO `yaml:"cropped_regex,omitempty"`
	RawList      *sourceDTO  `yaml:"raw_list,omitempty"`
	JSON         *jsonDTO    `yaml:"json,omitempty"`
	Header       *headerDTO  `yaml:"header,omitempty"`
}

type sourceDTO struct {
	URL    string `yaml:"url,omitempty"`
	Shared string `yaml:"shared,omitempty"`
}

func (s sourceDTO) model() model.Source {
	return model.Source{URL: s.URL, Shared: s.Shared}
}

type regexDTO struct {
	sourceDTO `yaml:",inline"`
	Pattern   string   `yaml:"pattern,omitempty"`
	Patterns  []string `yaml:"patterns,omitempty"`
	Group     string   `yaml:"group,omitempty"`
	Selector  string   `yaml:"selector,omitempty"`
}

func (r regexDTO) model() model.Regex {
	patterns := r.Patterns
	if r.Pattern != "" {
		patterns = append([]string{r.Pattern}, patterns...)
	}
	return model.Regex{
		Source:   r.sourceDTO.model(),
		Patterns: patterns,
		Group:    r.Group,
		Selector: r.Selector,
	}
}

type croppedDTO struct {
	regexDTO `yaml:",inline"`
	From     string `yaml:"from,omitempty"`
	To       string `yaml:"to,omitempty"`
}

type jsonDTO struct {
	sourceDTO  `yaml:",inline"`
	Path       string   `yaml:"path,omitempty"`
	Keys       bool     `yaml:"keys,omitempty"`
	Include    []string `yaml:"include,omitempty"`
	Exclude    []string `yaml:"exclude,omitempty"`
	Normalize  bool     `yaml:"normalize,omitempty"`
	Projection string   `yaml:"projection,omitempty"`
	Arg        string   `yaml:"arg,omitempty"`
}

type headerDTO struct {
	Parent string `yaml:"parent"`
	Name   string `yaml:"name"`
}

// Default returns the embedded catalog.
func Default() (*model.Catalog, error) {
	return Parse(defaultCatalog)
}

// DefaultYAML returns the embedded catalog source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// LoadFile reads a catalog from path.
func LoadFile(path string) (*model.Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided catalog path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Load decodes a catalog from r.
func Load(r io.Reader) (*model.Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Unknown keys are rejected. Structural
// checks beyond the shape of each entry are left to model.Catalog.Validate.
func Parse(data []byte) (*model.Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f file
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	c := &model.Catalog{
		Shared: f.Shared,
		Groups: make([]model.Group, 0, len(f.Groups)),
	}
	for _, g := range f.Groups {
		group := model.Group{
			Name:        g.Name,
			HomeURL:     g.Home,
			Path:        strings.Trim(g.Path, "/"),
			Description: g.Description,
		}
		for i, e := range g.Entries {
			entry, err := e.model(group.Path)
			if err != nil {
				return nil, fmt.Errorf("%w: group %q entry %d: %w", ErrDecode, g.Name, i, err)
			}
			group.Entries = append(group.Entries, entry)
		}
		c.Groups = append(c.Groups, group)
	}
	return c, nil
}

func (e entryDTO) model(groupPath string) (model.Entry, error) {
	network, err := model.ParseNetwork(e.Network)
	if err != nil {
		return model.Entry{}, err
	}

	var (
		strategy model.Strategy
		count    int
	)
	if e.Regex != nil {
		strategy = e.Regex.model()
		count++
	}
	if e.CroppedRegex != nil {
		strategy = model.CroppedRegex{
			Regex: e.CroppedRegex.regexDTO.model(),
			From:  e.CroppedRegex.From,
			To:    e.CroppedRegex.To,
		}
		count++
	}
	if e.RawList != nil {
		strategy = model.RawList{Source: e.RawList.model()}
		count++
	}
	if e.JSON != nil {
		strategy = model.JSON{
			Source:     e.JSON.sourceDTO.model(),
			Path:       e.JSON.Path,
			Keys:       e.JSON.Keys,
			Include:    e.JSON.Include,
			Exclude:    e.JSON.Exclude,
			Normalize:  e.JSON.Normalize,
			Projection: e.JSON.Projection,
			Arg:        e.JSON.Arg,
		}
		count++
	}
	if e.Header != nil {
		strategy = model.Header{
			Parent: parentID(groupPath, e.Header.Parent),
			Name:   strings.ToLower(e.Header.Name),
		}
		count++
	}
	switch count {
	case 0:
		return model.Entry{}, fmt.Errorf("network %s: no strategy block", network)
	case 1:
	default:
		return model.Entry{}, fmt.Errorf("network %s: %d strategy blocks, want one", network, count)
	}

	return model.Entry{
		Group:         groupPath,
		Network:       network,
		Strategy:      strategy,
		Transform:     e.Transform,
		CheckLiveness: e.CheckLiveness,
		Priority:      e.Priority,
		Headers:       e.Headers,
	}, nil
}

// parentID expands a bare network tag ("clearnet") to an entry ID inside
// the same group. Full IDs are returned unchanged.
func parentID(groupPath, parent string) string {
	if parent == "" || strings.Contains(parent, "/") {
		return parent
	}
	return groupPath + "/" + parent
}
