package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/nao1215/mirrorsync/internal/model"
)

// InstancesDir is the directory under the output root that holds snapshots.
const InstancesDir = "instances"

const (
	jsonExt  = ".json"
	txtExt   = ".txt"
	dirPerm  = 0o750
	filePerm = 0o644
)

// ErrPersist marks failures to write a snapshot. They are local I/O
// faults and are never retried.
var ErrPersist = errors.New("persist snapshot")

// Reader reads snapshots. Extraction of header-derived entries and the
// report generator depend only on this interface.
type Reader interface {
	// Load returns the stored list of the entry and whether it exists.
	Load(e model.Entry) ([]string, bool, error)
}

// FileStore stores snapshots on the local file system.
type FileStore struct {
	root string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

// Root returns the output root directory.
func (s *FileStore) Root() string {
	return s.root
}

// InstancesRoot returns the directory holding every group folder.
func (s *FileStore) InstancesRoot() string {
	return filepath.Join(s.root, InstancesDir)
}

// GroupDir returns the directory of a group path.
func (s *FileStore) GroupDir(groupPath string) string {
	return filepath.Join(s.InstancesRoot(), filepath.FromSlash(groupPath))
}

// Path returns the snapshot path of the entry without extension.
func (s *FileStore) Path(e model.Entry) string {
	return filepath.Join(s.InstancesRoot(), filepath.FromSlash(e.SnapshotPath()))
}

// EnsureDir creates the directory of the entry's snapshot. It is idempotent.
func (s *FileStore) EnsureDir(e model.Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.Path(e)), dirPerm); err != nil {
		return fmt.Errorf("%w: create directory: %w", ErrPersist, err)
	}
	return nil
}

// Load implements Reader.
func (s *FileStore) Load(e model.Entry) ([]string, bool, error) {
	data, err := os.ReadFile(s.Path(e) + jsonExt)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read snapshot %s: %w", e.ID(), err)
	}

	var domains []string
	if err := json.Unmarshal(data, &domains); err != nil {
		return nil, false, fmt.Errorf("decode snapshot %s: %w", e.ID(), err)
	}
	if domains == nil {
		domains = []string{}
	}
	return domains, true, nil
}

// Save replaces both artifacts of the entry. The text file is written
// first; the JSON file, which decides future diffs, is written last.
func (s *FileStore) Save(e model.Entry, domains []string) error {
	if domains == nil {
		domains = []string{}
	}
	base := s.Path(e)

	if err := WriteFile(base+txtExt, EncodeText(domains)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, e.ID(), err)
	}

	data, err := EncodeJSON(domains)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, e.ID(), err)
	}
	if err := WriteFile(base+jsonExt, data); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPersist, e.ID(), err)
	}
	return nil
}

// Equal reports whether a computed list matches a stored one.
// The comparison is order sensitive; both sides are sorted upstream.
func Equal(a, b []string) bool {
	return slices.Equal(a, b)
}

// EncodeJSON renders domains as a JSON array indented with four spaces,
// without a trailing newline and without HTML escaping.
func EncodeJSON(domains []string) ([]byte, error) {
	if domains == nil {
		domains = []string{}
	}
	return Marshal(domains)
}

// Marshal encodes v the way every artifact under the output directory is
// encoded: four-space indent, no HTML escaping, non-ASCII characters
// written as \uXXXX escapes, no trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return escapeNonASCII(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// escapeNonASCII rewrites every non-ASCII rune of encoded JSON as a
// \uXXXX escape, using a surrogate pair outside the BMP. Encoded JSON
// only carries such runes inside strings, so the result stays valid.
func escapeNonASCII(data []byte) []byte {
	ascii := true
	for _, b := range data {
		if b >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return data
	}

	out := make([]byte, 0, len(data)+16)
	for _, r := range string(data) {
		switch {
		case r < utf8.RuneSelf:
			out = append(out, byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			out = fmt.Appendf(out, "\\u%04x\\u%04x", hi, lo)
		default:
			out = fmt.Appendf(out, "\\u%04x", r)
		}
	}
	return out
}

// EncodeText renders domains one per line without a trailing newline.
func EncodeText(domains []string) []byte {
	return []byte(strings.Join(domains, "\n"))
}

// WriteFile replaces path with data through a temporary file in the same
// directory, so readers never observe a partial file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
