package snapshot

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/nao1215/mirrorsync/internal/model"
)

func testEntry() model.Entry {
	return model.Entry{Group: "youtube/piped", Network: model.NetworkClearnet}
}

func TestFileStoreLoadMissing(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	domains, ok, err := store.Load(testEntry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected snapshot to be missing")
	}
	if domains != nil {
		t.Errorf("expected nil domains, got %v", domains)
	}
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewFileStore(root)
	e := testEntry()

	if err := store.EnsureDir(e); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := store.EnsureDir(e); err != nil {
		t.Fatalf("EnsureDir is not idempotent: %v", err)
	}

	want := []string{"a.com", "b.com"}
	if err := store.Save(e, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load(e)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	base := filepath.Join(root, "instances", "youtube", "piped", "instances")

	jsonData, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	wantJSON := "[\n    \"a.com\",\n    \"b.com\"\n]"
	if string(jsonData) != wantJSON {
		t.Errorf("expected json %q, got %q", wantJSON, string(jsonData))
	}

	txtData, err := os.ReadFile(base + ".txt")
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	if string(txtData) != "a.com\nb.com" {
		t.Errorf("expected txt %q, got %q", "a.com\nb.com", string(txtData))
	}

	entries, err := os.ReadDir(filepath.Dir(base))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected only the two artifacts, found %d files", len(entries))
	}
}

func TestFileStoreSaveEmpty(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	e := testEntry()
	if err := store.EnsureDir(e); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := store.Save(e, nil); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Load(e)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", got)
	}

	data, err := os.ReadFile(store.Path(e) + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %q", string(data))
	}
}

func TestFileStoreSaveWithoutDirectory(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	err := store.Save(testEntry(), []string{"a.com"})
	if !errors.Is(err, ErrPersist) {
		t.Errorf("expected ErrPersist, got %v", err)
	}
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	t.Parallel()

	store := NewFileStore(t.TempDir())
	e := testEntry()
	if err := store.EnsureDir(e); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := os.WriteFile(store.Path(e)+".json", []byte("{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := store.Load(e); err == nil {
		t.Error("expected decode error")
	}
}

func TestEncodeJSONDoesNotEscapeHTML(t *testing.T) {
	t.Parallel()

	data, err := EncodeJSON([]string{"a&b.example"})
	if err != nil {
		t.Fatalf("EncodeJSON: %v", err)
	}
	if string(data) != "[\n    \"a&b.example\"\n]" {
		t.Errorf("unexpected encoding %q", string(data))
	}
}

func TestEncodeJSONEscapesNonASCII(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		domain string
		want   string
	}{
		{name: "ascii is untouched", domain: "xn--mnchen-3ya.example", want: `"xn--mnchen-3ya.example"`},
		{name: "latin letter", domain: "münchen.example", want: `"m\u00fcnchen.example"`},
		{name: "cjk", domain: "例え.jp", want: `"\u4f8b\u3048.jp"`},
		{name: "outside the BMP", domain: "😀.example", want: `"\ud83d\ude00.example"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := EncodeJSON([]string{tt.domain})
			if err != nil {
				t.Fatalf("EncodeJSON: %v", err)
			}
			want := "[\n    " + tt.want + "\n]"
			if string(data) != want {
				t.Errorf("expected %q, got %q", want, string(data))
			}

			var decoded []string
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(decoded) != 1 || decoded[0] != tt.domain {
				t.Errorf("expected round trip to %q, got %v", tt.domain, decoded)
			}
		})
	}
}
