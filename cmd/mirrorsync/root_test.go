package main

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "mirrorsync" {
			t.Errorf("expected use 'mirrorsync', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" || cmd.Long == "" {
			t.Error("expected non-empty short and long descriptions")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has persistent flags", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name      string
			shorthand string
		}{
			{name: "verbose", shorthand: "v"},
			{name: "log-json", shorthand: ""},
			{name: "output", shorthand: "o"},
			{name: "catalog", shorthand: "c"},
		}
		for _, tt := range tests {
			flag := cmd.PersistentFlags().Lookup(tt.name)
			if flag == nil {
				t.Errorf("expected flag %q", tt.name)
				continue
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q: expected shorthand %q, got %q", tt.name, tt.shorthand, flag.Shorthand)
			}
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := []string{"sync", "report", "validate", "history", "init", "version"}
		names := make(map[string]bool)
		for _, sub := range cmd.Commands() {
			names[sub.Name()] = true
		}
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected subcommand %q", name)
			}
		}
	})
}
