package cmd

import (
	"testing"

	"spt-mod-manager/db"
	"spt-mod-manager/filter"

	"github.com/spf13/cobra"
)

func TestParseRepo(t *testing.T) {
	tests := []struct {
		arg       string
		owner     string
		repo      string
		expectErr bool
	}{
		{"SamSWAT/SamSWAT.FireSupport", "SamSWAT", "SamSWAT.FireSupport", false},
		{"owner/repo", "owner", "repo", false},
		{"just-a-name", "", "", true},
		{"owner/", "", "", true},
		{"/repo", "", "", true},
		{"a/b/c", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			owner, repo, err := parseRepo(tt.arg)
			if tt.expectErr {
				if err == nil {
					t.Errorf("parseRepo(%q) expected error, got %q/%q", tt.arg, owner, repo)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseRepo(%q) unexpected error: %v", tt.arg, err)
			}
			if owner != tt.owner || repo != tt.repo {
				t.Errorf("parseRepo(%q) = %q/%q, want %q/%q", tt.arg, owner, repo, tt.owner, tt.repo)
			}
		})
	}
}

func TestFindMod(t *testing.T) {
	profile := &db.Profile{
		Name: "default",
		Mods: []db.Mod{
			{Name: "FireSupport", Slug: "firesupport", Owner: "SamSWAT", Repo: "SamSWAT.FireSupport"},
			{Name: "SAIN", Slug: "sain", Owner: "Solarint", Repo: "SAIN"},
		},
	}

	t.Run("by name case-insensitive", func(t *testing.T) {
		mod, err := findMod(profile, "firesupport")
		if err != nil || mod.Name != "FireSupport" {
			t.Errorf("findMod by name failed: %v", err)
		}
	})

	t.Run("by identifier", func(t *testing.T) {
		mod, err := findMod(profile, "solarint/sain")
		if err != nil || mod.Name != "SAIN" {
			t.Errorf("findMod by identifier failed: %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		if _, err := findMod(profile, "missing"); err == nil {
			t.Error("findMod should fail for unknown mods")
		}
	})

	t.Run("returns pointer into profile", func(t *testing.T) {
		mod, err := findMod(profile, "SAIN")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		mod.Enabled = true
		if !profile.Mods[1].Enabled {
			t.Error("findMod should return a pointer into the profile's mods")
		}
	})
}

func newFilterFlagCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	registerFilterFlags(cmd)
	return cmd
}

func TestFiltersFromFlags(t *testing.T) {
	t.Run("no flags means no filters", func(t *testing.T) {
		filters, err := filtersFromFlags(newFilterFlagCommand())
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(filters) != 0 {
			t.Errorf("Expected no filters, got %d", len(filters))
		}
	})

	t.Run("all flags", func(t *testing.T) {
		cmd := newFilterFlagCommand()
		if err := cmd.ParseFlags([]string{
			"--game-version", "3.11", "--game-version", "3.10.x",
			"--channel", "beta",
			"--filename", `(?i)\.zip$`,
		}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}

		filters, err := filtersFromFlags(cmd)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if len(filters) != 3 {
			t.Fatalf("Expected 3 filters, got %d", len(filters))
		}
		if filters[0].Kind != filter.KindGameVersionStrict {
			t.Errorf("Expected game version filter first, got %s", filters[0].Kind)
		}
		if filters[1].Channel != filter.ChannelBeta {
			t.Errorf("Expected beta channel, got %s", filters[1].Channel)
		}
	})

	t.Run("unknown channel is rejected", func(t *testing.T) {
		cmd := newFilterFlagCommand()
		if err := cmd.ParseFlags([]string{"--channel", "nightly"}); err != nil {
			t.Fatalf("ParseFlags failed: %v", err)
		}
		if _, err := filtersFromFlags(cmd); err == nil {
			t.Error("Expected error for unknown channel")
		}
	})
}
