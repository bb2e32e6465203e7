package db

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"spt-mod-manager/filter"
)

// Profile is one managed SPT installation: an output directory plus the
// compatibility filters and mods tracked for it. Exactly one profile is
// active at a time.
type Profile struct {
	gorm.Model
	Name      string `gorm:"uniqueIndex"` // Display name
	OutputDir string // Absolute path of the SPT directory
	Active    bool   // Whether this is the currently selected profile
	Filters   string // Profile-wide filters, JSON-encoded filter.List
	Mods      []Mod  `gorm:"constraint:OnDelete:CASCADE"`
}

// FilterList decodes the profile's stored filters.
func (p *Profile) FilterList() (filter.List, error) {
	return decodeFilters(p.Filters)
}

// SetFilterList encodes and stores the profile's filters.
func (p *Profile) SetFilterList(l filter.List) error {
	s, err := encodeFilters(l)
	if err != nil {
		return err
	}
	p.Filters = s
	return nil
}

// Mod is one tracked GitHub-hosted add-on within a profile.
type Mod struct {
	gorm.Model
	ProfileID       uint   `gorm:"index"`
	Name            string // Display name
	Owner           string // GitHub repository owner
	Repo            string // GitHub repository name
	AssetID         int64  // Pinned release asset id; 0 tracks latest compatible
	Slug            string // Lookup alias
	Enabled         bool   `gorm:"default:true"`
	OverrideFilters bool   // Mod filters replace (not extend) profile filters
	Filters         string // Mod-level filters, JSON-encoded filter.List
	Files           string // Relative paths installed for this mod, JSON list
}

// Pinned reports whether the mod is locked to one specific release asset.
func (m *Mod) Pinned() bool {
	return m.AssetID != 0
}

// Identifier renders the owner/repo pair.
func (m *Mod) Identifier() string {
	return m.Owner + "/" + m.Repo
}

func (m *Mod) FilterList() (filter.List, error) {
	return decodeFilters(m.Filters)
}

func (m *Mod) SetFilterList(l filter.List) error {
	s, err := encodeFilters(l)
	if err != nil {
		return err
	}
	m.Filters = s
	return nil
}

// FileList decodes the relative paths currently installed for this mod.
func (m *Mod) FileList() []string {
	if m.Files == "" {
		return nil
	}
	var files []string
	if err := json.Unmarshal([]byte(m.Files), &files); err != nil {
		return nil
	}
	return files
}

// SetFileList encodes and stores the mod's installed file paths.
func (m *Mod) SetFileList(files []string) error {
	if len(files) == 0 {
		m.Files = ""
		return nil
	}
	b, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encoding file list: %w", err)
	}
	m.Files = string(b)
	return nil
}

func decodeFilters(s string) (filter.List, error) {
	if s == "" {
		return nil, nil
	}
	var l filter.List
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, fmt.Errorf("decoding filters: %w", err)
	}
	return l, nil
}

func encodeFilters(l filter.List) (string, error) {
	if len(l) == 0 {
		return "", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encoding filters: %w", err)
	}
	return string(b), nil
}
