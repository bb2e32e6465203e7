package gversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"full version", "MyMod v3.10.2", []string{"3.10.2"}},
		{"no leading v", "MyMod 3.10.2", []string{"3.10.2"}},
		{"missing patch", "MyMod 3.10", []string{"3.10.x"}},
		{"wildcard patch", "MyMod 3.10.x", []string{"3.10.x"}},
		{"star wildcard", "MyMod 3.10.*", []string{"3.10.x"}},
		{"major only", "v2", []string{"2.x.x"}},
		{"multiple versions", "MyMod-1.4.0-spt-3.11", []string{"1.4.0", "3.11.x"}},
		{"nothing", "plain-name", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.input))
		})
	}
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("3.10.x"))
	assert.True(t, IsKnown("3.11.2"))
	assert.True(t, IsKnown("3.9.0"))
	assert.False(t, IsKnown("1.4.0"))
	assert.False(t, IsKnown("2.10.x"))
}

func TestTrimPatch(t *testing.T) {
	assert.Equal(t, "3.10", TrimPatch("3.10.2"))
	assert.Equal(t, "3.10", TrimPatch("3.10.x"))
	assert.Equal(t, "3.10", TrimPatch("3.10"))
	assert.Equal(t, "3", TrimPatch("3"))
}

func TestCollect(t *testing.T) {
	// Mod version 1.4.0 is discarded (not an SPT version); the SPT tag is
	// kept and trimmed to minor granularity.
	got := Collect("MyMod 1.4.0 for SPT 3.10.2", "MyMod-1.4.0.zip")
	assert.Equal(t, []string{"3.10"}, got)

	// Release title and asset name contribute, duplicates collapse.
	got = Collect("Release 3.11", "mod-3.11.0.zip")
	assert.Equal(t, []string{"3.11"}, got)

	assert.Nil(t, Collect("no versions here"))
	assert.Nil(t, Collect())
}
