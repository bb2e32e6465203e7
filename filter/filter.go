package filter

import (
	"fmt"
	"strings"
	"time"
)

// Kind discriminates the Filter union. Adding a kind requires updating
// Engine.Matches, which switches exhaustively over these values.
type Kind string

const (
	KindGameVersionStrict Kind = "game_version_strict"
	KindGameVersionMinor  Kind = "game_version_minor"
	KindReleaseChannel    Kind = "release_channel"
	KindFilename          Kind = "filename"
	KindTitle             Kind = "title"
	KindDescription       Kind = "description"
)

// ReleaseChannel is a stability level, ordered Release > Beta > Alpha.
type ReleaseChannel string

const (
	ChannelRelease ReleaseChannel = "release"
	ChannelBeta    ReleaseChannel = "beta"
	ChannelAlpha   ReleaseChannel = "alpha"
)

// Accepts reports whether metadata on channel other passes a filter
// requesting channel c. Requesting a looser channel accepts anything at
// least that stable: Alpha accepts everything, Beta accepts Beta and
// Release, Release accepts only Release.
func (c ReleaseChannel) Accepts(other ReleaseChannel) bool {
	switch c {
	case ChannelAlpha:
		return true
	case ChannelBeta:
		return other == ChannelBeta || other == ChannelRelease
	default:
		return other == ChannelRelease
	}
}

// Filter is a compatibility predicate over release Metadata. It is a tagged
// union: Kind selects which payload field is meaningful. Filters are stored
// as JSON alongside profiles and mods.
type Filter struct {
	Kind     Kind           `json:"kind"`
	Versions []string       `json:"versions,omitempty"`
	Channel  ReleaseChannel `json:"channel,omitempty"`
	Pattern  string         `json:"pattern,omitempty"`
}

func GameVersionStrict(versions ...string) Filter {
	return Filter{Kind: KindGameVersionStrict, Versions: versions}
}

func GameVersionMinor(versions ...string) Filter {
	return Filter{Kind: KindGameVersionMinor, Versions: versions}
}

func Channel(c ReleaseChannel) Filter {
	return Filter{Kind: KindReleaseChannel, Channel: c}
}

func Filename(pattern string) Filter {
	return Filter{Kind: KindFilename, Pattern: pattern}
}

func Title(pattern string) Filter {
	return Filter{Kind: KindTitle, Pattern: pattern}
}

func Description(pattern string) Filter {
	return Filter{Kind: KindDescription, Pattern: pattern}
}

// String renders the filter for user-facing error messages.
func (f Filter) String() string {
	switch f.Kind {
	case KindGameVersionStrict:
		return fmt.Sprintf("Game Version (%s)", strings.Join(f.Versions, ", "))
	case KindGameVersionMinor:
		return fmt.Sprintf("Game Version Minor (%s)", strings.Join(f.Versions, ", "))
	case KindReleaseChannel:
		return fmt.Sprintf("Release Channel (%s)", f.Channel)
	case KindFilename:
		return fmt.Sprintf("Filename (%s)", f.Pattern)
	case KindTitle:
		return fmt.Sprintf("Title (%s)", f.Pattern)
	case KindDescription:
		return fmt.Sprintf("Description (%s)", f.Pattern)
	default:
		return string(f.Kind)
	}
}

// List is an ordered set of filters. All filters must pass for a candidate
// to be selected.
type List []Filter

// GameVersions returns the version list of the first version filter in the
// list, or nil if the list has no version filter.
func (l List) GameVersions() []string {
	for _, f := range l {
		if f.Kind == KindGameVersionStrict || f.Kind == KindGameVersionMinor {
			return f.Versions
		}
	}
	return nil
}

// Metadata describes one candidate release artifact. It is constructed per
// remote response and never persisted.
type Metadata struct {
	// Title of the release this asset belongs to.
	Title string
	// Description is the release body.
	Description string
	// Filename of the asset.
	Filename string
	// ReleaseDate is when the release was published.
	ReleaseDate time.Time
	// Channel is the release stability channel.
	Channel ReleaseChannel
	// GameVersions the release is compatible with, at minor granularity
	// (e.g. "3.10" or "3.10.x"), extracted from release and asset names.
	GameVersions []string
}
