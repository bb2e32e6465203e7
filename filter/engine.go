package filter

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrNoCompatibleFiles is returned when no candidate satisfies every
	// filter, or when there are no candidates at all.
	ErrNoCompatibleFiles = errors.New("no compatible files found after applying all filters")

	// ErrInvalidPattern is returned (wrapped) when a Filename, Title or
	// Description filter carries a pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid filter pattern")
)

// EmptyFilterError reports filters that matched zero candidates on their
// own. It distinguishes "your filter is impossible" from "no single
// candidate satisfies all filters together" (ErrNoCompatibleFiles).
type EmptyFilterError struct {
	Filters []string
}

func (e *EmptyFilterError) Error() string {
	return fmt.Sprintf("the following filter(s) were empty: %s", strings.Join(e.Filters, ", "))
}

// VersionGroupSource provides groups of game versions that are considered
// minor (non-breaking) updates of each other. It is an injectable
// collaborator; the grouping data would come from an external version
// taxonomy service.
type VersionGroupSource interface {
	Groups(ctx context.Context) ([][]string, error)
}

// StubGroupSource returns a single empty group. The real grouping source
// was never wired up, so GameVersionMinor currently expands to nothing;
// this is a known gap, not data to invent.
type StubGroupSource struct{}

func (StubGroupSource) Groups(context.Context) ([][]string, error) {
	return [][]string{{}}, nil
}

// Engine evaluates filters against metadata. The version-group lookup is
// memoized for the lifetime of the Engine; everything else is pure.
type Engine struct {
	source VersionGroupSource
	log    *zap.SugaredLogger

	once   sync.Once
	groups [][]string
	err    error
}

// NewEngine builds an Engine around the given group source. A nil source
// falls back to the stub.
func NewEngine(source VersionGroupSource, log *zap.SugaredLogger) *Engine {
	if source == nil {
		source = StubGroupSource{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{source: source, log: log}
}

func (e *Engine) versionGroups(ctx context.Context) ([][]string, error) {
	e.once.Do(func() {
		e.groups, e.err = e.source.Groups(ctx)
		if e.err == nil {
			e.log.Debugw("version groups initialised", zap.Int("groups", len(e.groups)))
		}
	})
	return e.groups, e.err
}

// matchesVersion checks requested against the metadata version list with
// bidirectional wildcard equivalence: a requested "X.Y.x" also matches a
// bare "X.Y" in metadata, and a requested "X.Y" also matches "X.Y.x".
// Without this, releases that tag only "3.10" would fail a "3.10.x" request.
func matchesVersion(requested string, have []string) bool {
	for _, h := range have {
		if h == requested {
			return true
		}
	}
	if trimmed, ok := strings.CutSuffix(requested, ".x"); ok {
		for _, h := range have {
			if h == trimmed {
				return true
			}
		}
	} else if strings.Count(requested, ".") == 1 {
		withX := requested + ".x"
		for _, h := range have {
			if h == withX {
				return true
			}
		}
	}
	return false
}

// Matches reports whether metadata passes the filter. It only fails for
// regex filters whose pattern does not compile.
func (e *Engine) Matches(ctx context.Context, f Filter, m *Metadata) (bool, error) {
	switch f.Kind {
	case KindGameVersionStrict:
		for _, v := range f.Versions {
			if matchesVersion(v, m.GameVersions) {
				return true, nil
			}
		}
		return false, nil

	case KindGameVersionMinor:
		groups, err := e.versionGroups(ctx)
		if err != nil {
			return false, err
		}
		var expanded []string
		for _, group := range groups {
			hit := false
			for _, v := range group {
				for _, want := range f.Versions {
					if v == want {
						hit = true
					}
				}
			}
			if hit {
				expanded = append(expanded, group...)
			}
		}
		e.log.Debugw("expanded minor-compatible versions",
			zap.Strings("requested", f.Versions),
			zap.Int("expanded", len(expanded)),
		)
		for _, v := range expanded {
			if matchesVersion(v, m.GameVersions) {
				return true, nil
			}
		}
		return false, nil

	case KindReleaseChannel:
		return f.Channel.Accepts(m.Channel), nil

	case KindFilename:
		return matchPattern(f, m.Filename)

	case KindTitle:
		return matchPattern(f, m.Title)

	case KindDescription:
		return matchPattern(f, m.Description)

	default:
		return false, fmt.Errorf("unknown filter kind %q", f.Kind)
	}
}

func matchPattern(f Filter, text string) (bool, error) {
	re, err := regexp.Compile(f.Pattern)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, f, err)
	}
	return re.MatchString(text), nil
}

// Apply narrows candidates to those passing every filter, preserving order.
func (e *Engine) Apply(ctx context.Context, filters List, candidates []*Metadata) ([]*Metadata, error) {
	var out []*Metadata
	for _, m := range candidates {
		ok, err := e.passesAll(ctx, filters, m)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (e *Engine) passesAll(ctx context.Context, filters List, m *Metadata) (bool, error) {
	for _, f := range filters {
		ok, err := e.Matches(ctx, f, m)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// SelectLatest picks the first candidate that satisfies every filter and
// returns its index. Candidates must already be sorted by preference
// (newest first). Before selecting, each filter is checked against the full
// candidate set; filters that match nothing at all are reported together via
// EmptyFilterError.
func (e *Engine) SelectLatest(ctx context.Context, candidates []*Metadata, filters List) (int, error) {
	e.log.Debugw("selecting latest candidate",
		zap.Int("candidates", len(candidates)),
		zap.Int("filters", len(filters)),
	)
	if len(candidates) == 0 {
		return -1, ErrNoCompatibleFiles
	}

	var empty []string
	for _, f := range filters {
		hasMatch := false
		for _, m := range candidates {
			ok, err := e.Matches(ctx, f, m)
			if err != nil {
				return -1, err
			}
			if ok {
				hasMatch = true
				break
			}
		}
		if !hasMatch {
			empty = append(empty, f.String())
		}
	}
	if len(empty) > 0 {
		return -1, &EmptyFilterError{Filters: empty}
	}

	for i, m := range candidates {
		ok, err := e.passesAll(ctx, filters, m)
		if err != nil {
			return -1, err
		}
		if ok {
			e.log.Debugw("selected candidate", zap.String("filename", m.Filename))
			return i, nil
		}
	}
	return -1, ErrNoCompatibleFiles
}
