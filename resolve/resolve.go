// Package resolve picks the release asset to install for each tracked mod
// and fans resolution out across a profile under a shared concurrency cap.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"

	"spt-mod-manager/db"
	"spt-mod-manager/filter"
	"spt-mod-manager/gversion"
)

var (
	// ErrDoesNotExist is returned when a repository has no release with an
	// installable archive asset.
	ErrDoesNotExist = errors.New("the project does not exist or has no release archives")

	// ErrDistributionDenied is returned when the project forbids third
	// party applications from downloading its files. The user can download
	// the archive manually into the output directory instead.
	ErrDistributionDenied = errors.New("the developer of this project has denied third party applications from downloading it")
)

// IncompatibleError wraps a filter-engine failure for one mod.
type IncompatibleError struct {
	Err error
}

func (e *IncompatibleError) Error() string {
	return fmt.Sprintf("the project is not compatible because %v", e.Err)
}

func (e *IncompatibleError) Unwrap() error { return e.Err }

// archiveExtensions are the asset suffixes considered installable.
var archiveExtensions = []string{".zip", ".7z"}

func isArchiveAsset(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// DownloadData is one resolved, downloadable artifact.
type DownloadData struct {
	// URL to stream the artifact from.
	URL string
	// Output is the destination path relative to the output directory.
	Output string
	// Length of the file in bytes.
	Length int64
	// Dependencies and Conflicts are reserved for dependency resolution,
	// which is not implemented; both stay empty.
	Dependencies []string
	Conflicts    []string
}

// Filename returns the base name of the output path.
func (d *DownloadData) Filename() string {
	return path.Base(d.Output)
}

// Candidate pairs the metadata the filter engine sees with the download
// that selecting it would produce.
type Candidate struct {
	Meta     filter.Metadata
	Download DownloadData
}

// FromReleases derives candidates from a repository's releases, in the
// order the API returned them. Only archive-type assets are considered.
// Game versions are collected from the release title and asset filename and
// stored at minor granularity.
func FromReleases(releases []*gh.RepositoryRelease) []Candidate {
	var out []Candidate
	for _, release := range releases {
		title := release.GetName()
		if title == "" {
			title = release.GetTagName()
		}
		channel := filter.ChannelRelease
		if release.GetPrerelease() {
			channel = filter.ChannelBeta
		}
		published := release.GetPublishedAt().Time
		if published.IsZero() {
			published = time.Now()
		}
		for _, asset := range release.Assets {
			if !isArchiveAsset(asset.GetName()) {
				continue
			}
			out = append(out, Candidate{
				Meta: filter.Metadata{
					Title:        title,
					Description:  release.GetBody(),
					Filename:     asset.GetName(),
					ReleaseDate:  published,
					Channel:      channel,
					GameVersions: gversion.Collect(title, asset.GetName()),
				},
				Download: FromAsset(asset),
			})
		}
	}
	return out
}

// FromAsset converts one release asset into a download descriptor.
func FromAsset(asset *gh.ReleaseAsset) DownloadData {
	return DownloadData{
		URL:    asset.GetBrowserDownloadURL(),
		Output: asset.GetName(),
		Length: int64(asset.GetSize()),
	}
}

// ReleaseSource is the remote metadata boundary the resolver needs.
// github.Client satisfies it.
type ReleaseSource interface {
	ListReleases(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error)
	GetReleaseAsset(ctx context.Context, owner, repo string, assetID int64) (*gh.ReleaseAsset, error)
}

// Resolver produces exactly one DownloadData per mod, or fails.
type Resolver struct {
	source ReleaseSource
	engine *filter.Engine
	log    *zap.SugaredLogger
}

func NewResolver(source ReleaseSource, engine *filter.Engine, log *zap.SugaredLogger) *Resolver {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{source: source, engine: engine, log: log}
}

// FetchDownloadFile resolves the latest compatible download for a mod.
// Pinned mods skip filtering entirely and fetch their exact asset. For the
// rest, mod-level filters replace the profile's when OverrideFilters is
// set, otherwise they are appended after the profile's (both must pass).
func (r *Resolver) FetchDownloadFile(ctx context.Context, m *db.Mod, profileFilters filter.List) (*DownloadData, error) {
	if m.Pinned() {
		asset, err := r.source.GetReleaseAsset(ctx, m.Owner, m.Repo, m.AssetID)
		if err != nil {
			return nil, fmt.Errorf("github: %w", err)
		}
		if asset.GetBrowserDownloadURL() == "" {
			return nil, ErrDistributionDenied
		}
		dd := FromAsset(asset)
		return &dd, nil
	}

	releases, err := r.source.ListReleases(ctx, m.Owner, m.Repo)
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	candidates := FromReleases(releases)
	if len(candidates) == 0 {
		return nil, ErrDoesNotExist
	}

	modFilters, err := m.FilterList()
	if err != nil {
		return nil, err
	}
	filters := modFilters
	if !m.OverrideFilters {
		filters = append(append(filter.List{}, profileFilters...), modFilters...)
	}

	metas := make([]*filter.Metadata, len(candidates))
	for i := range candidates {
		metas[i] = &candidates[i].Meta
	}
	idx, err := r.engine.SelectLatest(ctx, metas, filters)
	if err != nil {
		return nil, &IncompatibleError{Err: err}
	}

	r.log.Debugw("resolved mod",
		zap.String("mod", m.Identifier()),
		zap.String("filename", candidates[idx].Download.Filename()),
	)
	dd := candidates[idx].Download
	return &dd, nil
}
