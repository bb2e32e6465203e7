// Package github wraps the GitHub REST API surface the mod manager needs:
// listing a repository's releases and fetching single release assets.
package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"
)

const releasesPerPage = 30

// Client is a thin wrapper around the go-github REST client.
type Client struct {
	rest *gh.Client
	log  *zap.SugaredLogger
}

// NewClient builds a client. An empty token gives unauthenticated access
// with GitHub's lower rate limits, which is enough for small profiles.
func NewClient(token string, log *zap.SugaredLogger) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	rest := gh.NewClient(nil)
	if token != "" {
		rest = rest.WithAuthToken(token)
	}
	return &Client{rest: rest, log: log}
}

// ListReleases returns the repository's releases in the order the API
// provides them (newest first).
func (c *Client) ListReleases(ctx context.Context, owner, repo string) ([]*gh.RepositoryRelease, error) {
	c.log.Debugw("listing releases", zap.String("owner", owner), zap.String("repo", repo))
	releases, _, err := c.rest.Repositories.ListReleases(ctx, owner, repo, &gh.ListOptions{
		PerPage: releasesPerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("listing releases for %s/%s: %w", owner, repo, err)
	}
	return releases, nil
}

// GetReleaseAsset fetches one asset by id, used for pinned mods.
func (c *Client) GetReleaseAsset(ctx context.Context, owner, repo string, assetID int64) (*gh.ReleaseAsset, error) {
	c.log.Debugw("fetching pinned asset",
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.Int64("asset_id", assetID),
	)
	asset, _, err := c.rest.Repositories.GetReleaseAsset(ctx, owner, repo, assetID)
	if err != nil {
		return nil, fmt.Errorf("fetching asset %d for %s/%s: %w", assetID, owner, repo, err)
	}
	return asset, nil
}
