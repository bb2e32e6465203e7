package resolve

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gh "github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spt-mod-manager/db"
	"spt-mod-manager/filter"
)

func release(name string, prerelease bool, assets ...*gh.ReleaseAsset) *gh.RepositoryRelease {
	return &gh.RepositoryRelease{
		Name:        gh.Ptr(name),
		TagName:     gh.Ptr(name),
		Body:        gh.Ptr("release body"),
		Prerelease:  gh.Ptr(prerelease),
		PublishedAt: &gh.Timestamp{Time: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		Assets:      assets,
	}
}

func asset(id int64, name, url string, size int) *gh.ReleaseAsset {
	return &gh.ReleaseAsset{
		ID:                 gh.Ptr(id),
		Name:               gh.Ptr(name),
		BrowserDownloadURL: gh.Ptr(url),
		Size:               gh.Ptr(size),
	}
}

func TestFromReleases(t *testing.T) {
	releases := []*gh.RepositoryRelease{
		release("MyMod 1.2.0 for SPT 3.11", false,
			asset(1, "MyMod-1.2.0.zip", "https://example.com/MyMod-1.2.0.zip", 1024),
			asset(2, "MyMod-source.tar.gz", "https://example.com/source.tar.gz", 99),
		),
		release("MyMod 1.1.0 for SPT 3.10", true,
			asset(3, "MyMod-1.1.0.7z", "https://example.com/MyMod-1.1.0.7z", 512),
		),
	}

	candidates := FromReleases(releases)
	require.Len(t, candidates, 2, "non-archive assets are not candidates")

	first := candidates[0]
	assert.Equal(t, "MyMod-1.2.0.zip", first.Meta.Filename)
	assert.Equal(t, filter.ChannelRelease, first.Meta.Channel)
	assert.Equal(t, []string{"3.11"}, first.Meta.GameVersions)
	assert.Equal(t, "https://example.com/MyMod-1.2.0.zip", first.Download.URL)
	assert.Equal(t, int64(1024), first.Download.Length)

	second := candidates[1]
	assert.Equal(t, filter.ChannelBeta, second.Meta.Channel)
	assert.Equal(t, []string{"3.10"}, second.Meta.GameVersions)
	assert.Equal(t, "MyMod-1.1.0.7z", second.Download.Output)
}

type fakeSource struct {
	releases []*gh.RepositoryRelease
	asset    *gh.ReleaseAsset
	err      error

	mu          sync.Mutex
	listedRepos []string
	fetchedPins []int64
}

func (s *fakeSource) ListReleases(_ context.Context, owner, repo string) ([]*gh.RepositoryRelease, error) {
	s.mu.Lock()
	s.listedRepos = append(s.listedRepos, owner+"/"+repo)
	s.mu.Unlock()
	return s.releases, s.err
}

func (s *fakeSource) GetReleaseAsset(_ context.Context, _, _ string, assetID int64) (*gh.ReleaseAsset, error) {
	s.mu.Lock()
	s.fetchedPins = append(s.fetchedPins, assetID)
	s.mu.Unlock()
	return s.asset, s.err
}

func testMod(name string) *db.Mod {
	return &db.Mod{Name: name, Owner: "owner", Repo: name, Enabled: true}
}

func TestFetchDownloadFilePinnedSkipsFilters(t *testing.T) {
	src := &fakeSource{asset: asset(42, "pinned.zip", "https://example.com/pinned.zip", 7)}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	m := testMod("mymod")
	m.AssetID = 42

	// Filters that would reject everything must not matter for a pin.
	dd, err := r.FetchDownloadFile(context.Background(), m, filter.List{filter.GameVersionStrict("9.9")})
	require.NoError(t, err)
	assert.Equal(t, "pinned.zip", dd.Output)
	assert.Equal(t, []int64{42}, src.fetchedPins)
	assert.Empty(t, src.listedRepos)
}

func TestFetchDownloadFilePinnedDistributionDenied(t *testing.T) {
	src := &fakeSource{asset: asset(42, "pinned.zip", "", 7)}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	m := testMod("mymod")
	m.AssetID = 42

	_, err := r.FetchDownloadFile(context.Background(), m, nil)
	assert.ErrorIs(t, err, ErrDistributionDenied)
}

func TestFetchDownloadFileSelectsFirstCompatible(t *testing.T) {
	src := &fakeSource{releases: []*gh.RepositoryRelease{
		release("MyMod 2.0 for SPT 3.11", false, asset(1, "MyMod-2.0.zip", "https://example.com/2.0.zip", 1)),
		release("MyMod 1.9 for SPT 3.10", false, asset(2, "MyMod-1.9.zip", "https://example.com/1.9.zip", 1)),
		release("MyMod 1.8 for SPT 3.10", false, asset(3, "MyMod-1.8.zip", "https://example.com/1.8.zip", 1)),
	}}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	dd, err := r.FetchDownloadFile(context.Background(), testMod("mymod"), filter.List{filter.GameVersionStrict("3.10")})
	require.NoError(t, err)
	assert.Equal(t, "MyMod-1.9.zip", dd.Output)
}

func TestFetchDownloadFileIncompatible(t *testing.T) {
	src := &fakeSource{releases: []*gh.RepositoryRelease{
		release("MyMod for SPT 3.11", false, asset(1, "MyMod.zip", "https://example.com/m.zip", 1)),
	}}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	_, err := r.FetchDownloadFile(context.Background(), testMod("mymod"), filter.List{filter.GameVersionStrict("3.10")})

	var incompatible *IncompatibleError
	require.True(t, errors.As(err, &incompatible))
	var emptyErr *filter.EmptyFilterError
	assert.True(t, errors.As(incompatible.Err, &emptyErr))
}

func TestFetchDownloadFileNoArchives(t *testing.T) {
	src := &fakeSource{releases: []*gh.RepositoryRelease{
		release("source only", false, asset(1, "src.tar.gz", "https://example.com/src.tar.gz", 1)),
	}}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	_, err := r.FetchDownloadFile(context.Background(), testMod("mymod"), nil)
	assert.ErrorIs(t, err, ErrDoesNotExist)
}

func TestFetchDownloadFileOverrideFilters(t *testing.T) {
	src := &fakeSource{releases: []*gh.RepositoryRelease{
		release("MyMod for SPT 3.11", false, asset(1, "MyMod.zip", "https://example.com/m.zip", 1)),
	}}
	r := NewResolver(src, filter.NewEngine(nil, nil), nil)

	m := testMod("mymod")
	m.OverrideFilters = true
	require.NoError(t, m.SetFilterList(filter.List{filter.GameVersionStrict("3.11")}))

	// The profile filter would reject this release; the mod's override wins.
	dd, err := r.FetchDownloadFile(context.Background(), m, filter.List{filter.GameVersionStrict("3.10")})
	require.NoError(t, err)
	assert.Equal(t, "MyMod.zip", dd.Output)
}

type fakeFetcher struct {
	delay  time.Duration
	fail   map[string]bool
	active atomic.Int64
	peak   atomic.Int64
}

func (f *fakeFetcher) FetchDownloadFile(_ context.Context, m *db.Mod, _ filter.List) (*DownloadData, error) {
	cur := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		p := f.peak.Load()
		if cur <= p || f.peak.CompareAndSwap(p, cur) {
			break
		}
	}
	time.Sleep(f.delay)
	if f.fail[m.Name] {
		return nil, errors.New("boom")
	}
	return &DownloadData{URL: "https://example.com/" + m.Name, Output: m.Name + ".zip"}, nil
}

func TestOrchestratorCollectsPartialFailures(t *testing.T) {
	fetcher := &fakeFetcher{fail: map[string]bool{"bad": true}}
	o := NewOrchestrator(fetcher, 4, nil)

	mods := []db.Mod{*testMod("good1"), *testMod("bad"), *testMod("good2")}

	var reported int
	downloads, anyFailed := o.Resolve(context.Background(), nil, mods, func(Outcome) { reported++ })

	assert.True(t, anyFailed)
	assert.Len(t, downloads, 2)
	assert.Equal(t, 3, reported)
}

func TestOrchestratorRespectsConcurrencyCap(t *testing.T) {
	fetcher := &fakeFetcher{delay: 20 * time.Millisecond}
	o := NewOrchestrator(fetcher, 2, nil)

	mods := make([]db.Mod, 8)
	for i := range mods {
		mods[i] = *testMod(string(rune('a' + i)))
	}
	downloads, anyFailed := o.Resolve(context.Background(), nil, mods, nil)

	assert.False(t, anyFailed)
	assert.Len(t, downloads, 8)
	assert.LessOrEqual(t, fetcher.peak.Load(), int64(2))
}

func TestOrchestratorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	o := NewOrchestrator(fetcher, 1, nil)

	downloads, anyFailed := o.Resolve(ctx, nil, []db.Mod{*testMod("a")}, nil)
	assert.True(t, anyFailed)
	assert.Empty(t, downloads)
}
