package resolve

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"spt-mod-manager/db"
	"spt-mod-manager/filter"
)

// DefaultMaxConcurrent is the resolution concurrency cap used when the
// configuration does not override it.
const DefaultMaxConcurrent = 8

// Fetcher resolves one mod to a download. Satisfied by *Resolver.
type Fetcher interface {
	FetchDownloadFile(ctx context.Context, m *db.Mod, profileFilters filter.List) (*DownloadData, error)
}

// Outcome is the result of one mod's resolution.
type Outcome struct {
	Mod      db.Mod
	Download *DownloadData // nil when Err is set
	Err      error
}

// Orchestrator fans resolution out across a profile's mods. All tasks share
// a single weighted semaphore, so the cap applies across the whole run, not
// per task.
type Orchestrator struct {
	fetcher Fetcher
	sem     *semaphore.Weighted
	log     *zap.SugaredLogger
}

func NewOrchestrator(fetcher Fetcher, maxConcurrent int64, log *zap.SugaredLogger) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		fetcher: fetcher,
		sem:     semaphore.NewWeighted(maxConcurrent),
		log:     log,
	}
}

// Resolve spawns one resolution task per mod and collects outcomes as they
// complete; output order is completion order, not input order. A task's
// failure never aborts the batch: the failed mod simply yields no download
// and the returned flag reports that at least one mod failed. The report
// callback, when non-nil, is invoked serially per outcome.
func (o *Orchestrator) Resolve(ctx context.Context, profileFilters filter.List, mods []db.Mod, report func(Outcome)) ([]DownloadData, bool) {
	outcomes := make(chan Outcome, len(mods))

	for i := range mods {
		go func(m db.Mod) {
			dd, err := o.resolveOne(ctx, &m, profileFilters)
			outcomes <- Outcome{Mod: m, Download: dd, Err: err}
		}(mods[i])
	}

	var downloads []DownloadData
	anyFailed := false
	for range mods {
		out := <-outcomes
		if out.Err != nil {
			anyFailed = true
			o.log.Warnw("mod resolution failed",
				zap.String("mod", out.Mod.Name),
				zap.Error(out.Err),
			)
		} else {
			downloads = append(downloads, *out.Download)
		}
		if report != nil {
			report(out)
		}
	}
	return downloads, anyFailed
}

// resolveOne holds a semaphore permit for the duration of one fetch. The
// permit is released on every exit path, so a cancelled or failed task
// never leaks capacity from the shared pool.
func (o *Orchestrator) resolveOne(ctx context.Context, m *db.Mod, profileFilters filter.List) (*DownloadData, error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)
	return o.fetcher.FetchDownloadFile(ctx, m, profileFilters)
}
