// Package refresh owns the most recently built dashboard model and the
// lifecycle that replaces it: fetch the raw snapshot, fall back to the
// baseline fixture on failure, build, record history, publish.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/logger"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// ErrSnapshotUnavailable is returned when the snapshot cannot be retrieved
// and no baseline is configured.
var ErrSnapshotUnavailable = errors.New("snapshot unavailable")

// DefaultTimeout bounds one refresh, fetch through history write.
const DefaultTimeout = 30 * time.Second

// Refresh outcomes reported to the Observer.
const (
	OutcomeLive     = "live"
	OutcomeBaseline = "baseline"
	OutcomeError    = "error"
)

// Fetcher retrieves the raw snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*snapshot.Snapshot, error)
	Location() string
}

// History stores headline KPI values between refreshes and supplies them
// back as provided trend series.
type History interface {
	Append(ctx context.Context, date string, values map[string]float64) error
	Recent(ctx context.Context, n int) (map[string][]snapshot.Point, error)
}

// Observer is notified after every refresh attempt. model is nil when the
// outcome is OutcomeError.
type Observer interface {
	ObserveRefresh(outcome string, elapsed time.Duration, model *dashboard.Model)
}

// Options configures a Cache.
type Options struct {
	Engine  *dashboard.Engine
	Fetcher Fetcher
	// Baseline supplies the fallback snapshot. Nil disables the fallback.
	Baseline func() *snapshot.Snapshot
	History  History
	Observer Observer
	Logger   *zap.Logger
	Now      func() time.Time
	// Timeout bounds each refresh. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Cache holds the current dashboard model. Refreshes are serialized:
// concurrent callers share the single in-flight refresh.
type Cache struct {
	opts  Options
	log   *zap.Logger
	group singleflight.Group

	mu    sync.RWMutex
	model *dashboard.Model
	snap  *snapshot.Snapshot
}

// New creates an empty cache. The first Get triggers a refresh.
func New(opts Options) *Cache {
	if opts.Engine == nil {
		opts.Engine = dashboard.NewEngine(dashboard.DefaultOptions())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Cache{opts: opts, log: logger.OrNop(opts.Logger)}
}

// Get returns the cached model, refreshing first if the cache is empty.
func (c *Cache) Get(ctx context.Context) (*dashboard.Model, error) {
	if m := c.Current(); m != nil {
		return m, nil
	}
	return c.Refresh(ctx)
}

// Current returns the cached model without refreshing, or nil.
func (c *Cache) Current() *dashboard.Model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// Snapshot returns the raw snapshot behind the cached model, or nil.
func (c *Cache) Snapshot() *snapshot.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Invalidate drops the cached model and snapshot.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.model = nil
	c.snap = nil
	c.mu.Unlock()
	c.log.Info("dashboard cache invalidated")
}

// Refresh rebuilds the model from a fresh snapshot. On retrieval failure
// the baseline is used; without a baseline the previous model is kept and
// ErrSnapshotUnavailable is returned.
//
// The shared refresh runs detached from ctx, bounded by Options.Timeout:
// a caller that gives up gets ctx.Err() while the refresh completes for
// everyone else.
func (c *Cache) Refresh(ctx context.Context) (*dashboard.Model, error) {
	ch := c.group.DoChan("refresh", func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.Timeout)
		defer cancel()
		return c.refresh(rctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.log.Debug("joined in-flight refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*dashboard.Model), nil
	}
}

func (c *Cache) refresh(ctx context.Context) (*dashboard.Model, error) {
	start := c.opts.Now()
	refreshID := uuid.New().String()
	log := c.log.With(zap.String("refresh_id", refreshID))

	outcome := OutcomeLive
	snap, fetchErr := c.fetch(ctx)
	if fetchErr != nil {
		if c.opts.Baseline == nil {
			log.Error("snapshot retrieval failed", zap.Error(fetchErr))
			c.observe(OutcomeError, start, nil)
			return nil, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, fetchErr)
		}
		log.Warn("snapshot retrieval failed, using baseline", zap.Error(fetchErr))
		snap = c.opts.Baseline()
		outcome = OutcomeBaseline
	}

	input := c.withHistory(ctx, log, snap)
	model := c.opts.Engine.Build(input, start)
	model.Provenance.RefreshID = refreshID
	model.Provenance.Source = outcome
	if fetchErr != nil {
		model.Provenance.SourceError = fetchErr.Error()
	}
	if model.Provenance.DataSource == "" && c.opts.Fetcher != nil && outcome == OutcomeLive {
		model.Provenance.DataSource = c.opts.Fetcher.Location()
	}

	if c.opts.History != nil && outcome == OutcomeLive {
		if err := c.opts.History.Append(ctx, start.UTC().Format(snapshot.DateLayout), HeadlineValues(model)); err != nil {
			log.Warn("recording KPI history failed", zap.Error(err))
		}
	}

	c.mu.Lock()
	c.model = model
	c.snap = snap
	c.mu.Unlock()

	c.observe(outcome, start, model)
	log.Info("dashboard refreshed",
		zap.String("source", outcome),
		zap.Float64("dqi", model.ExecutiveKPIs.DQI.Current),
		zap.String("readiness", string(model.ExecutiveKPIs.ReadinessStatus.Current)),
		zap.Duration("elapsed", c.opts.Now().Sub(start)),
	)
	return model, nil
}

func (c *Cache) fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	if c.opts.Fetcher == nil {
		return nil, errors.New("no snapshot source configured")
	}
	return c.opts.Fetcher.Fetch(ctx)
}

// withHistory fills trend series the snapshot does not carry from the
// history store. A legacy dqiTrend counts as the snapshot's dqi series.
// The snapshot itself is not modified.
func (c *Cache) withHistory(ctx context.Context, log *zap.Logger, snap *snapshot.Snapshot) *snapshot.Snapshot {
	if c.opts.History == nil {
		return snap
	}
	n := c.opts.Engine.Options().HistoryLength
	recent, err := c.opts.History.Recent(ctx, n)
	if err != nil {
		log.Warn("loading KPI history failed", zap.Error(err))
		return snap
	}
	if len(recent) == 0 {
		return snap
	}

	merged := make(map[string][]snapshot.Point, len(snap.Trends)+len(recent))
	for name, series := range recent {
		if name == dashboard.SeriesDQI && len(snap.DQITrend) > 0 {
			continue
		}
		merged[name] = series
	}
	for name, series := range snap.Trends {
		merged[name] = series
	}
	out := *snap
	out.Trends = merged
	return &out
}

func (c *Cache) observe(outcome string, start time.Time, model *dashboard.Model) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveRefresh(outcome, c.opts.Now().Sub(start), model)
	}
}

// HeadlineValues extracts the KPI values recorded in history, keyed by
// trend series name.
func HeadlineValues(m *dashboard.Model) map[string]float64 {
	k := m.ExecutiveKPIs
	return map[string]float64{
		dashboard.SeriesDQI:             k.DQI.Current,
		dashboard.SeriesQueryResolution: k.QueryResolution.Current,
		dashboard.SeriesCleanPatients:   k.CleanPatients.Current,
		dashboard.SeriesOpenSAEs:        k.OpenSAEs.Current,
		dashboard.SeriesSitesAtRisk:     k.SitesAtRisk.Current,
		dashboard.SeriesOpenQueries:     float64(m.Bottlenecks.Queries.Outstanding),
	}
}
