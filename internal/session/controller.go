// Package session owns the query lifecycle: criteria validation, the
// cancel-previous token handoff, cache reset, primary resolution, ingestion,
// the detail fan-out, and the view projection over the current rows. All
// per-query mutable state lives in one State value, never in package
// globals, so an overlapping query can never corrupt a prior one's rows.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"planscope/internal/batch"
	"planscope/internal/cache"
	"planscope/internal/cancelctl"
	"planscope/internal/config"
	"planscope/internal/domain"
	"planscope/internal/recon"
	"planscope/internal/remote"
	"planscope/internal/view"
)

// Callbacks is the surface the presentation layer subscribes to. Progress
// and row updates arrive serialized; a callback is never invoked
// concurrently with itself or the other.
type Callbacks struct {
	OnProgress   func(percent float64, label string)
	OnRowUpdated func(index int)
}

// State is the per-query session: criteria, the raw-record buffer (kept to
// support forced re-fetch of details), the processed rows, and the date the
// whole query classifies against.
type State struct {
	QueryID  uuid.UUID
	Criteria domain.QueryCriteria
	Raw      []domain.RawRecord
	Rows     []*domain.ProcessedRow
	Today    time.Time
}

type Controller struct {
	cfg       config.Config
	logger    *zap.Logger
	fetcher   recon.Fetcher
	cache     *cache.Store
	callbacks Callbacks

	validate *validator.Validate
	tokens   cancelctl.Controller

	mu    sync.Mutex
	state *State

	// cbMu serializes callback delivery. It is distinct from mu so a
	// callback can call Project or State without deadlocking its own
	// hydration worker.
	cbMu sync.Mutex
}

func NewController(cfg config.Config, logger *zap.Logger, fetcher recon.Fetcher, cb Callbacks) (*Controller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := cache.New(cfg.CacheMaxEntries)
	if err != nil {
		return nil, err
	}
	return &Controller{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetcher,
		cache:     store,
		callbacks: cb,
		validate:  validator.New(),
	}, nil
}

// Run executes one full query. It cancels any previous query's token first,
// so at most one query's network activity is live. On cancellation it
// returns the partially-hydrated state together with cancelctl.ErrAborted;
// rows hydrated before the abort keep their data.
func (c *Controller) Run(ctx context.Context, criteria domain.QueryCriteria) (*State, error) {
	if err := c.checkCriteria(&criteria); err != nil {
		return nil, err
	}

	qctx := c.tokens.Begin(ctx)
	c.cache.Clear()

	st := &State{
		QueryID:  uuid.New(),
		Criteria: criteria,
		Today:    time.Now(),
	}
	engine := &recon.Engine{
		Fetcher: c.fetcher,
		Cache:   c.cache,
		Today:   st.Today,
		Logger:  c.logger,
	}

	c.logger.Info("query started",
		zap.String("queryId", st.QueryID.String()),
		zap.String("mode", string(criteria.Mode)))

	raw, err := c.resolvePrimary(qctx, criteria)
	if err != nil {
		return nil, err
	}
	st.Raw = raw
	st.Rows = engine.Ingest(raw)

	c.setState(st)
	c.progress(0, "明細讀取")

	if err := c.hydrateAll(qctx, engine, st.Rows, false); err != nil {
		return st, err
	}

	c.logger.Info("query finished",
		zap.String("queryId", st.QueryID.String()),
		zap.Int("rows", len(st.Rows)))
	return st, nil
}

// Refresh re-hydrates every row of the current session bypassing the cache.
// Fresh results overwrite cache entries, so later reads see the refresh.
func (c *Controller) Refresh(ctx context.Context) error {
	st := c.State()
	if st == nil {
		return fmt.Errorf("no active session")
	}

	qctx := c.tokens.Begin(ctx)
	engine := &recon.Engine{
		Fetcher: c.fetcher,
		Cache:   c.cache,
		Today:   st.Today,
		Logger:  c.logger,
	}
	return c.hydrateAll(qctx, engine, st.Rows, true)
}

// RetryRow re-runs the primary lookup for one row, normally an error
// sentinel. The row is replaced in place on success, or keeps an updated
// status note.
func (c *Controller) RetryRow(ctx context.Context, index int) error {
	st := c.State()
	if st == nil {
		return fmt.Errorf("no active session")
	}
	if index < 0 || index >= len(st.Rows) {
		return fmt.Errorf("row index %d out of range", index)
	}

	// Tie the retry to the live query token so a new query unwinds it, but
	// never cancel that token: the session's other rows stay untouched.
	if tok := c.tokens.Active(); tok != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(tok, cancel)
		defer stop()
	}

	engine := &recon.Engine{
		Fetcher: c.fetcher,
		Cache:   c.cache,
		Today:   st.Today,
		Logger:  c.logger,
	}
	if err := engine.RetryRow(ctx, st.Rows[index]); err != nil {
		return err
	}
	c.notifyRow(index)
	return nil
}

// Cancel aborts the live query, if any. In-flight batches observe the token
// at their next checkpoint and unwind.
func (c *Controller) Cancel() {
	c.tokens.CancelActive()
}

// Project computes the current page over the session's rows.
func (c *Controller) Project(o view.Options) view.Result {
	st := c.State()
	if st == nil {
		return view.Project(nil, o)
	}
	return view.Project(st.Rows, o)
}

// State returns the current session, nil before the first query.
func (c *Controller) State() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(st *State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
}

func (c *Controller) checkCriteria(criteria *domain.QueryCriteria) error {
	if err := c.validate.Struct(criteria); err != nil {
		return fmt.Errorf("invalid criteria: %w", err)
	}

	switch criteria.Mode {
	case domain.ModePlanCodes:
		if len(criteria.PlanCodes) == 0 {
			criteria.PlanCodes = ParsePlanCodes(criteria.FreeText)
		}
		if len(criteria.PlanCodes) == 0 {
			return fmt.Errorf("invalid criteria: plan_codes mode needs at least one plan code")
		}
	case domain.ModeChannels, domain.ModeStoppedChannels:
		if len(criteria.ChannelSelection) == 0 {
			return fmt.Errorf("invalid criteria: %s mode needs at least one channel", criteria.Mode)
		}
	}
	if criteria.Mode == domain.ModeStoppedChannels && criteria.StopStrategy == "" {
		criteria.StopStrategy = domain.StopStrategyAllMinusActive
	}
	return nil
}

// ParsePlanCodes splits the operator's free-text plan-code input on commas,
// semicolons and whitespace, de-duplicating while keeping first-seen order.
func ParsePlanCodes(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		code := strings.ToUpper(strings.TrimSpace(f))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func (c *Controller) progress(percent float64, label string) {
	if c.callbacks.OnProgress == nil {
		return
	}
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.callbacks.OnProgress(percent, label)
}

func (c *Controller) notifyRow(index int) {
	if c.callbacks.OnRowUpdated == nil {
		return
	}
	c.cbMu.Lock()
	defer c.cbMu.Unlock()
	c.callbacks.OnRowUpdated(index)
}

// resolvePrimary produces the raw record set for the criteria. Bulk mode is
// a single call whose failure surfaces to the caller; the fan-out modes
// isolate per-item failures into error sentinel records.
func (c *Controller) resolvePrimary(ctx context.Context, criteria domain.QueryCriteria) ([]domain.RawRecord, error) {
	switch criteria.Mode {
	case domain.ModeAll:
		recs, err := c.fetcher.QueryPrimary(ctx, remote.PrimaryQuery{})
		if err != nil {
			return nil, err
		}
		return recs, nil

	case domain.ModePlanCodes:
		groups, err := batch.Run(ctx, criteria.PlanCodes, c.cfg.PrimaryBatchSize,
			func(ctx context.Context, code string) ([]domain.RawRecord, error) {
				return c.lookupOne(ctx, remote.PrimaryQuery{PlanCode: code}, code)
			},
			c.batchProgress("險種查詢"))
		if err != nil {
			return nil, err
		}
		return flatten(groups), nil

	case domain.ModeChannels:
		groups, err := batch.Run(ctx, criteria.ChannelSelection, c.cfg.PrimaryBatchSize,
			func(ctx context.Context, ch string) ([]domain.RawRecord, error) {
				return c.lookupOne(ctx, remote.PrimaryQuery{Channel: ch}, ch)
			},
			c.batchProgress("通路查詢"))
		if err != nil {
			return nil, err
		}
		return dedupeByPlanCode(flatten(groups)), nil

	case domain.ModeStoppedChannels:
		groups, err := batch.Run(ctx, criteria.ChannelSelection, c.cfg.PrimaryBatchSize,
			func(ctx context.Context, ch string) ([]domain.RawRecord, error) {
				return c.lookupStopped(ctx, ch, criteria.StopStrategy)
			},
			c.batchProgress("停售通路查詢"))
		if err != nil {
			return nil, err
		}
		return dedupeByPlanCode(flatten(groups)), nil

	default:
		return nil, fmt.Errorf("invalid criteria: unknown mode %q", criteria.Mode)
	}
}

// lookupOne is the fan-out worker for one key: a remote failure becomes an
// error sentinel record instead of rejecting, so siblings keep going;
// cancellation still rejects so the whole run unwinds.
func (c *Controller) lookupOne(ctx context.Context, q remote.PrimaryQuery, key string) ([]domain.RawRecord, error) {
	recs, err := c.fetcher.QueryPrimary(ctx, q)
	if cancelctl.IsAborted(err) {
		return nil, err
	}
	if err != nil {
		c.logger.Warn("primary lookup failed", zap.String("key", key), zap.Error(err))
		return []domain.RawRecord{domain.ErrorRecord(key, domain.NoteQueryFailed)}, nil
	}
	if len(recs) == 0 {
		return []domain.RawRecord{domain.ErrorRecord(key, domain.NoteNotFound)}, nil
	}
	return recs, nil
}

// lookupStopped resolves the no-longer-sellable set for one channel using
// the selected strategy.
func (c *Controller) lookupStopped(ctx context.Context, ch string, strategy domain.StopStrategy) ([]domain.RawRecord, error) {
	switch strategy {
	case domain.StopStrategyOpenEndFilter:
		empty := ""
		return c.lookupOne(ctx, remote.PrimaryQuery{Channel: ch, SaleEndDate: &empty}, ch)

	default: // all minus active
		all, err := c.fetcher.QueryPrimary(ctx, remote.PrimaryQuery{Channel: ch})
		if cancelctl.IsAborted(err) {
			return nil, err
		}
		if err != nil {
			return []domain.RawRecord{domain.ErrorRecord(ch, domain.NoteQueryFailed)}, nil
		}

		active, err := c.fetcher.QueryPrimary(ctx, remote.PrimaryQuery{Channel: ch, ActiveOnly: true})
		if cancelctl.IsAborted(err) {
			return nil, err
		}
		if err != nil {
			return []domain.RawRecord{domain.ErrorRecord(ch, domain.NoteQueryFailed)}, nil
		}

		activeSet := make(map[string]struct{}, len(active))
		for _, r := range active {
			activeSet[r.PlanCode] = struct{}{}
		}
		stopped := make([]domain.RawRecord, 0, len(all))
		for _, r := range all {
			if _, ok := activeSet[r.PlanCode]; !ok {
				stopped = append(stopped, r)
			}
		}
		if len(stopped) == 0 {
			return []domain.RawRecord{domain.ErrorRecord(ch, domain.NoteNotFound)}, nil
		}
		return stopped, nil
	}
}

func (c *Controller) hydrateAll(ctx context.Context, engine *recon.Engine, rows []*domain.ProcessedRow, force bool) error {
	indexes := make([]int, len(rows))
	for i := range rows {
		indexes[i] = i
	}

	_, err := batch.Run(ctx, indexes, c.cfg.DetailBatchSize,
		func(ctx context.Context, i int) (struct{}, error) {
			if err := engine.Hydrate(ctx, rows[i], force); err != nil {
				return struct{}{}, err
			}
			// Partial re-render per row; callers must not wait for the
			// whole fan-out to repaint.
			c.notifyRow(i)
			return struct{}{}, nil
		},
		c.batchProgress("明細讀取"))
	return err
}

func (c *Controller) batchProgress(label string) batch.ProgressFunc {
	return func(percent float64, detail string) {
		c.progress(percent, label+" "+detail)
	}
}

func flatten(groups [][]domain.RawRecord) []domain.RawRecord {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]domain.RawRecord, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// dedupeByPlanCode keeps the first occurrence of each plan, so a plan sold
// on several queried channels renders once.
func dedupeByPlanCode(recs []domain.RawRecord) []domain.RawRecord {
	seen := make(map[string]struct{}, len(recs))
	out := make([]domain.RawRecord, 0, len(recs))
	for _, r := range recs {
		if !r.IsErrorRow {
			if _, dup := seen[r.PlanCode]; dup {
				continue
			}
			seen[r.PlanCode] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
