// Package recon turns raw catalog records into processed rows and keeps
// them consistent as async detail fetches resolve. A row's Special flag is
// recomputed here on every mutation of its inputs; nothing else may set it.
package recon

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"planscope/internal/cache"
	"planscope/internal/cancelctl"
	"planscope/internal/domain"
	"planscope/internal/remote"
	"planscope/internal/status"
)

// Fetcher is the slice of the remote client the engine needs.
type Fetcher interface {
	QueryPrimary(ctx context.Context, q remote.PrimaryQuery) ([]domain.RawRecord, error)
	QueryDetail(ctx context.Context, planCode string) (string, error)
	QueryChannels(ctx context.Context, planCode string) ([]domain.ChannelRecord, error)
}

type Engine struct {
	Fetcher Fetcher
	Cache   *cache.Store
	Today   time.Time
	Logger  *zap.Logger
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Ingest maps raw records 1:1 onto processed rows, preserving input order
// and assigning sequence numbers 1..N. Detail fields start as a loading
// placeholder; error sentinel records come out dashed, keeping only the plan
// code and the status note.
func (e *Engine) Ingest(raw []domain.RawRecord) []*domain.ProcessedRow {
	rows := make([]*domain.ProcessedRow, 0, len(raw))
	for i, r := range raw {
		if r.IsErrorRow {
			rows = append(rows, errorRow(i+1, r.PlanCode, r.APIStatus))
			continue
		}

		row := &domain.ProcessedRow{
			Seq:        i + 1,
			PlanCode:   r.PlanCode,
			Name:       r.PlanName,
			Currency:   domain.CurrencyLabel(r.Currency),
			Unit:       domain.UnitLabel(r.PremiumUnit),
			Coverage:   domain.CoverageLabel(r.CoverageType),
			SaleStart:  r.SaleStartDate,
			SaleEnd:    r.SaleEndDate,
			MainStatus: status.Classify(e.Today, r.SaleStartDate, r.SaleEndDate),
			DetailText: domain.DetailLoading,
			Loading:    true,
		}
		row.Special = status.Special(row.MainStatus, row.SaleStart, row.SaleEnd, row.Channels)
		rows = append(rows, row)
	}
	return rows
}

// Hydrate fetches the row's detail text and channel windows as two
// concurrent sub-requests, through the cache unless force is set. A failed
// sub-request degrades the row (failed marker, empty channels) but still
// clears the loading flag; only cancellation unwinds. Mutates row in place.
func (e *Engine) Hydrate(ctx context.Context, row *domain.ProcessedRow, force bool) error {
	if row.IsErrorRow {
		row.Loading = false
		return nil
	}
	if ctx.Err() != nil {
		return cancelctl.ErrAborted
	}

	var detail string
	var channels []domain.ChannelRecord
	var detailErr, chanErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail, detailErr = e.fetchDetail(gctx, row.PlanCode, force)
		if cancelctl.IsAborted(detailErr) {
			return detailErr
		}
		return nil
	})
	g.Go(func() error {
		channels, chanErr = e.fetchChannels(gctx, row.PlanCode, force)
		if cancelctl.IsAborted(chanErr) {
			return chanErr
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return cancelctl.ErrAborted
	}

	if detailErr != nil {
		e.logger().Warn("detail fetch failed",
			zap.String("planCode", row.PlanCode), zap.Error(detailErr))
		row.DetailText = domain.DetailFailed
	} else {
		row.DetailText = detail
	}

	views := make([]domain.ChannelView, 0, len(channels))
	if chanErr != nil {
		e.logger().Warn("channel fetch failed",
			zap.String("planCode", row.PlanCode), zap.Error(chanErr))
	} else {
		for _, ch := range channels {
			views = append(views, domain.ChannelView{
				Code:   domain.NormalizeChannel(ch.Channel),
				Start:  ch.SaleStartDate,
				End:    ch.SaleEndDate,
				Status: status.Classify(e.Today, ch.SaleStartDate, ch.SaleEndDate),
			})
		}
	}
	row.Channels = views
	row.Special = status.Special(row.MainStatus, row.SaleStart, row.SaleEnd, row.Channels)
	row.Loading = false
	return nil
}

// RetryRow re-runs the primary lookup for one plan code, replacing the row's
// fields in place when data is found. Used on error sentinel rows; an
// ordinary row can be retried too, which acts as a single-row requery.
func (e *Engine) RetryRow(ctx context.Context, row *domain.ProcessedRow) error {
	recs, err := e.Fetcher.QueryPrimary(ctx, remote.PrimaryQuery{PlanCode: row.PlanCode})
	if cancelctl.IsAborted(err) {
		return cancelctl.ErrAborted
	}
	if err != nil {
		row.StatusNote = domain.NoteQueryFailed
		return nil
	}
	if len(recs) == 0 {
		row.StatusNote = domain.NoteNotFound
		return nil
	}

	r := recs[0]
	seq := row.Seq
	*row = domain.ProcessedRow{
		Seq:        seq,
		PlanCode:   r.PlanCode,
		Name:       r.PlanName,
		Currency:   domain.CurrencyLabel(r.Currency),
		Unit:       domain.UnitLabel(r.PremiumUnit),
		Coverage:   domain.CoverageLabel(r.CoverageType),
		SaleStart:  r.SaleStartDate,
		SaleEnd:    r.SaleEndDate,
		MainStatus: status.Classify(e.Today, r.SaleStartDate, r.SaleEndDate),
		DetailText: domain.DetailLoading,
		Loading:    true,
	}
	return e.Hydrate(ctx, row, false)
}

func (e *Engine) fetchDetail(ctx context.Context, planCode string, force bool) (string, error) {
	if !force {
		if v, ok := e.Cache.Detail(planCode); ok {
			return v, nil
		}
	}
	v, err := e.Fetcher.QueryDetail(ctx, planCode)
	if err != nil {
		return "", err
	}
	// A forced refresh still writes back, so later unforced reads benefit.
	e.Cache.SetDetail(planCode, v)
	return v, nil
}

func (e *Engine) fetchChannels(ctx context.Context, planCode string, force bool) ([]domain.ChannelRecord, error) {
	if !force {
		if v, ok := e.Cache.Channels(planCode); ok {
			return v, nil
		}
	}
	v, err := e.Fetcher.QueryChannels(ctx, planCode)
	if err != nil {
		return nil, err
	}
	e.Cache.SetChannels(planCode, v)
	return v, nil
}

func errorRow(seq int, planCode, note string) *domain.ProcessedRow {
	return &domain.ProcessedRow{
		Seq:        seq,
		PlanCode:   planCode,
		Name:       "-",
		Currency:   "-",
		Unit:       "-",
		Coverage:   "-",
		SaleStart:  "-",
		SaleEnd:    "-",
		MainStatus: domain.StatusAbnormal,
		DetailText: "-",
		IsErrorRow: true,
		StatusNote: note,
	}
}
