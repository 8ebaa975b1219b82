package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/collector"
	"CryptoGraph/internal/model"
	"CryptoGraph/internal/recorder"
	"CryptoGraph/internal/report"
	"CryptoGraph/internal/search"
	"CryptoGraph/internal/selection"
	"CryptoGraph/internal/series"
)

// Deps are the collaborators of a Dashboard. Selection and Collector are required.
type Deps struct {
	Selection *selection.Set
	Buffer    *series.Buffer
	Collector *collector.Collector
	Advisor   advisor.Advisor
	Recorder  recorder.Recorder
	Log       logrus.FieldLogger
}

// Dashboard keeps the tracked price series in step with the selected coins.
type Dashboard struct {
	selection *selection.Set
	buffer    *series.Buffer
	search    *search.Filter
	collector *collector.Collector
	advisor   advisor.Advisor
	recorder  recorder.Recorder
	log       logrus.FieldLogger

	// selMu keeps each selection change and its buffer tracking change atomic,
	// so selected and tracked ids never diverge.
	selMu sync.Mutex

	mu    sync.RWMutex
	coins []model.Coin
	byID  map[string]model.Coin
}

// RefreshResult summarises one refresh tick.
type RefreshResult struct {
	Requested int
	Ingested  int
	Dropped   int
}

func New(d Deps) *Dashboard {
	if d.Buffer == nil {
		d.Buffer = series.NewBuffer()
	}
	if d.Advisor == nil {
		d.Advisor = advisor.Disabled{}
	}
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	db := &Dashboard{
		selection: d.Selection,
		buffer:    d.Buffer,
		search:    search.NewFilter(),
		collector: d.Collector,
		advisor:   d.Advisor,
		recorder:  d.Recorder,
		log:       d.Log,
		byID:      map[string]model.Coin{},
	}
	for _, id := range d.Selection.Snapshot() {
		db.buffer.StartTracking(id)
	}
	return db
}

// Toggle flips id in the selection and starts or stops tracking it.
// On selection.ErrOverflow nothing changes and the caller should offer the current members for removal.
func (d *Dashboard) Toggle(id string) (bool, error) {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	added, err := d.selection.Toggle(id)
	if err != nil {
		return false, err
	}
	id = strings.TrimSpace(id)
	if added {
		d.buffer.StartTracking(id)
		d.recordSelection(recorder.EventAdded, id)
	} else {
		d.buffer.StopTracking(id)
		d.recordSelection(recorder.EventRemoved, id)
	}
	return added, nil
}

func (d *Dashboard) Remove(id string) bool {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	if !d.selection.Remove(id) {
		return false
	}
	id = strings.TrimSpace(id)
	d.buffer.StopTracking(id)
	d.recordSelection(recorder.EventRemoved, id)
	return true
}

func (d *Dashboard) Clear() []string {
	d.selMu.Lock()
	defer d.selMu.Unlock()
	removed := d.selection.Clear()
	for _, id := range removed {
		d.buffer.StopTracking(id)
	}
	d.recordSelection(recorder.EventCleared, "")
	return removed
}

func (d *Dashboard) Selection() []string { return d.selection.Snapshot() }

func (d *Dashboard) recordSelection(kind, id string) {
	evt := &recorder.SelectionEvent{EventType: kind, CoinID: id, Members: d.selection.Snapshot()}
	if err := d.recorder.RecordSelection(evt); err != nil {
		d.log.WithError(err).WithField("event", kind).Warn("failed to record selection event")
	}
}

// SetCoins replaces the market catalog used for search and symbol lookup.
func (d *Dashboard) SetCoins(coins []model.Coin) {
	byID := make(map[string]model.Coin, len(coins))
	for _, c := range coins {
		byID[c.ID] = c
	}
	d.mu.Lock()
	d.coins = coins
	d.byID = byID
	d.mu.Unlock()
}

func (d *Dashboard) Coins() []model.Coin {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]model.Coin, len(d.coins))
	copy(out, d.coins)
	return out
}

func (d *Dashboard) Coin(id string) (model.Coin, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.byID[id]
	return c, ok
}

// FilteredCoins applies the current search query to the catalog.
func (d *Dashboard) FilteredCoins() []model.Coin {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.search.Apply(d.coins)
}

func (d *Dashboard) Search() *search.Filter { return d.search }

// RefreshCoins reloads the catalog from the market source.
func (d *Dashboard) RefreshCoins(ctx context.Context) error {
	coins, err := d.collector.Coins(ctx)
	if err != nil {
		return err
	}
	d.SetCoins(coins)
	d.log.WithField("count", len(coins)).Info("coin catalog refreshed")
	return nil
}

// Refresh fetches prices for the selected coins and ingests them at now.
// Prices for coins deselected while the fetch was in flight are dropped.
func (d *Dashboard) Refresh(ctx context.Context, now time.Time) (RefreshResult, error) {
	ids := d.selection.Snapshot()
	res := RefreshResult{Requested: len(ids)}
	if len(ids) == 0 {
		return res, nil
	}

	refs := make([]model.CoinRef, len(ids))
	for i, id := range ids {
		ref := model.CoinRef{ID: id, Symbol: id}
		if c, ok := d.Coin(id); ok && c.Symbol != "" {
			ref.Symbol = c.Symbol
		}
		refs[i] = ref
	}

	prices, err := d.collector.BatchPrices(ctx, refs)
	if err != nil {
		return res, fmt.Errorf("refresh prices: %w", err)
	}

	ts := now.Unix()
	for _, id := range ids {
		price, ok := prices[id]
		if !ok {
			d.log.WithField("coin", id).Debug("no price in batch")
			continue
		}
		s, err := d.buffer.Ingest(id, price, ts)
		switch {
		case errors.Is(err, series.ErrNotTracked):
			res.Dropped++
			d.log.WithField("coin", id).Debug("dropping price for deselected coin")
			continue
		case err != nil:
			res.Dropped++
			d.log.WithError(err).WithField("coin", id).Warn("sample rejected")
			continue
		}
		res.Ingested++
		if err := d.recorder.RecordSample(&recorder.PriceSample{CoinID: id, Source: "refresh", Sample: s}); err != nil {
			d.log.WithError(err).WithField("coin", id).Warn("failed to record sample")
		}
	}
	return res, nil
}

// Series returns the tracked window for id, oldest first.
func (d *Dashboard) Series(id string) []model.Sample { return d.buffer.Snapshot(id) }

// Reports builds one report per selected coin that has samples, in selection order.
func (d *Dashboard) Reports() []report.CoinReport {
	ids := d.selection.Snapshot()
	out := make([]report.CoinReport, 0, len(ids))
	for _, id := range ids {
		symbol := id
		if c, ok := d.Coin(id); ok {
			symbol = c.Symbol
		}
		if r, ok := report.Build(id, symbol, d.buffer.Snapshot(id)); ok {
			out = append(out, r)
		}
	}
	return out
}

func (d *Dashboard) Details(ctx context.Context, id string) (*model.CoinDetails, error) {
	return d.collector.Details(ctx, id)
}

func (d *Dashboard) Price(ctx context.Context, id string) (*model.CoinPrice, error) {
	return d.collector.Price(ctx, id)
}

func (d *Dashboard) OHLC(ctx context.Context, id string, days int) ([]model.Sample, error) {
	return d.collector.OHLC(ctx, id, days)
}

func (d *Dashboard) AdvisorConfigured() bool { return d.advisor.Configured() }

// Recommend asks the advisor about id and records the verdict.
func (d *Dashboard) Recommend(ctx context.Context, id string) (model.RecommendationData, *model.Recommendation, error) {
	if !d.advisor.Configured() {
		return model.RecommendationData{}, nil, advisor.ErrNotConfigured
	}
	data, err := d.collector.RecommendationData(ctx, id)
	if err != nil {
		return model.RecommendationData{}, nil, err
	}
	rec, err := d.advisor.Recommend(ctx, data)
	if err != nil {
		return data, nil, err
	}
	if err := d.recorder.RecordRecommendation(rec); err != nil {
		d.log.WithError(err).WithField("coin", id).Warn("failed to record recommendation")
	}
	return data, rec, nil
}

// History returns recorded samples for id beyond the in-memory window.
func (d *Dashboard) History(id string, limit int) ([]model.Sample, error) {
	return d.recorder.RecentSamples(id, limit)
}

// RecommendationHistory returns recorded verdicts for id, newest first.
func (d *Dashboard) RecommendationHistory(id string, limit int) ([]model.Recommendation, error) {
	return d.recorder.RecentRecommendations(id, limit)
}
