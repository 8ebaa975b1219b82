package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CryptoGraph/internal/collector"
	"CryptoGraph/internal/dashboard"
	"CryptoGraph/internal/logger"
	"CryptoGraph/internal/model"
	"CryptoGraph/internal/selection"
)

type fakeSender struct {
	sent []string
}

func (f *fakeSender) Enabled() bool { return true }
func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.sent = append(f.sent, text)
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *collector.MockFetcher, *fakeSender) {
	t.Helper()
	log := logger.Discard()
	market := &collector.MockFetcher{
		Coins:  []model.Coin{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}},
		Prices: map[string]float64{"bitcoin": 100},
	}
	d := dashboard.New(dashboard.Deps{
		Selection: selection.New(nil, log),
		Collector: collector.NewCollector(market, nil, time.Minute, log),
		Log:       log,
	})
	sender := &fakeSender{}
	s := NewScheduler(context.Background(), d, sender, log)
	clock := time.Unix(1000, 0)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s, market, sender
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterAll("@every 1m", "0 0 * * * *", ""))
	assert.Len(t, s.Cron.Entries(), 2)

	s, _, _ = newTestScheduler(t)
	assert.Error(t, s.RegisterAll("not a cron", "0 0 * * * *", ""))
}

func TestRunNowAndReportTask(t *testing.T) {
	s, market, sender := newTestScheduler(t)
	_, err := s.Dashboard.Toggle("bitcoin")
	require.NoError(t, err)

	s.RunNow()
	market.SetPrice("bitcoin", 110)
	s.refreshTask()

	assert.Len(t, s.Dashboard.Series("bitcoin"), 2)
	_, ok := s.Dashboard.Coin("bitcoin")
	assert.True(t, ok)

	s.reportTask()
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "<b>BTC</b> $110.00 ▲ +10.00%")
}

func TestReportTask_SkipsEmptySelection(t *testing.T) {
	s, _, sender := newTestScheduler(t)
	s.reportTask()
	assert.Empty(t, sender.sent)
}

func TestHandleCommand(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	assert.Equal(t, "No coins selected.", s.HandleCommand(ctx, "/selection"))
	assert.Contains(t, s.HandleCommand(ctx, "/toggle"), "Usage")
	assert.Contains(t, s.HandleCommand(ctx, "/toggle bitcoin"), "now tracking bitcoin")
	assert.Contains(t, s.HandleCommand(ctx, "/selection@CryptoGraphBot"), "1. bitcoin")
	assert.Contains(t, s.HandleCommand(ctx, "/toggle bitcoin"), "stopped tracking bitcoin")
	assert.Contains(t, s.HandleCommand(ctx, "/remove bitcoin"), "is not selected")
	assert.Contains(t, s.HandleCommand(ctx, "/recommend bitcoin"), "not configured")
	assert.Contains(t, s.HandleCommand(ctx, "hello"), "Available commands")
}

func TestHandleCommand_Overflow(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.HandleCommand(ctx, "/toggle "+id)
	}

	reply := s.HandleCommand(ctx, "/toggle f")
	assert.Contains(t, reply, "at most 5 coins")
	assert.Contains(t, reply, "5. e")
	assert.NotContains(t, s.Dashboard.Selection(), "f")

	assert.Contains(t, s.HandleCommand(ctx, "/remove a"), "stopped tracking a")
	assert.Contains(t, s.HandleCommand(ctx, "/toggle f"), "now tracking f")
	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, s.Dashboard.Selection())
}

func TestHandleCommand_EscapesUserInput(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	ctx := context.Background()

	assert.Equal(t, "a&lt;b&gt; is not selected", s.HandleCommand(ctx, "/remove a<b>"))
	assert.Contains(t, s.HandleCommand(ctx, "/toggle x&y"), "now tracking x&amp;y")
	assert.Contains(t, s.HandleCommand(ctx, "/selection"), "1. x&amp;y")
}
