package scheduler

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/dashboard"
	"CryptoGraph/internal/report"
	"CryptoGraph/internal/selection"
)

// Sender delivers chat messages. *notifier.TelegramNotifier satisfies it.
type Sender interface {
	Enabled() bool
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Dashboard *dashboard.Dashboard
	Notifier  Sender
	Ctx       context.Context

	log logrus.FieldLogger
	now func() time.Time
}

// NewScheduler creates a new Scheduler. Overlapping runs of the same job are skipped.
func NewScheduler(ctx context.Context, d *dashboard.Dashboard, n Sender, log logrus.FieldLogger) *Scheduler {
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log))),
		),
		Dashboard: d,
		Notifier:  n,
		Ctx:       ctx,
		log:       log,
		now:       time.Now,
	}
}

// RegisterAll registers the price refresh, coin catalog and optional report tasks.
// An empty reportCron disables the periodic report.
func (s *Scheduler) RegisterAll(priceCron, coinsCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(priceCron, s.refreshTask); err != nil {
		return fmt.Errorf("register price refresh task: %w", err)
	}
	if _, err := s.Cron.AddFunc(coinsCron, s.coinsTask); err != nil {
		return fmt.Errorf("register coin catalog task: %w", err)
	}
	if reportCron != "" {
		if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
			return fmt.Errorf("register report task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow loads the catalog and takes one price sample immediately.
func (s *Scheduler) RunNow() {
	s.coinsTask()
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	res, err := s.Dashboard.Refresh(s.Ctx, s.now())
	if err != nil {
		s.log.WithError(err).Error("price refresh failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"requested": res.Requested,
		"ingested":  res.Ingested,
		"dropped":   res.Dropped,
	}).Debug("price refresh done")
}

func (s *Scheduler) coinsTask() {
	if err := s.Dashboard.RefreshCoins(s.Ctx); err != nil {
		s.log.WithError(err).Error("coin catalog refresh failed")
	}
}

func (s *Scheduler) reportTask() {
	reports := s.Dashboard.Reports()
	if len(reports) == 0 {
		return
	}
	s.trySend(report.FormatSelectionReport(reports, s.now()))
}

const helpText = "Available commands:\n" +
	"• /selection\n" +
	"• /report\n" +
	"• /toggle &lt;coin id&gt;\n" +
	"• /remove &lt;coin id&gt;\n" +
	"• /recommend &lt;coin id&gt;"

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	name := strings.ToLower(fields[0])
	if i := strings.IndexByte(name, '@'); i > 0 {
		name = name[:i] // "/report@MyBot" in group chats
	}
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}
	// replies are sent as HTML
	shown := html.EscapeString(arg)

	switch name {
	case "/selection":
		return formatSelection(s.Dashboard.Selection())
	case "/report":
		return report.FormatSelectionReport(s.Dashboard.Reports(), s.now())
	case "/toggle":
		if arg == "" {
			return "Usage: /toggle &lt;coin id&gt;"
		}
		added, err := s.Dashboard.Toggle(arg)
		switch {
		case errors.Is(err, selection.ErrOverflow):
			return fmt.Sprintf("You can track at most %d coins. Remove one first:\n%s",
				selection.MaxSelected, formatSelection(s.Dashboard.Selection()))
		case err != nil:
			return fmt.Sprintf("❌ %s", html.EscapeString(err.Error()))
		case added:
			return fmt.Sprintf("✅ now tracking %s", shown)
		default:
			return fmt.Sprintf("🗑 stopped tracking %s", shown)
		}
	case "/remove":
		if arg == "" {
			return "Usage: /remove &lt;coin id&gt;"
		}
		if s.Dashboard.Remove(arg) {
			return fmt.Sprintf("🗑 stopped tracking %s", shown)
		}
		return fmt.Sprintf("%s is not selected", shown)
	case "/recommend":
		if arg == "" {
			return "Usage: /recommend &lt;coin id&gt;"
		}
		data, rec, err := s.Dashboard.Recommend(ctx, arg)
		switch {
		case errors.Is(err, advisor.ErrNotConfigured):
			return "Recommendations are not configured."
		case err != nil:
			s.log.WithError(err).WithField("coin", arg).Warn("recommendation failed")
			return fmt.Sprintf("❌ recommendation for %s failed", shown)
		}
		return report.FormatRecommendation(data, rec)
	default:
		return helpText
	}
}

func formatSelection(ids []string) string {
	if len(ids) == 0 {
		return "No coins selected."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<b>Selected coins</b> (%d/%d)\n", len(ids), selection.MaxSelected))
	for i, id := range ids {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, html.EscapeString(id)))
	}
	return b.String()
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil || !s.Notifier.Enabled() {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.log.WithError(err).Error("send notification")
	}
}
