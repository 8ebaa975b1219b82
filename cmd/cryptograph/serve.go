package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"CryptoGraph/internal/notifier"
	"CryptoGraph/internal/scheduler"
	"CryptoGraph/internal/server"
)

// runServe runs until SIGINT or SIGTERM.
func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.log.Info("CryptoGraph starting...")

	tn := notifier.NewTelegramNotifier(cfg.Telegram, cfg.Proxy, a.log)

	sched := scheduler.NewScheduler(ctx, a.dash, tn, a.log)
	if err := sched.RegisterAll(cfg.Refresh.PriceCron, cfg.Refresh.CoinsCron, cfg.Refresh.ReportCron); err != nil {
		return err
	}
	// catalog and first sample before the first tick
	sched.RunNow()
	sched.Start()
	defer sched.Stop()

	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		a.log.Info("telegram polling started")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.New(a.dash, a.log).Run(ctx, cfg.Server.Addr)
	}()

	a.log.Info("CryptoGraph is running. Press Ctrl+C to stop.")
	select {
	case err := <-errCh:
		if err != nil {
			a.log.WithError(err).Error("http api stopped")
			cancel()
			return err
		}
	case <-ctx.Done():
		a.log.Info("shutdown signal received, stopping...")
		if err := <-errCh; err != nil {
			a.log.WithError(err).Warn("http api shutdown")
		}
	}
	a.log.Info("CryptoGraph stopped")
	return nil
}
