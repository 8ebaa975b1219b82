package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"CryptoGraph/internal/advisor"
	"CryptoGraph/internal/collector"
	"CryptoGraph/internal/config"
	"CryptoGraph/internal/dashboard"
	"CryptoGraph/internal/logger"
	"CryptoGraph/internal/recorder"
	"CryptoGraph/internal/selection"
	"CryptoGraph/internal/series"
	"CryptoGraph/internal/storage"
)

// app holds the wired components shared by every subcommand.
type app struct {
	log  *logrus.Logger
	kv   storage.KV
	rec  recorder.Recorder
	dash *dashboard.Dashboard
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.Logger

	kv, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, log)
		if err != nil {
			log.WithError(err).Warn("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	market := collector.NewGeckoFetcher(cfg.CoinGecko.BaseURL, cfg.CoinGecko.APIKey, cfg.Proxy)
	prices := collector.NewCompareFetcher(cfg.CryptoCompare.BaseURL, cfg.CryptoCompare.APIKey, cfg.Proxy)
	col := collector.NewCollector(market, prices, 0, log)
	log.WithFields(logrus.Fields{"market": market.Name(), "prices": prices.Name()}).Info("data sources ready")

	adv, err := advisor.New(ctx, cfg.LLM, cfg.Proxy)
	if err != nil {
		_ = rec.Close()
		_ = kv.Close()
		return nil, fmt.Errorf("init advisor: %w", err)
	}
	if adv.Configured() {
		log.WithField("provider", adv.Name()).Info("recommendations enabled")
	}

	dash := dashboard.New(dashboard.Deps{
		Selection: selection.New(kv, log),
		Buffer:    series.NewBuffer(series.WithCapacity(cfg.Series.Capacity), series.WithEpsilon(*cfg.Series.Epsilon)),
		Collector: col,
		Advisor:   adv,
		Recorder:  rec,
		Log:       log,
	})
	return &app{log: log, kv: kv, rec: rec, dash: dash}, nil
}

func openStore(cfg *config.Config) (storage.KV, error) {
	switch cfg.Storage.Driver {
	case config.DriverBadger:
		kv, err := storage.OpenBadger(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return kv, nil
	default:
		kv, err := storage.NewFileStore(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return kv, nil
	}
}

func (a *app) Close() {
	if err := a.rec.Close(); err != nil {
		a.log.WithError(err).Warn("close recorder")
	}
	if err := a.kv.Close(); err != nil {
		a.log.WithError(err).Warn("close store")
	}
}
