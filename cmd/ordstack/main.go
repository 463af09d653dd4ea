package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ordstack/internal/broker"
	"ordstack/internal/config"
	"ordstack/internal/limits"
	"ordstack/internal/logger"
	"ordstack/internal/order"
	"ordstack/internal/stack"
	"ordstack/internal/store"
	"ordstack/internal/store/sqlite"
)

func main() {
	ctx := context.Background()
	cfgPath := os.Getenv("ORDSTACK_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	watcher, err := config.NewWatcher(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	cfg := watcher.Current()
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("opening log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	watcher.Subscribe(func(updated *config.Config) {
		logger.SetLevel(updated.App.LogLevel)
	})

	cmd := "report"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if err := run(ctx, cfg, cmd); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func run(ctx context.Context, cfg *config.Config, cmd string) error {
	orderStore, tradeLimits, closeStore, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	instrumentStack, err := stack.New(ctx, "instrument", orderStore)
	if err != nil {
		return err
	}

	switch cmd {
	case "report":
		return report(ctx, instrumentStack)
	case "demo":
		return demo(ctx, cfg, instrumentStack, tradeLimits)
	default:
		return fmt.Errorf("unknown command %q (want report or demo)", cmd)
	}
}

// openStores opens the configured SQLite database, or falls back to the
// in-memory store (with no persisted limits) when no path is set.
func openStores(ctx context.Context, cfg *config.Config) (store.OrderStore, *limits.TradeLimits, func(), error) {
	if strings.TrimSpace(cfg.Store.Path) == "" {
		logger.Warnf("no store path configured, orders will not survive this run")
		return store.NewMemoryOrderStore(), nil, func() {}, nil
	}

	s, err := sqlite.NewOrderStore(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, err
	}
	tl, err := limits.New(s.DB())
	if err != nil {
		s.Close()
		return nil, nil, nil, err
	}
	for _, l := range cfg.Limits {
		if err := tl.SetLimit(ctx, l.Key, l.PeriodDays, l.MaxAbs); err != nil {
			s.Close()
			return nil, nil, nil, err
		}
	}
	return s, tl, func() { s.Close() }, nil
}

func report(ctx context.Context, s *stack.Stack) error {
	orders, err := s.List(ctx)
	if err != nil {
		return err
	}
	fmt.Print(orders.Table())
	return nil
}

// demo admits a spread order, clips it against any configured trade
// limits, then drains staged fills from the simulated broker and prints
// the resulting stack.
func demo(ctx context.Context, cfg *config.Config, s *stack.Stack, tl *limits.TradeLimits) error {
	key := order.ContractKey{Instrument: "CRUDE_W", Contract: "20260600"}
	o := order.New(key, order.NewTradeQuantity([]int64{3, -3}))

	if tl != nil {
		possible, err := tl.PossibleTrade(ctx, o.Key(), o.Trade())
		if err != nil {
			return err
		}
		o = o.WithTrade(possible)
	}
	if o.IsZeroTrade() {
		logger.Warnf("trade for %s clipped to zero, nothing to place", o.Key())
		return report(ctx, s)
	}

	id, err := s.Put(ctx, o)
	if err != nil {
		return err
	}

	sim := broker.NewSimFillSource(cfg.Sim.Stages)
	sim.Register(id, o.Trade(), order.NewFillPrice([]float64{78.5, 77.25}))

	for {
		events, err := sim.PendingFills(ctx)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			break
		}
		for _, ev := range events {
			if err := s.ApplyFill(ctx, ev.OrderID, ev.Fill, ev.Price, ev.At); err != nil {
				return err
			}
		}
	}

	if tl != nil {
		filled, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tl.AddTrade(ctx, filled.Key(), filled.Filled()); err != nil {
			return err
		}
	}
	return report(ctx, s)
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	logger.SetOutput(file)
	return file, nil
}
