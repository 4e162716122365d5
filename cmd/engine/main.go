// Command engine runs the poller/processor worker: it watches the
// ticketing system for unassigned incidents, selects an on-shift member
// for each, records the decision, and writes the assignment back.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"incident-assignment/internal/assignment"
	"incident-assignment/internal/config"
	"incident-assignment/internal/poller"
	"incident-assignment/internal/processor"
	"incident-assignment/internal/servicenow"
	"incident-assignment/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	godotenv.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}
	if missing := cfg.Validate(); len(missing) > 0 {
		logger.Error("incomplete configuration", "missing", strings.Join(missing, ", "))
		os.Exit(1)
	}

	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	snClient := servicenow.New(cfg.ServiceNow.BaseURL, cfg.ServiceNow.Username, cfg.ServiceNow.Password)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := snClient.Ping(pingCtx); err != nil {
		cancel()
		logger.Error("ticketing system unreachable", "error", err)
		os.Exit(1)
	}
	cancel()

	engine := assignment.NewEngine(st, st, cfg.AssignmentPolicy(), cfg.CreatedBy)
	p := poller.New(snClient, cfg.Groups, cfg.PollInterval, cfg.PollLookback, cfg.QueueSize, logger)
	proc := processor.New(engine, snClient, logger)

	logger.Info("engine starting",
		"groups", cfg.Groups,
		"poll_interval", cfg.PollInterval,
		"lookback", cfg.PollLookback,
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		// Drains until the poller closes the queue, so queued incidents
		// are still processed after a shutdown signal.
		proc.Run(context.Background(), p.Incidents())
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	wg.Wait()
}
