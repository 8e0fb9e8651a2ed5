package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/voidhouse/decay/internal/config"
	"github.com/voidhouse/decay/internal/decay"
	"github.com/voidhouse/decay/internal/server"
	"github.com/voidhouse/decay/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the decay daemon and HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Resolve database path
	dbPath := cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	eng, err := buildEngine(cfg, db)
	if err != nil {
		return err
	}

	eng.StartTicker(cfg.Engine.TickInterval)
	defer eng.Stop()

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "decayd serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  campaign: %s, %d days\n", cfg.Campaign.Start, cfg.Campaign.Days)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// buildEngine assembles the controller, selector, resolver, and corruptor
// from config, restoring any persisted snapshot. A missing snapshot starts
// the campaign at level 0, stable.
func buildEngine(cfg config.Config, db *store.DB) (*decay.Engine, error) {
	start, err := cfg.CampaignStart()
	if err != nil {
		return nil, err
	}

	schedule := decay.DefaultSchedule(start)
	if cfg.Campaign.Days > 0 {
		schedule.Days = cfg.Campaign.Days
	}

	snap, found, err := db.LoadSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if found {
		fmt.Fprintf(os.Stderr, "  restored snapshot: level %.2f (%s)\n", snap.Level, snap.Stage)
	}

	ctrl, err := decay.NewController(schedule, snap)
	if err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}

	selCfg := decay.DefaultSelectorConfig()
	selCfg.PeakStart = cfg.Engine.PeakStart
	selCfg.PeakEnd = cfg.Engine.PeakEnd

	resCfg := decay.DefaultResolverConfig()
	if cfg.Engine.ChallengeTimeout > 0 {
		resCfg.Timeout = cfg.Engine.ChallengeTimeout
	}

	// Separate sources per component: each holds its own rand.Rand and may
	// be driven from different goroutines.
	eng := decay.New(
		ctrl,
		decay.NewSelector(decay.DefaultCatalog(), selCfg, rand.NewPCG(rand.Uint64(), rand.Uint64())),
		decay.NewResolver(resCfg, rand.NewPCG(rand.Uint64(), rand.Uint64())),
		decay.NewCorruptor(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		schedule,
	)
	eng.SetAnnouncer(decay.LogAnnouncer{})
	eng.SetSnapshotter(db)
	eng.SetEventSink(db)
	return eng, nil
}
