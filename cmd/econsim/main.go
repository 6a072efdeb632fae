// Command econsim runs the market pricing simulation: it restores saved
// ledgers, decays trade pressure on a fixed sim-time interval, optionally
// drives synthetic traffic, and autosaves to SQLite.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/config"
	"github.com/talgya/econsim/internal/economy"
	"github.com/talgya/econsim/internal/engine"
	"github.com/talgya/econsim/internal/persistence"
	"github.com/talgya/econsim/internal/shop"
	"github.com/talgya/econsim/internal/traffic"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	slog.SetDefault(cfg.Logging.NewLogger(os.Stdout))
	slog.Info("configuration loaded", "path", *configPath, "groups", cfg.Groups())

	// ── Catalog ───────────────────────────────────────────────────────
	items, err := catalog.Load(cfg.Catalog.ItemsPath)
	if err != nil {
		slog.Error("failed to load item catalog", "error", err)
		os.Exit(1)
	}
	slog.Info("item catalog loaded", "path", cfg.Catalog.ItemsPath, "groups", len(items.Groups()), "items", items.Len())

	// ── Database ──────────────────────────────────────────────────────
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DBPath), 0755); err != nil {
		slog.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.Storage.DBPath)

	// ── Load or Start Fresh ──────────────────────────────────────────
	econ := economy.NewSimulator(items, cfg)
	sim := engine.NewSimulation(econ, shop.NewList())
	sim.Decimals = cfg.Display.Decimals

	if db.HasState() {
		slog.Info("found saved economy state, loading...")
		if err := db.LoadWorldState(sim); err != nil {
			slog.Error("failed to restore economy state", "error", err)
			os.Exit(1)
		}
		slog.Info("economy state restored",
			"groups", len(econ.Groups()),
			"shops", sim.Shops.Len(),
			"tick", sim.LastTick,
			"sim_time", engine.SimTime(sim.LastTick),
		)
	} else {
		slog.Info("no saved state found, starting with empty ledgers")
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	if cfg.Traffic.Enabled {
		wallet := traffic.NewWallet(1e9, cfg.Display.Decimals)
		sim.Traffic = traffic.New(cfg.Traffic.Seed, cfg.Traffic.Group, cfg.Traffic.Intensity, cfg.Traffic.Goods, wallet)
		slog.Info("synthetic traffic enabled",
			"group", cfg.Traffic.Group,
			"goods", len(cfg.Traffic.Goods),
			"intensity", cfg.Traffic.Intensity,
		)
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine()
	eng.Tick = sim.LastTick
	eng.Speed = cfg.Engine.Speed
	eng.Interval = cfg.Engine.TickInterval

	var lastSave uint64
	save := func(tick uint64) {
		if tick == lastSave {
			return
		}
		sim.LastTick = tick
		if err := db.SaveWorldState(sim); err != nil {
			slog.Error("autosave failed", "tick", tick, "error", err)
			return
		}
		lastSave = tick
	}

	decay, err := engine.NewDecayScheduler(econ, cfg.Simulator.DecayInterval)
	if err != nil {
		slog.Error("invalid decay interval", "error", err)
		os.Exit(1)
	}
	decay.AfterDecay = save

	eng.OnTick = sim.TickMinute
	eng.OnDay = sim.TickDay
	decay.Attach(eng)
	eng.Every(uint64(cfg.Simulator.SaveInterval/time.Minute), save)

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	if eng.Tick > 0 {
		fmt.Printf("Resuming from tick %d (%s)\n", eng.Tick, engine.SimTime(eng.Tick))
	}
	fmt.Printf("Decay every %v of sim time, autosave every %v.\n", cfg.Simulator.DecayInterval, cfg.Simulator.SaveInterval)
	fmt.Println("Starting simulation... (Ctrl+C to stop)")

	eng.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	sim.LastTick = eng.Tick
	if err := db.SaveWorldState(sim); err != nil {
		slog.Error("final save failed", "error", err)
	}

	fmt.Println("Simulation stopped. Economy state saved.")
}
