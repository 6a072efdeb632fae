// Command econctl inspects a saved econsim database: per-group demand and
// the current one-unit buy and sell quote for every traded good.
//
// "econctl shop ..." edits the saved shop registry instead; run it with no
// further arguments for the list of edits.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"

	"github.com/talgya/econsim/internal/catalog"
	"github.com/talgya/econsim/internal/config"
	"github.com/talgya/econsim/internal/economy"
	"github.com/talgya/econsim/internal/engine"
	"github.com/talgya/econsim/internal/persistence"
	"github.com/talgya/econsim/internal/shop"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	groupFlag  = flag.String("group", "", "Only show this market group")
	tradesFlag = flag.Int("trades", 10, "Number of recent trades to list (0 to skip)")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	slog.SetDefault(cfg.Logging.NewLogger(os.Stderr))

	items, err := catalog.Load(cfg.Catalog.ItemsPath)
	if err != nil {
		log.Fatalf("Failed to load item catalog: %v", err)
	}

	db, err := persistence.Open(cfg.Storage.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if flag.Arg(0) == "shop" {
		if err := runShop(db, flag.Args()[1:], os.Stdout); err != nil {
			log.Fatalf("shop: %v", err)
		}
		return
	}

	if !db.HasState() {
		fmt.Printf("No saved state in %s\n", cfg.Storage.DBPath)
		return
	}

	econ := economy.NewSimulator(items, cfg)
	sim := engine.NewSimulation(econ, shop.NewList())
	if err := db.LoadWorldState(sim); err != nil {
		log.Fatalf("Failed to load state: %v", err)
	}

	fmt.Printf("State at %s", engine.SimTime(sim.LastTick))
	if at, ok := db.SavedAt(); ok {
		fmt.Printf(", saved %s", humanize.Time(at))
	}
	fmt.Println()

	d := cfg.Display.Decimals
	for _, group := range econ.Groups() {
		if *groupFlag != "" && group != *groupFlag {
			continue
		}
		printGroup(econ, group, d)
	}

	if sim.Shops.Len() > 0 {
		fmt.Printf("\n%s shops\n", humanize.Comma(int64(sim.Shops.Len())))
		for _, s := range sim.Shops.All() {
			fmt.Printf("  %-20s %-24s %d goods, %d owners\n", s.Name, s.DisplayName, len(s.Listed()), len(s.Owners))
		}
	}

	if *tradesFlag > 0 {
		printTrades(db, *tradesFlag, d)
	}
}

func printGroup(econ *economy.Simulator, group string, decimals int32) {
	goods := econ.Goods(group)
	fmt.Printf("\n[%s] %s goods\n", group, humanize.Comma(int64(len(goods))))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "good\tbought\tsold\tdemand\tbuy 1\tsell 1\t")
	for _, good := range goods {
		l, _ := econ.Ledger(group, good)
		one := []catalog.RawGood{good.RawGood()}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			good,
			humanize.CommafWithDigits(l.BuyPressure, 1),
			humanize.CommafWithDigits(l.SalePressure, 1),
			humanize.CommafWithDigits(l.Demand(), 1),
			economy.FormatPrice(econ.Quote(group, one, economy.Buy), decimals),
			economy.FormatPrice(econ.Quote(group, one, economy.Sell), decimals),
		)
	}
	w.Flush()
}

func printTrades(db *persistence.DB, limit int, decimals int32) {
	total, err := db.CountTrades()
	if err != nil {
		log.Fatalf("Failed to count trades: %v", err)
	}
	trades, err := db.RecentTrades(limit)
	if err != nil {
		log.Fatalf("Failed to read trades: %v", err)
	}

	fmt.Printf("\n%s trades logged, latest %d:\n", humanize.Comma(int64(total)), len(trades))
	for _, r := range trades {
		fmt.Printf("  %s  %-10s %-4s %8s units  %12s\n",
			humanize.Time(r.ExecutedAt), r.Group, r.Type,
			humanize.CommafWithDigits(r.Units, 1),
			economy.FormatPrice(r.Price, decimals),
		)
	}
}
