package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tkardas/selfplay-pool/internal/history"
	"github.com/tkardas/selfplay-pool/internal/policy"
	"github.com/tkardas/selfplay-pool/internal/report"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to the policy store")
	last := flag.Int("last", 0, "also show N most recent rating-history entries")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/pool.db [--last N] [--json]")
		os.Exit(2)
	}

	store, err := policy.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rows, err := report.Build(store, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *jsonOut {
		if err := printJSON(rows); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		if err := report.Render(os.Stdout, rows); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}

	if *last > 0 {
		if err := printHistory(store, *last, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

// #endregion main

// #region history

func printHistory(store *policy.Store, last int, jsonOut bool) error {
	entries, err := history.Recent(store.DB(), last)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stderr, "no rating history found")
		return nil
	}
	if jsonOut {
		return printJSON(entries)
	}

	fmt.Println()
	fmt.Printf("%-36s  %-16s  %8s  %8s  %7s  %s\n",
		"Cycle", "Name", "Mu", "Sigma", "Samples", "Time")
	for _, e := range entries {
		fmt.Printf("%-36s  %-16s  %8.1f  %8.1f  %7d  %s\n",
			e.CycleID, e.Name, e.Mu, e.Sigma, e.Samples,
			e.CreatedAt.Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

// #endregion history

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// #endregion helpers
