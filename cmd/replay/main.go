package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/tkardas/selfplay-pool/internal/rating"
	"github.com/tkardas/selfplay-pool/internal/replay"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to a recorded score fixture")
	verbose := flag.Bool("v", false, "print ratings after every round, not just the final standings")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [-v]")
		os.Exit(2)
	}

	fixture, err := replay.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if fixture.Description != "" {
		fmt.Printf("replaying %q: %d rounds\n", fixture.Description, len(fixture.Rounds))
	} else {
		fmt.Printf("replaying %d rounds\n", len(fixture.Rounds))
	}

	cycles, summary := replay.Replay(fixture)

	if *verbose {
		for _, cycle := range cycles {
			fmt.Printf("\nround %d:\n", cycle.Round)
			printStandings(cycle.Ratings)
		}
	}

	fmt.Printf("\nfinal standings after %d rounds:\n", summary.TotalRounds)
	printStandings(summary.Final)
}

// #endregion main

// #region standings

func printStandings(ratings map[string]rating.Rating) {
	names := make([]string, 0, len(ratings))
	for name := range ratings {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if ratings[names[i]].Mu != ratings[names[j]].Mu {
			return ratings[names[i]].Mu > ratings[names[j]].Mu
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		r := ratings[name]
		fmt.Printf("  %2d. %-16s  mu=%8.1f  sigma=%6.1f\n", i+1, name, r.Mu, r.Sigma)
	}
}

// #endregion standings
