package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/tkardas/selfplay-pool/internal/policy"
	"github.com/tkardas/selfplay-pool/internal/rating"
)

// #region row
// Row is one leaderboard line.
type Row struct {
	Name     string
	Mu       float64
	Sigma    float64
	Episodes int
	Tenured  bool
}

// #endregion row

// #region build
// Build assembles leaderboard rows from the store, sorted by skill mean
// descending. Live ratings take precedence over the persisted estimate when
// present (they may lead the store mid-cycle).
func Build(store *policy.Store, ratings map[string]*rating.Rating) ([]Row, error) {
	records, err := store.GetAll()
	if err != nil {
		return nil, fmt.Errorf("build leaderboard: %w", err)
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		row := Row{
			Name:     rec.Name,
			Mu:       rec.Mu,
			Sigma:    rec.Sigma,
			Episodes: rec.Episodes,
			Tenured:  rec.Metadata.Tenured(),
		}
		if r, ok := ratings[rec.Name]; ok {
			row.Mu = r.Mu
			row.Sigma = r.Sigma
		}
		rows[i] = row
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Mu > rows[j].Mu })
	return rows, nil
}

// #endregion build

// #region render
// Render writes rows as an aligned text table.
func Render(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMU\tSIGMA\tEPISODES\tTENURED")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.1f\t%.1f\t%d\t%v\n", r.Name, r.Mu, r.Sigma, r.Episodes, r.Tenured)
	}
	return tw.Flush()
}

// #endregion render
