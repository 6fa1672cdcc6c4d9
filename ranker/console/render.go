package console

import (
	"fmt"
	"io"
	"strings"

	"glicko-ranker/ranker/pool"
)

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

// highDeviation is where the stat view starts nagging for more battles.
const highDeviation = 160.0

// Printer writes the user-facing views.
type Printer struct {
	W     io.Writer
	Color bool
}

func NewPrinter(w io.Writer, color bool) *Printer { return &Printer{W: w, Color: color} }

func (p *Printer) c(code, s string) string {
	if !p.Color {
		return s
	}
	return code + s + colReset
}
func (p *Printer) bold(s string) string { return p.c(colBold, s) }
func (p *Printer) dim(s string) string  { return p.c(colDim, s) }
func (p *Printer) good(s string) string { return p.c(colGreen, s) }
func (p *Printer) warn(s string) string { return p.c(colYellow, s) }
func (p *Printer) bad(s string) string  { return p.c(colRed, s) }
func (p *Printer) cyan(s string) string { return p.c(colCyan, s) }

// Print writes s as is.
func (p *Printer) Print(s string) { fmt.Fprint(p.W, s) }

func (p *Printer) printf(format string, args ...any) { fmt.Fprintf(p.W, format, args...) }
func (p *Printer) rule()                             { p.printf("%s\n", p.dim(strings.Repeat("-", 58))) }
func (p *Printer) section(title string)             { p.printf("\n%s %s\n", p.dim("==>"), p.bold(title)) }

func (p *Printer) entry(e *pool.Entity, rank, indent int) {
	p.printf("%s%-4s %-26s(%-7s ± %.0f)\n",
		strings.Repeat(" ", indent), fmt.Sprintf("%d.", rank), e.Name,
		fmt.Sprintf("%.2f", e.Rating.Value), e.Rating.Deviation)
}

// List prints the full standings.
func (p *Printer) List(ranked []*pool.Entity, ranks map[int]int) {
	p.rule()
	p.printf("%s\n", p.bold("#    Name                      Rating"))
	p.rule()
	for _, e := range ranked {
		p.entry(e, ranks[e.ID], 0)
	}
}

// Neighbours returns the entity with the ones around it in the standings:
// the first three at the top, the last three at the bottom, otherwise one
// above and one below.
func Neighbours(id int, ranked []*pool.Entity) []*pool.Entity {
	pos := -1
	for i, e := range ranked {
		if e.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil
	}
	lo, hi := pos-1, pos+2
	switch {
	case pos == 0:
		lo, hi = 0, 3
	case pos == len(ranked)-1:
		lo, hi = pos-2, pos+1
	}
	lo = max(lo, 0)
	hi = min(hi, len(ranked))
	return ranked[lo:hi]
}

// Stat prints the detail view of one entity.
func (p *Printer) Stat(e *pool.Entity, ranked []*pool.Entity, ranks map[int]int, pl *pool.Pool) {
	rank, total := ranks[e.ID], len(ranked)
	p.rule()
	p.printf("%-45s%13s\n", p.bold("~~ "+e.Name+" ~~"), fmt.Sprintf("Rank #%d/%d", rank, total))
	p.rule()

	p.section("RATING")
	p.printf("    %.2f ± %.0f | (volatility: %.6f)\n", e.Rating.Value, e.Rating.Deviation, e.Rating.Volatility)
	if e.Rating.Deviation > highDeviation {
		p.printf("    %s\n", p.warn("ⓘ The uncertainty is high, do more battles!"))
	}

	// Trails are snapshots taken after each commit, so n of them span the
	// last n-1 sessions.
	if n := e.History.RatingTrail.Len() - 1; n > 0 {
		oldRate, _ := e.History.RatingTrail.Oldest()
		oldRank, _ := e.History.RankTrail.Oldest()
		p.printf("    -- Last %d %s --\n", n, plural(n, "session", "sessions"))
		p.printf("    %s\n", p.pointsTrend(e.Rating.Value-oldRate))
		p.printf("    %s\n", p.placesTrend(rank-oldRank))
	}

	p.section("RANKINGS")
	p.printf("\n  - %-42s%8s\n", "Overall", fmt.Sprintf("#%d/%d", rank, total))
	p.printf("    %s\n", p.dim(strings.Repeat("-", 50)))
	for _, n := range Neighbours(e.ID, ranked) {
		p.entry(n, ranks[n.ID], 4)
	}

	p.section("STATISTICS")
	h := e.History
	games := h.Battles()
	pct := 0
	if games > 0 {
		pct = 100 * h.Wins / games
	}
	lo, hi := WilsonCI95(h.Wins, h.Draws, games)
	p.printf("    Wins:   %d (%d%%, 95%% CI %.0f–%.0f%%)\n", h.Wins, pct, lo*100, hi*100)
	p.printf("    Draws:  %d\n", h.Draws)
	p.printf("    Losses: %d\n", h.Losses)

	if h.Recent.Len() > 0 {
		p.section("RECENT")
		items := h.Recent.Items()
		for i := len(items) - 1; i >= 0; i-- {
			b := items[i]
			p.printf("    %-6s vs %s\n", p.resultTag(b.Result), pl.Name(b.Opponent))
		}
	}
}

func (p *Printer) pointsTrend(diff float64) string {
	arrow, verb := "→", "gained"
	switch {
	case diff > 0:
		arrow = p.good("↗")
	case diff < 0:
		arrow, verb = p.bad("↘"), "lost"
	}
	pts := fmt.Sprintf("%.0f", abs(diff))
	return fmt.Sprintf("%s %s %s %s.", arrow, pts, plural2(pts == "1", "point", "points"), verb)
}

func (p *Printer) placesTrend(diff int) string {
	arrow, verb := "→", "gained"
	switch {
	case diff < 0:
		arrow = p.good("↗")
	case diff > 0:
		arrow, verb = p.bad("↘"), "lost"
	}
	n := diff
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%s %d %s %s.", arrow, n, plural(n, "place", "places"), verb)
}

func (p *Printer) resultTag(o pool.Outcome) string {
	switch o {
	case pool.AWin:
		return p.good("won")
	case pool.BWin:
		return p.bad("lost")
	case pool.Draw:
		return p.cyan("drew")
	default:
		return p.warn("both✗")
	}
}

func plural(n int, one, many string) string { return plural2(n == 1, one, many) }

func plural2(one bool, a, b string) string {
	if one {
		return a
	}
	return b
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
