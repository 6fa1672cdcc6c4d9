package console

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"

	"glicko-ranker/ranker/pool"
	"glicko-ranker/ranker/store"
)

// WilsonCI95 for a win rate with draws counted as half a win.
func WilsonCI95(wins, draws, total int) (low, hi float64) {
	if total <= 0 {
		return 0, 1
	}
	z := 1.96
	n := float64(total)
	p := (float64(wins) + 0.5*float64(draws)) / n
	den := 1 + (z*z)/n
	center := p + (z*z)/(2*n)
	half := z * math.Sqrt((p*(1-p))/n+(z*z)/(4*n*n))
	return (center - half) / den, (center + half) / den
}

// Summary describes the rating distribution of a pool.
type Summary struct {
	Entities      int
	Battles       int
	MeanRating    float64
	MedianRating  float64
	StdDevRating  float64
	P25, P75      float64
	MinRating     float64
	MaxRating     float64
	MeanDeviation float64
	Uncertain     int // entities above highDeviation
}

func Summarize(p *pool.Pool) (Summary, error) {
	if p.Len() == 0 {
		return Summary{}, eris.New("empty pool")
	}
	ratings := make(stats.Float64Data, p.Len())
	devs := make(stats.Float64Data, p.Len())
	s := Summary{Entities: p.Len(), Battles: p.TotalBattles() / 2}
	for i, e := range p.Entities() {
		ratings[i] = e.Rating.Value
		devs[i] = e.Rating.Deviation
		if e.Rating.Deviation > highDeviation {
			s.Uncertain++
		}
	}

	var err error
	if s.MeanRating, err = ratings.Mean(); err != nil {
		return Summary{}, eris.Wrap(err, "mean")
	}
	if s.MedianRating, err = ratings.Median(); err != nil {
		return Summary{}, eris.Wrap(err, "median")
	}
	if s.StdDevRating, err = ratings.StandardDeviation(); err != nil {
		return Summary{}, eris.Wrap(err, "stddev")
	}
	if s.P25, err = ratings.Percentile(25); err != nil {
		return Summary{}, eris.Wrap(err, "p25")
	}
	if s.P75, err = ratings.Percentile(75); err != nil {
		return Summary{}, eris.Wrap(err, "p75")
	}
	if s.MinRating, err = ratings.Min(); err != nil {
		return Summary{}, eris.Wrap(err, "min")
	}
	if s.MaxRating, err = ratings.Max(); err != nil {
		return Summary{}, eris.Wrap(err, "max")
	}
	if s.MeanDeviation, err = devs.Mean(); err != nil {
		return Summary{}, eris.Wrap(err, "mean deviation")
	}
	return s, nil
}

func (p *Printer) Summary(s Summary) {
	p.rule()
	p.printf("%s\n", p.bold(fmt.Sprintf("%d entities, %d battles", s.Entities, s.Battles)))
	p.rule()
	p.printf("    Rating:    mean %.1f | median %.1f | sd %.1f\n", s.MeanRating, s.MedianRating, s.StdDevRating)
	p.printf("    Spread:    min %.1f | p25 %.1f | p75 %.1f | max %.1f\n", s.MinRating, s.P25, s.P75, s.MaxRating)
	p.printf("    Deviation: mean %.1f | %d above %.0f\n", s.MeanDeviation, s.Uncertain, highDeviation)
}

// Sessions prints the session log, newest last.
func (p *Printer) Sessions(recs []store.SessionRecord) {
	if len(recs) == 0 {
		p.printf("No sessions yet.\n")
		return
	}
	for _, r := range recs {
		p.printf("%s  %s  %d %s (%s)\n",
			p.dim(r.StartedAt.Local().Format("2006-01-02 15:04")),
			r.ID.String()[:8],
			len(r.Matches), plural(len(r.Matches), "battle", "battles"),
			r.EndedAt.Sub(r.StartedAt).Round(time.Second))
	}
}
