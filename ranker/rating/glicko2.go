package rating

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"glicko-ranker/ranker/pool"
)

// --- Glicko-2 constants & helpers (paper values) ---
const (
	g2Scale = 173.7178 // rating scale between r<->mu
	pi2     = math.Pi * math.Pi

	DefaultTau     = 0.5
	DefaultEpsilon = 1e-6
	DefaultMaxIter = 100
)

var ErrNonConvergence = eris.New("volatility solver did not converge")

// NonConvergenceError reports which entity's volatility could not be solved.
type NonConvergenceError struct {
	EntityID   int
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("entity %d: %s after %d iterations", e.EntityID, ErrNonConvergence.Error(), e.Iterations)
}

func (e *NonConvergenceError) Unwrap() error { return ErrNonConvergence }

// Engine applies rating-period updates. The zero value is not usable; use NewEngine.
type Engine struct {
	Tau     float64 // system constant, constrains volatility change
	Epsilon float64 // solver tolerance
	MaxIter int     // cap for bracket expansion and for the regula-falsi loop
}

func NewEngine() Engine {
	return Engine{Tau: DefaultTau, Epsilon: DefaultEpsilon, MaxIter: DefaultMaxIter}
}

// --- internal conversions r/RD <-> mu/phi ---
func toMuPhi(r, rd float64) (mu, phi float64)   { return (r - 1500.0) / g2Scale, rd / g2Scale }
func fromMuPhi(mu, phi float64) (r, rd float64) { return mu*g2Scale + 1500.0, phi * g2Scale }

// g(phi_j) and E(mu, mu_j, phi_j)
func g(phi float64) float64 { return 1.0 / math.Sqrt(1.0+3.0*phi*phi/pi2) }
func gExp(mu, muj, phij float64) float64 {
	return 1.0 / (1.0 + math.Exp(-g(phij)*(mu-muj)))
}

// period accumulates one entity's sums over the batch.
type period struct {
	sumG2E float64 // Σ g^2 * E * (1-E)
	sumGSE float64 // Σ g * (S - E)
}

type update struct {
	mu, phi, sigma float64
}

// Apply runs one Glicko-2 rating period over matches and writes the results
// into p. Every entity that took part is updated from the sums over all its
// matches, using opponents' values as they were at the start of the period.
// Entities without matches only have their deviation grown by their volatility.
//
// Nothing is written unless every participant's volatility converges. An
// empty batch is a no-op.
func (e Engine) Apply(p *pool.Pool, matches []pool.Match) error {
	if len(matches) == 0 {
		return nil
	}
	for _, m := range matches {
		if err := m.Validate(p.Len()); err != nil {
			return err
		}
	}

	es := p.Entities()
	mu := make([]float64, len(es))
	phi := make([]float64, len(es))
	for i, ent := range es {
		mu[i], phi[i] = toMuPhi(ent.Rating.Value, ent.Rating.Deviation)
	}

	periods := make(map[int]*period)
	acc := func(id int) *period {
		pp, ok := periods[id]
		if !ok {
			pp = &period{}
			periods[id] = pp
		}
		return pp
	}
	for _, m := range matches {
		sA, sB := m.Outcome.Scores()
		a, b := acc(m.A), acc(m.B)

		gB, eAB := g(phi[m.B]), gExp(mu[m.A], mu[m.B], phi[m.B])
		a.sumG2E += gB * gB * eAB * (1.0 - eAB)
		a.sumGSE += gB * (sA - eAB)

		gA, eBA := g(phi[m.A]), gExp(mu[m.B], mu[m.A], phi[m.A])
		b.sumG2E += gA * gA * eBA * (1.0 - eBA)
		b.sumGSE += gA * (sB - eBA)
	}

	next := make([]update, len(es))
	for i, ent := range es {
		sigma := ent.Rating.Volatility
		pp, played := periods[i]
		if !played {
			// No games: RD grows due to volatility, rating stays the same.
			next[i] = update{mu: mu[i], phi: math.Sqrt(phi[i]*phi[i] + sigma*sigma), sigma: sigma}
			continue
		}

		v := 1.0 / pp.sumG2E
		delta := v * pp.sumGSE

		newVol, iters, err := e.volatility(v, delta, sigma, phi[i])
		if err != nil {
			return eris.Wrapf(&NonConvergenceError{EntityID: ent.ID, Iterations: iters}, "rating period for %q", ent.Name)
		}

		phiStar := math.Sqrt(phi[i]*phi[i] + newVol*newVol)
		phiNew := 1.0 / math.Sqrt(1.0/(phiStar*phiStar)+1.0/v)
		muNew := mu[i] + phiNew*phiNew*pp.sumGSE
		next[i] = update{mu: muNew, phi: phiNew, sigma: newVol}
	}

	for i, ent := range es {
		ent.Rating.Value, ent.Rating.Deviation = fromMuPhi(next[i].mu, next[i].phi)
		ent.Rating.Volatility = next[i].sigma
	}
	return nil
}

// volatility solves f(x)=0 for x = ln(sigma'^2) with the Illinois variant of
// regula falsi and returns sigma'.
func (e Engine) volatility(v, delta, sigma, phi float64) (float64, int, error) {
	tau, eps, maxIter := e.Tau, e.Epsilon, e.MaxIter
	if tau <= 0 {
		tau = DefaultTau
	}
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}

	a := math.Log(sigma * sigma)
	delta2 := delta * delta
	tau2 := tau * tau
	phi2v := phi*phi + v
	f := func(x float64) float64 {
		ex := math.Exp(x)
		return ex*(delta2-phi2v-ex)/(2.0*(phi2v+ex)*(phi2v+ex)) - (x-a)/tau2
	}

	A := a
	var B float64
	if delta2 > phi2v {
		B = math.Log(delta2 - phi2v)
	} else {
		k := 1
		for f(a-float64(k)*tau) < 0 {
			if k >= maxIter {
				return 0, k, ErrNonConvergence
			}
			k++
		}
		B = a - float64(k)*tau
	}

	fA, fB := f(A), f(B)
	it := 0
	for math.Abs(B-A) > eps {
		if it >= maxIter {
			return 0, it, ErrNonConvergence
		}
		it++
		C := A + (A-B)*fA/(fB-fA)
		fC := f(C)
		if math.IsNaN(fC) || math.IsInf(fC, 0) {
			return 0, it, ErrNonConvergence
		}
		if fC*fB <= 0 {
			A, fA = B, fB
		} else {
			fA /= 2.0
		}
		B, fB = C, fC
	}
	return math.Exp(A / 2.0), it, nil
}
