// Package scenario runs what-if capacity optimizations: it snapshots
// current demand through the dispatcher, builds a linear program from
// the demand, unit capacities and user constraints, and maps the
// solver's answer back into assignment records.
package scenario

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/careops-labs/careboard/pkg/core"
)

// shortfallPenalty dominates any affinity weight so the solver never
// trades unmet demand for a preferred placement.
const shortfallPenalty = 1e6

// Problem is one scenario expressed as a linear program in general
// form: minimize c'x subject to Gx <= h, Ax = b. Decision variables
// are one assignment count per (service, unit) pair followed by one
// shortfall variable per service; nonnegativity is encoded as rows
// of G.
type Problem struct {
	Services []string
	Units    []string

	c []float64
	g *mat.Dense
	h []float64
	a *mat.Dense
	b []float64

	// targets is the demand each service must meet, after any
	// service-scoped max constraint has relaxed it.
	targets  map[string]int
	capacity map[string]int
}

// BuildProblem assembles the linear program for one scenario run.
// demand maps service name to snapshot patient count.
func BuildProblem(demand map[string]int, req core.ScenarioRequest) (*Problem, error) {
	p := &Problem{
		Services: sortedKeys(demand),
		Units:    sortedKeys(req.Capacity),
		targets:  make(map[string]int, len(demand)),
		capacity: req.Capacity,
	}
	for unit, cap := range req.Capacity {
		if cap < 0 {
			return nil, fmt.Errorf("capacity for unit %q is negative", unit)
		}
	}
	for svc, d := range demand {
		p.targets[svc] = d
	}
	// A service-scoped max below snapshot demand relaxes that
	// service's demand target rather than contradicting it.
	for _, con := range req.Constraints {
		if con.Type == core.ConstraintService && con.Max != nil {
			if _, ok := p.targets[con.Scope]; !ok {
				return nil, fmt.Errorf("constraint references unknown service %q", con.Scope)
			}
			if *con.Max < p.targets[con.Scope] {
				p.targets[con.Scope] = *con.Max
			}
		}
	}

	nVars := p.numVars()
	p.c = make([]float64, nVars)
	for si, svc := range p.Services {
		for ui, unit := range p.Units {
			p.c[p.xIndex(si, ui)] = -req.AffinityOverrides[svc][unit]
		}
		p.c[p.shortfallIndex(si)] = shortfallPenalty
	}

	var gRows [][]float64
	addLE := func(coeffs []float64, bound float64) {
		gRows = append(gRows, coeffs)
		p.h = append(p.h, bound)
	}

	// Per-unit totals may not exceed declared capacity.
	for ui, unit := range p.Units {
		row := make([]float64, nVars)
		for si := range p.Services {
			row[p.xIndex(si, ui)] = 1
		}
		addLE(row, float64(p.capacity[unit]))
	}

	for _, con := range req.Constraints {
		if err := p.addConstraint(con, addLE); err != nil {
			return nil, err
		}
	}

	for i := 0; i < nVars; i++ {
		row := make([]float64, nVars)
		row[i] = -1
		addLE(row, 0)
	}

	p.g = mat.NewDense(len(gRows), nVars, nil)
	for i, row := range gRows {
		p.g.SetRow(i, row)
	}

	// Each service's assignments plus its shortfall equal the demand
	// target exactly; minimizing the shortfall penalty then fills as
	// much demand as the capacity rows allow.
	p.a = mat.NewDense(len(p.Services), nVars, nil)
	p.b = make([]float64, len(p.Services))
	for si := range p.Services {
		for ui := range p.Units {
			p.a.Set(si, p.xIndex(si, ui), 1)
		}
		p.a.Set(si, p.shortfallIndex(si), 1)
		p.b[si] = float64(p.targets[p.Services[si]])
	}
	return p, nil
}

func (p *Problem) addConstraint(con core.Constraint, addLE func([]float64, float64)) error {
	nVars := p.numVars()
	switch con.Type {
	case core.ConstraintUnit:
		ui := indexOf(p.Units, con.Scope)
		if ui < 0 {
			return fmt.Errorf("constraint references unknown unit %q", con.Scope)
		}
		row := make([]float64, nVars)
		for si := range p.Services {
			row[p.xIndex(si, ui)] = 1
		}
		if con.Max != nil {
			addLE(row, float64(*con.Max))
		}
		if con.Min != nil {
			addLE(negate(row), -float64(*con.Min))
		}
	case core.ConstraintService:
		si := indexOf(p.Services, con.Scope)
		if si < 0 {
			return fmt.Errorf("constraint references unknown service %q", con.Scope)
		}
		// Max already folded into the demand target.
		if con.Min != nil {
			row := make([]float64, nVars)
			for ui := range p.Units {
				row[p.xIndex(si, ui)] = 1
			}
			addLE(negate(row), -float64(*con.Min))
		}
	case core.ConstraintPair:
		svc, unit, ok := strings.Cut(con.Scope, "/")
		if !ok {
			return fmt.Errorf("pair constraint scope %q is not service/unit", con.Scope)
		}
		si, ui := indexOf(p.Services, svc), indexOf(p.Units, unit)
		if si < 0 || ui < 0 {
			return fmt.Errorf("pair constraint references unknown pair %q", con.Scope)
		}
		row := make([]float64, nVars)
		row[p.xIndex(si, ui)] = 1
		if con.Max != nil {
			addLE(row, float64(*con.Max))
		}
		if con.Min != nil {
			addLE(negate(row), -float64(*con.Min))
		}
	default:
		return fmt.Errorf("unknown constraint type %q", con.Type)
	}
	return nil
}

func (p *Problem) numVars() int { return len(p.Services)*len(p.Units) + len(p.Services) }

func (p *Problem) xIndex(si, ui int) int { return si*len(p.Units) + ui }

func (p *Problem) shortfallIndex(si int) int { return len(p.Services)*len(p.Units) + si }

// Shortfalls returns the rounded unmet demand per service.
func (p *Problem) Shortfalls(x []float64) map[string]int {
	out := make(map[string]int)
	for si, svc := range p.Services {
		if n := int(math.Round(x[p.shortfallIndex(si)])); n > 0 {
			out[svc] = n
		}
	}
	return out
}

// Assignments rounds the solution and returns the positive
// (service, unit) cells ordered by service then unit.
func (p *Problem) Assignments(x []float64) []core.Assignment {
	var out []core.Assignment
	for si, svc := range p.Services {
		for ui, unit := range p.Units {
			if n := int(math.Round(x[p.xIndex(si, ui)])); n > 0 {
				out = append(out, core.Assignment{Service: svc, Unit: unit, PatientCount: n})
			}
		}
	}
	return out
}

// Verify checks the rounded assignments against the capacity and
// demand-target invariants. Vertex solutions of this program are
// integral when all inputs are, so a violation here means the solve
// went wrong, not the rounding.
func (p *Problem) Verify(assignments []core.Assignment) error {
	perUnit := make(map[string]int)
	perService := make(map[string]int)
	for _, a := range assignments {
		perUnit[a.Unit] += a.PatientCount
		perService[a.Service] += a.PatientCount
	}
	for unit, total := range perUnit {
		if total > p.capacity[unit] {
			return fmt.Errorf("unit %s assigned %d over capacity %d", unit, total, p.capacity[unit])
		}
	}
	for svc, target := range p.targets {
		if perService[svc] != target {
			return fmt.Errorf("service %s assigned %d, demand target is %d", svc, perService[svc], target)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func negate(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = -v
	}
	return out
}
