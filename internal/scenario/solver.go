package scenario

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible reports that no assignment satisfies the constraint
// set. It is an expected outcome, not a fault.
var ErrInfeasible = errors.New("no feasible assignment satisfies the constraints")

// Solution is a raw solver answer before rounding and verification.
type Solution struct {
	X         []float64
	Objective float64
}

// Solver turns a built Problem into a Solution. The bridge's state
// machine depends only on this interface so the underlying
// linear-programming implementation can be swapped out.
type Solver interface {
	Solve(p *Problem) (*Solution, error)
}

// SimplexSolver solves problems with gonum's simplex method.
type SimplexSolver struct {
	// Tol is the simplex tolerance; zero selects gonum's default.
	Tol float64
}

func (s *SimplexSolver) Solve(p *Problem) (*Solution, error) {
	// Convert the general form to standard form. Converted variables
	// are split into positive and negative parts, so the original
	// value of variable i is x[i] - x[n+i].
	c, aEq, bEq, err := toStandardForm(p)
	if err != nil {
		return nil, err
	}
	opt, x, err := lp.Simplex(c, aEq, bEq, s.Tol, nil)
	if err != nil {
		if errors.Is(err, lp.ErrInfeasible) {
			return nil, ErrInfeasible
		}
		return nil, fmt.Errorf("simplex: %w", err)
	}
	n := p.numVars()
	orig := make([]float64, n)
	for i := range orig {
		orig[i] = x[i] - x[n+i]
	}
	return &Solution{X: orig, Objective: opt}, nil
}

// toStandardForm wraps lp.Convert, which panics on malformed input
// rather than returning an error.
func toStandardForm(p *Problem) (c []float64, aEq *mat.Dense, bEq []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("building standard form: %v", r)
		}
	}()
	c, aEq, bEq = lp.Convert(p.c, p.g, p.h, p.a, p.b)
	return c, aEq, bEq, nil
}
