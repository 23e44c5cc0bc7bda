package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/swaysim/internal/dynamo"
	"github.com/san-kum/swaysim/internal/physics"
)

// Candidate is one evaluated (length, mass) pair.
type Candidate struct {
	DamperLength float64
	DamperMass   float64
	Amplitude    float64 // |u|, metres
	Valid        bool
}

// GridSearch scans damper length and mass for the pair that minimizes the
// building amplitude under fixed wind and building inputs.
type GridSearch struct {
	lengths []float64
	masses  []float64
}

func NewGridSearch(lengths, masses []float64) *GridSearch {
	return &GridSearch{lengths: lengths, masses: masses}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}

// Result holds the best candidate and the full grid, row-major by length.
type Result struct {
	Best Candidate
	Grid []Candidate
}

// Search evaluates every grid point in parallel. Points the closed form
// rejects are marked invalid and skipped.
func (g *GridSearch) Search(ctx context.Context, base physics.Inputs, cal physics.Calibration) (*Result, error) {
	if len(g.lengths) == 0 || len(g.masses) == 0 {
		return nil, errors.New("optim: empty grid")
	}

	grid := make([]Candidate, len(g.lengths)*len(g.masses))
	dynamo.ParallelFor(len(grid), 16, func(start, end int) {
		for i := start; i < end; i++ {
			if ctx.Err() != nil {
				return
			}
			in := base
			in.DamperLength = g.lengths[i/len(g.masses)]
			in.DamperMass = g.masses[i%len(g.masses)]

			c := Candidate{DamperLength: in.DamperLength, DamperMass: in.DamperMass, Amplitude: math.Inf(1)}
			if resp, err := physics.Evaluate(in, cal); err == nil {
				c.Amplitude = math.Abs(resp.Amplitude)
				c.Valid = true
			}
			grid[i] = c
		}
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := -1
	for i, c := range grid {
		if c.Valid && (best < 0 || c.Amplitude < grid[best].Amplitude) {
			best = i
		}
	}
	if best < 0 {
		return nil, fmt.Errorf("optim: no valid damper in grid: %w", dynamo.ErrInvalidState)
	}
	return &Result{Best: grid[best], Grid: grid}, nil
}
