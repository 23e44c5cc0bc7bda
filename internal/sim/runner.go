package sim

import (
	"context"
	"fmt"
)

// Result is the recorded series of a headless run.
type Result struct {
	Times        []float64
	WithTMD      []float64
	NoTMD        []float64
	DamperAngles []float64
	Metrics      map[string]float64
	Final        Outputs
	StepsTaken   int
	Errors       []error
}

// Run ticks the simulation steps times with a fixed dt and records every
// frame. Tick errors are collected; the run carries on with the held frame.
func (s *Simulation) Run(ctx context.Context, dt float64, steps int) (*Result, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", dt)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	result := &Result{
		Times:        make([]float64, 0, steps),
		WithTMD:      make([]float64, 0, steps),
		NoTMD:        make([]float64, 0, steps),
		DamperAngles: make([]float64, 0, steps),
		Metrics:      make(map[string]float64),
		Errors:       make([]error, 0),
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		f, err := s.Tick(dt)
		if err != nil {
			result.Errors = append(result.Errors, SimError{Step: i, Time: s.Time(), Err: err})
			continue
		}

		result.StepsTaken++
		result.Times = append(result.Times, f.Time)
		result.WithTMD = append(result.WithTMD, f.Displacement)
		result.NoTMD = append(result.NoTMD, f.ReferenceDisplacement)
		result.DamperAngles = append(result.DamperAngles, f.DamperAngle)
	}

	result.Final = s.CurrentOutputs()
	for k, v := range s.Metrics() {
		result.Metrics[k] = v
	}
	return result, nil
}

// SimError ties a tick error to its step.
type SimError struct {
	Step int
	Time float64
	Err  error
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Err)
}

func (e SimError) Unwrap() error { return e.Err }
