package sim

import (
	"context"
	"sync"
)

// Batch runs independent simulations, one per parameter set, concurrently.
// Each run owns its Simulation so nothing is shared between goroutines.
type Batch struct {
	params  []Params
	metrics func() []Metric
}

// NewBatch prepares a batch; metrics, if non-nil, builds a fresh metric set
// for every run.
func NewBatch(params []Params, metrics func() []Metric) *Batch {
	return &Batch{params: params, metrics: metrics}
}

func (b *Batch) Run(ctx context.Context, dt float64, steps int) ([]*Result, error) {
	results := make([]*Result, len(b.params))
	errs := make([]error, len(b.params))

	var wg sync.WaitGroup
	for i := range b.params {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s := New()
			if b.metrics != nil {
				for _, m := range b.metrics() {
					s.AddMetric(m)
				}
			}
			if err := s.Configure(b.params[idx]); err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, dt, steps)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
