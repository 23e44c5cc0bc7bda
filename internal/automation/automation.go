package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/swaysim/internal/metrics"
	"github.com/san-kum/swaysim/internal/sim"
)

// Scenario is a scripted headless run: timed parameter changes and damper
// tuning applied while the simulation ticks.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Dt          float64            `yaml:"dt"`
	Duration    float64            `yaml:"duration"`
	Params      map[string]float64 `yaml:"params"`
	Events      []Event            `yaml:"events"`
}

// Event fires once the simulation clock reaches At.
type Event struct {
	At   float64            `yaml:"at"`
	Set  map[string]float64 `yaml:"set"`
	Tune bool               `yaml:"tune"`
	Note string             `yaml:"note"`
}

// EventLog records what an event did.
type EventLog struct {
	At     float64
	Time   float64
	Note   string
	Tuned  float64 // new damper length when Tune was set
	Errors []error
}

type ScenarioResult struct {
	*sim.Result
	Events []EventLog
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if scenario.Dt <= 0 {
		return nil, fmt.Errorf("scenario %q: dt must be positive", scenario.Name)
	}
	if scenario.Duration <= 0 {
		return nil, fmt.Errorf("scenario %q: duration must be positive", scenario.Name)
	}
	sort.SliceStable(scenario.Events, func(i, j int) bool {
		return scenario.Events[i].At < scenario.Events[j].At
	})
	return &scenario, nil
}

// RunScenario applies the scenario's base params to s, then runs it in
// segments between events. A rejected parameter change is logged on the
// event and the run continues with the previous configuration.
func RunScenario(ctx context.Context, s *sim.Simulation, sc *Scenario) (*ScenarioResult, error) {
	for _, name := range sortedKeys(sc.Params) {
		if err := s.SetParam(name, sc.Params[name]); err != nil {
			return nil, fmt.Errorf("scenario %q param %s: %w", sc.Name, name, err)
		}
	}

	total := int(math.Round(sc.Duration / sc.Dt))
	out := &ScenarioResult{
		Result: &sim.Result{Metrics: make(map[string]float64)},
		Events: make([]EventLog, 0, len(sc.Events)),
	}

	done := 0
	next := 0
	for done < total {
		for next < len(sc.Events) && sc.Events[next].At <= float64(done)*sc.Dt+sc.Dt/2 {
			out.Events = append(out.Events, apply(s, sc.Events[next]))
			next++
		}

		steps := total - done
		if next < len(sc.Events) {
			until := int(math.Ceil(sc.Events[next].At/sc.Dt - 0.5))
			steps = max(min(until-done, steps), 1)
		}

		r, err := s.Run(ctx, sc.Dt, steps)
		if r != nil {
			merge(out.Result, r)
		}
		if err != nil {
			return out, fmt.Errorf("scenario %q: %w", sc.Name, err)
		}
		done += steps
	}
	return out, nil
}

func apply(s *sim.Simulation, e Event) EventLog {
	entry := EventLog{At: e.At, Time: s.Time(), Note: e.Note}
	for _, name := range sortedKeys(e.Set) {
		if err := s.SetParam(name, e.Set[name]); err != nil {
			entry.Errors = append(entry.Errors, err)
		}
	}
	if e.Tune {
		l, err := s.TuneDamper()
		if err != nil {
			entry.Errors = append(entry.Errors, err)
		} else {
			entry.Tuned = l
		}
	}
	return entry
}

func merge(dst, src *sim.Result) {
	dst.Times = append(dst.Times, src.Times...)
	dst.WithTMD = append(dst.WithTMD, src.WithTMD...)
	dst.NoTMD = append(dst.NoTMD, src.NoTMD...)
	dst.DamperAngles = append(dst.DamperAngles, src.DamperAngles...)
	dst.Errors = append(dst.Errors, src.Errors...)
	dst.StepsTaken += src.StepsTaken
	dst.Final = src.Final
	for k, v := range src.Metrics {
		dst.Metrics[k] = v
	}
}

// ParameterSweep runs one simulation per value of a named parameter.
type ParameterSweep struct {
	Base      sim.Params
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
	Dt        float64
}

type SweepResult struct {
	ParamValue         float64
	DampedAmplitude    float64
	ReferenceAmplitude float64
	PeakWithTMD        float64
	PeakNoTMD          float64
	Reduction          float64 // percent
}

// RunSweep evaluates the sweep concurrently with sim.Batch.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	if sweep.Dt <= 0 || sweep.Duration <= 0 {
		return nil, fmt.Errorf("sweep needs positive dt and duration")
	}

	values := make([]float64, sweep.NumSteps)
	params := make([]sim.Params, sweep.NumSteps)
	paramStep := 0.0
	if sweep.NumSteps > 1 {
		paramStep = (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)
	}
	for i := range values {
		values[i] = sweep.ParamMin + float64(i)*paramStep
		if sweep.ParamName == "segments" {
			values[i] = math.Round(values[i])
		}
		p, err := sweep.Base.With(sweep.ParamName, values[i])
		if err != nil {
			return nil, err
		}
		params[i] = p
	}

	steps := int(math.Round(sweep.Duration / sweep.Dt))
	batch := sim.NewBatch(params, func() []sim.Metric {
		return []sim.Metric{metrics.NewPeak(sim.Primary), metrics.NewPeak(sim.Reference)}
	})
	runs, err := batch.Run(ctx, sweep.Dt, steps)
	if err != nil {
		return nil, err
	}

	results := make([]SweepResult, len(runs))
	for i, r := range runs {
		results[i] = SweepResult{
			ParamValue:         values[i],
			DampedAmplitude:    r.Final.DampedAmplitude,
			ReferenceAmplitude: r.Final.ReferenceAmplitude,
			PeakWithTMD:        r.Metrics["peak_primary"],
			PeakNoTMD:          r.Metrics["peak_reference"],
			Reduction:          metrics.Reduction(r.WithTMD, r.NoTMD),
		}
	}
	return results, nil
}

// FrequencyResponse is the closed-form amplitude at each resonance ratio,
// without ticking.
func FrequencyResponse(base sim.Params, ratios []float64) ([]SweepResult, error) {
	results := make([]SweepResult, 0, len(ratios))
	s := sim.New()
	for _, r := range ratios {
		p, err := base.With("resonance_ratio", r)
		if err != nil {
			return nil, err
		}
		if err := s.Configure(p); err != nil {
			return nil, err
		}
		s.Reset()
		f, err := s.Tick(0)
		if err != nil {
			results = append(results, SweepResult{ParamValue: r, DampedAmplitude: math.NaN(), ReferenceAmplitude: math.NaN()})
			continue
		}
		red := 0.0
		if f.ReferenceAmplitude > 0 {
			red = (1 - f.DampedAmplitude/f.ReferenceAmplitude) * 100
		}
		results = append(results, SweepResult{
			ParamValue:         r,
			DampedAmplitude:    f.DampedAmplitude,
			ReferenceAmplitude: f.ReferenceAmplitude,
			Reduction:          red,
		})
	}
	return results, nil
}

// MonteCarloConfig perturbs the wind speed and forcing ratio of a base
// configuration to estimate how often the building overstresses.
type MonteCarloConfig struct {
	Base            sim.Params
	WindSpread      float64 // ± m/s
	ResonanceSpread float64 // ± percent points
	NumTrials       int
	Duration        float64
	Dt              float64
	DriftThreshold  float64
	Seed            int64
}

type MonteCarloResult struct {
	TrialID        int
	WindSpeed      float64
	ResonanceRatio float64
	PeakWithTMD    float64
	PeakNoTMD      float64
	Overstressed   bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs at least one trial")
	}
	if cfg.Dt <= 0 || cfg.Duration <= 0 {
		return nil, fmt.Errorf("monte carlo needs positive dt and duration")
	}
	threshold := cfg.DriftThreshold
	if threshold <= 0 {
		threshold = metrics.DefaultDriftThreshold
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	params := make([]sim.Params, cfg.NumTrials)
	results := make([]MonteCarloResult, cfg.NumTrials)
	for i := range params {
		p := cfg.Base
		p.Dynamics.WindSpeed = math.Max(0, p.Dynamics.WindSpeed+(rng.Float64()-0.5)*2*cfg.WindSpread)
		p.Dynamics.ResonanceRatio = math.Max(0, p.Dynamics.ResonanceRatio+(rng.Float64()-0.5)*2*cfg.ResonanceSpread)
		params[i] = p
		results[i] = MonteCarloResult{
			TrialID:        i,
			WindSpeed:      p.Dynamics.WindSpeed,
			ResonanceRatio: p.Dynamics.ResonanceRatio,
		}
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	runs, err := sim.NewBatch(params, func() []sim.Metric {
		return []sim.Metric{metrics.NewPeak(sim.Primary), metrics.NewPeak(sim.Reference)}
	}).Run(ctx, cfg.Dt, steps)
	if err != nil {
		return nil, err
	}

	for i, r := range runs {
		results[i].PeakWithTMD = r.Metrics["peak_primary"]
		results[i].PeakNoTMD = r.Metrics["peak_reference"]
		results[i].Overstressed = metrics.Overstressed(results[i].PeakWithTMD, params[i].Dynamics.Height, threshold)
	}
	return results, nil
}

// MonteCarloStats counts trials that stayed within and exceeded the drift
// threshold.
func MonteCarloStats(results []MonteCarloResult) (safeCount int, overstressedCount int) {
	for _, r := range results {
		if r.Overstressed {
			overstressedCount++
		} else {
			safeCount++
		}
	}
	return
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
