// Package telemetry collects timing and occupancy statistics for
// simulation runs and writes structured CSV output.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names for the simulation run.
const (
	PhaseGenerate = "generate"
	PhaseSnapshot = "snapshot"
	PhaseKernel   = "kernel"
	PhaseReduce   = "reduce"
	PhaseApply    = "apply"
)

// PerfSample holds timing data for a single run segment.
type PerfSample struct {
	RunDuration time.Duration
	Phases      map[string]time.Duration
}

// PerfCollector tracks phase timings over a rolling window of runs.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	runStart      time.Time
	phaseStart    time.Time
	lastPhase     string
}

// NewPerfCollector creates a collector averaging over windowSize runs.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 16
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartRun begins timing a new run.
func (p *PerfCollector) StartRun() {
	p.runStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a phase, closing the previous one.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndRun closes the current phase and records the sample.
func (p *PerfCollector) EndRun() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}

	p.samples[p.writeIndex] = PerfSample{
		RunDuration: now.Sub(p.runStart),
		Phases:      p.currentPhases,
	}
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// PerfStats holds aggregated timings over the window.
type PerfStats struct {
	Samples        int
	AvgRunDuration time.Duration
	PhaseAvg       map[string]time.Duration
}

// Stats aggregates the recorded samples.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{PhaseAvg: make(map[string]time.Duration)}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	phaseTotals := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.RunDuration
		for name, d := range s.Phases {
			phaseTotals[name] += d
		}
	}

	n := time.Duration(p.sampleCount)
	stats.Samples = p.sampleCount
	stats.AvgRunDuration = total / n
	for name, d := range phaseTotals {
		stats.PhaseAvg[name] = d / n
	}
	return stats
}

// LogStats emits the aggregated timings via slog.
func (p *PerfCollector) LogStats() {
	stats := p.Stats()
	attrs := []any{
		"samples", stats.Samples,
		"avg_run", stats.AvgRunDuration.Round(time.Microsecond).String(),
	}
	for _, name := range []string{PhaseGenerate, PhaseSnapshot, PhaseKernel, PhaseReduce, PhaseApply} {
		if d, ok := stats.PhaseAvg[name]; ok {
			attrs = append(attrs, name, d.Round(time.Microsecond).String())
		}
	}
	slog.Info("perf", attrs...)
}
