package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorBasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartRun()
		pc.StartPhase(PhaseKernel)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseReduce)
		time.Sleep(200 * time.Microsecond)
		pc.EndRun()
	}

	stats := pc.Stats()

	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want 5", stats.Samples)
	}
	if stats.AvgRunDuration <= 0 {
		t.Error("expected positive average run duration")
	}
	if _, ok := stats.PhaseAvg[PhaseKernel]; !ok {
		t.Error("expected kernel phase to be tracked")
	}
	if _, ok := stats.PhaseAvg[PhaseReduce]; !ok {
		t.Error("expected reduce phase to be tracked")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	// Overfill the window; the sample count must clamp to its size.
	for i := 0; i < 12; i++ {
		pc.StartRun()
		pc.StartPhase(PhaseKernel)
		pc.EndRun()
	}

	stats := pc.Stats()
	if stats.Samples != 5 {
		t.Errorf("Samples = %d, want window size 5", stats.Samples)
	}
	if stats.AvgRunDuration < 0 {
		t.Error("expected non-negative average run duration")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	pc := NewPerfCollector(5)
	stats := pc.Stats()

	if stats.Samples != 0 {
		t.Errorf("Samples = %d, want 0", stats.Samples)
	}
	if stats.AvgRunDuration != 0 {
		t.Errorf("AvgRunDuration = %v, want 0", stats.AvgRunDuration)
	}
}

func TestPerfCollectorPhaseSplit(t *testing.T) {
	pc := NewPerfCollector(4)

	pc.StartRun()
	pc.StartPhase(PhaseGenerate)
	time.Sleep(time.Millisecond)
	pc.StartPhase(PhaseKernel)
	time.Sleep(3 * time.Millisecond)
	pc.EndRun()

	stats := pc.Stats()
	gen := stats.PhaseAvg[PhaseGenerate]
	kern := stats.PhaseAvg[PhaseKernel]
	if gen <= 0 || kern <= 0 {
		t.Fatalf("expected positive phase averages, got generate=%v kernel=%v", gen, kern)
	}
	if kern < gen {
		t.Errorf("kernel phase (%v) should dominate generate (%v)", kern, gen)
	}
	if sum := gen + kern; sum > stats.AvgRunDuration {
		t.Errorf("phase sum %v exceeds run duration %v", sum, stats.AvgRunDuration)
	}
}
