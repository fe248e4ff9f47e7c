package telemetry

import (
	"testing"
	"time"
)

// tick runs one tick through the given phases, sleeping d in each.
func tick(pc *PerfCollector, d time.Duration, phases ...string) {
	pc.StartTick()
	for _, ph := range phases {
		pc.StartPhase(ph)
		if d > 0 {
			time.Sleep(d)
		}
	}
	pc.EndTick()
}

func TestPerfCollector_PipelinePhases(t *testing.T) {
	pc := NewPerfCollector(8)
	for range 3 {
		tick(pc, 20*time.Microsecond, Phases...)
	}

	stats := pc.Stats()
	if len(stats.PhaseAvg) != len(Phases) {
		t.Fatalf("tracked %d phases, want %d", len(stats.PhaseAvg), len(Phases))
	}

	var total float64
	for _, ph := range Phases {
		if stats.PhaseAvg[ph] <= 0 {
			t.Errorf("phase %s: average %v, want > 0", ph, stats.PhaseAvg[ph])
		}
		total += stats.PhasePct[ph]
	}
	if total > 100.0001 {
		t.Errorf("phase percentages sum to %.3f, want <= 100", total)
	}
}

func TestPerfCollector_RepeatedPhaseAccumulates(t *testing.T) {
	pc := NewPerfCollector(4)

	// Jacobi iterations re-enter the pressure phase within one tick.
	tick(pc, time.Millisecond, PhasePressure, PhaseGradient, PhasePressure)

	stats := pc.Stats()
	if got := stats.PhaseAvg[PhasePressure]; got < 2*time.Millisecond {
		t.Errorf("pressure average %v, want >= 2ms", got)
	}
	if stats.PhasePct[PhasePressure] <= stats.PhasePct[PhaseGradient] {
		t.Errorf("pressure %.1f%% should exceed gradient %.1f%%",
			stats.PhasePct[PhasePressure], stats.PhasePct[PhaseGradient])
	}
}

func TestPerfCollector_WindowEvictsOldTicks(t *testing.T) {
	pc := NewPerfCollector(2)

	tick(pc, 5*time.Millisecond, PhaseAdvectDye)
	for range 3 {
		tick(pc, 0, PhaseAdvectDye)
	}

	stats := pc.Stats()
	if stats.MaxTickDuration >= 5*time.Millisecond {
		t.Errorf("slow tick still in window: max %v", stats.MaxTickDuration)
	}
	if stats.MinTickDuration > stats.AvgTickDuration || stats.AvgTickDuration > stats.MaxTickDuration {
		t.Errorf("min/avg/max out of order: %v %v %v",
			stats.MinTickDuration, stats.AvgTickDuration, stats.MaxTickDuration)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("empty collector reported timing: %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("expected non-nil phase maps")
	}
}

func TestPerfCollector_FrameRate(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.RecordFrame()
	if fps := pc.Stats().FPS; fps != 0 {
		t.Errorf("FPS after one frame = %v, want 0", fps)
	}

	time.Sleep(20 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 20*time.Millisecond {
		t.Errorf("frame duration %v, want >= 20ms", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 50 {
		t.Errorf("FPS = %v, want in (0, 50]", stats.FPS)
	}
}

func TestPerfCollector_NilIsNoop(t *testing.T) {
	var pc *PerfCollector
	pc.StartTick()
	pc.StartPhase(PhaseCurl)
	pc.EndTick()
	pc.RecordFrame()
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct:        map[string]float64{PhasePressure: 40, PhaseBlur: 5},
	}
	row := s.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 2000 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.PressurePct != 40 || row.BlurPct != 5 || row.CurlPct != 0 {
		t.Errorf("unexpected phase columns: %+v", row)
	}
}
