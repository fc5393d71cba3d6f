package models

import (
	"sync"
	"testing"
	"time"
)

func TestTierLevel(t *testing.T) {
	if TierLeaf.Level() != 0 {
		t.Errorf("Expected leaf level 0, got %d", TierLeaf.Level())
	}
	if TierCloud.Level() != 4 {
		t.Errorf("Expected cloud level 4, got %d", TierCloud.Level())
	}
	if Tier("edge").Valid() {
		t.Error("Unknown tier should not be valid")
	}
}

func TestFlowRateAndWindow(t *testing.T) {
	f := &Flow{
		PayloadBytes: 1500,
		Interval:     150 * time.Millisecond,
		Start:        time.Second,
		Stop:         20 * time.Second,
	}

	if got := f.RateBps(); got < 79999 || got > 80001 {
		t.Errorf("Expected rate 80000 bps, got %f", got)
	}
	if f.ActiveWindow() != 19*time.Second {
		t.Errorf("Expected active window 19s, got %v", f.ActiveWindow())
	}

	f.Start = 25 * time.Second
	if f.ActiveWindow() != 0 {
		t.Errorf("Expected zero window when start is after stop, got %v", f.ActiveWindow())
	}
}

func TestScenarioParamsPresentTiers(t *testing.T) {
	p := ScenarioParams{Sizes: map[Tier]int{
		TierLeaf:   6,
		TierAccess: 2,
		TierCloud:  1,
	}}

	tiers := p.PresentTiers()
	if len(tiers) != 3 {
		t.Fatalf("Expected 3 present tiers, got %d", len(tiers))
	}
	if tiers[0] != TierLeaf || tiers[1] != TierAccess || tiers[2] != TierCloud {
		t.Errorf("Unexpected tier order: %v", tiers)
	}
	if p.Size(TierCore) != 0 {
		t.Errorf("Expected absent core tier, got %d", p.Size(TierCore))
	}
}

func TestLinkResultConserved(t *testing.T) {
	r := LinkResult{Offered: 10, Forwarded: 7, Dropped: 2, Stranded: 1}
	if !r.Conserved() {
		t.Error("Expected link counters to be conserved")
	}
	r.Forwarded = 6
	if r.Conserved() {
		t.Error("Expected missing packet to break conservation")
	}
}

func TestBatchReportConcurrentRecord(t *testing.T) {
	report := &BatchReport{BatchID: "batch-1"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			status := ScenarioStatusSucceeded
			if idx%10 == 0 {
				status = ScenarioStatusFailed
			}
			report.Record(ScenarioOutcome{Index: idx, Status: status})
		}(i)
	}
	wg.Wait()
	report.Finish(time.Now())

	if len(report.Outcomes) != 50 {
		t.Fatalf("Expected 50 outcomes, got %d", len(report.Outcomes))
	}
	if report.Succeeded != 45 || report.Failed != 5 {
		t.Errorf("Expected 45/5 succeeded/failed, got %d/%d", report.Succeeded, report.Failed)
	}
	for i, o := range report.Outcomes {
		if o.Index != i {
			t.Fatalf("Outcomes not sorted: position %d holds index %d", i, o.Index)
		}
	}
	if o, ok := report.Outcome(30); !ok || o.Status != ScenarioStatusFailed {
		t.Errorf("Expected scenario 30 to be failed, got %+v", o)
	}
}
