package audit

import (
	"errors"
	"math"
	"testing"
)

func countsSnapshot(counts ...int) Snapshot {
	components := make([]Component, 0, len(counts))
	for i, n := range counts {
		components = append(components, component(string(rune('a'+i)), file(string(rune('a'+i))+"/m.py", n)))
	}
	return snapshotOf(components...)
}

func TestComputeStatsSampleDeviation(t *testing.T) {
	st, err := ComputeStats(countsSnapshot(10, 10, 10, 100))
	if err != nil {
		t.Fatalf("ComputeStats returned error: %v", err)
	}
	if st.Mean != 32.5 {
		t.Fatalf("expected mean 32.5, got %v", st.Mean)
	}
	// sqrt(6075 / 3)
	if math.Abs(st.StdDev-45) > 1e-9 {
		t.Fatalf("expected sample stddev 45, got %v", st.StdDev)
	}
}

func TestComponentOutliersRespectThreshold(t *testing.T) {
	snap := countsSnapshot(10, 10, 10, 100)
	st, err := ComputeStats(snap)
	if err != nil {
		t.Fatal(err)
	}

	flagged := ComponentOutliers(snap, st, 1.0)
	if len(flagged) != 1 || flagged[0].Paths[0] != "d" {
		t.Fatalf("expected only the 100-statement component flagged, got %+v", flagged)
	}
	if got := ComponentOutliers(snap, st, 5.0); len(got) != 0 {
		t.Fatalf("expected no outliers at threshold 5, got %+v", got)
	}
}

func TestComputeStatsInsufficientData(t *testing.T) {
	for _, snap := range []Snapshot{countsSnapshot(), countsSnapshot(7)} {
		_, err := ComputeStats(snap)
		if !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("expected ErrInsufficientData for %d components, got %v", len(snap.Components), err)
		}
		var ide *InsufficientDataError
		if !errors.As(err, &ide) || ide.Components != len(snap.Components) {
			t.Fatalf("expected InsufficientDataError with count %d, got %v", len(snap.Components), err)
		}
	}
}

func TestUniformComponentsHaveNoOutliers(t *testing.T) {
	snap := countsSnapshot(5, 5, 5)
	st, err := ComputeStats(snap)
	if err != nil {
		t.Fatal(err)
	}
	if st.StdDev != 0 {
		t.Fatalf("expected zero stddev, got %v", st.StdDev)
	}
	if got := ComponentOutliers(snap, st, 0.5); len(got) != 0 {
		t.Fatalf("expected no outliers, got %+v", got)
	}
}
