package audit

import (
	"fmt"
	"math"
)

// Stats summarizes the distribution of component statement counts.
type Stats struct {
	Components int     `json:"components"`
	Mean       float64 `json:"mean"`
	StdDev     float64 `json:"stdDev"` // sample, divisor N-1
}

// ComputeStats returns the mean and sample standard deviation of component
// statement counts. Fewer than two components is an InsufficientDataError.
func ComputeStats(s Snapshot) (Stats, error) {
	n := len(s.Components)
	if n < 2 {
		return Stats{}, &InsufficientDataError{Components: n}
	}

	mean := float64(s.StatementCount) / float64(n)
	squareDiffSum := 0.0
	for _, c := range s.Components {
		diff := math.Abs(float64(c.StatementCount) - mean)
		squareDiffSum += diff * diff
	}
	return Stats{
		Components: n,
		Mean:       mean,
		StdDev:     math.Sqrt(squareDiffSum / float64(n-1)),
	}, nil
}

// ZScore returns |count - mean| / stddev. A zero deviation means every
// component has the same size, so nothing deviates.
func (st Stats) ZScore(count int) float64 {
	if st.StdDev == 0 {
		return 0
	}
	return math.Abs(float64(count)-st.Mean) / st.StdDev
}

// ComponentOutliers flags components whose z-score exceeds threshold.
func ComponentOutliers(s Snapshot, st Stats, threshold float64) []Finding {
	var findings []Finding
	for _, c := range s.Components {
		z := st.ZScore(c.StatementCount)
		if z <= threshold {
			continue
		}
		findings = append(findings, Finding{
			Category: CategoryComponentOutlier,
			Message: fmt.Sprintf("component %s has %d statements, %.2f standard deviations from the mean %.2f (stddev %.2f, threshold %.2f)",
				c.Path, c.StatementCount, z, st.Mean, st.StdDev, threshold),
			Paths: []string{c.Path},
		})
	}
	return findings
}
