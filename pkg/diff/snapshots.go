package diff

import (
	"fmt"
	"math"

	"github.com/framecheck-labs/framecheck/pkg/snapshot"
)

// Snapshots compares two statistical fingerprints column by column. Columns
// present in only one snapshot are reported as additions or removals and not
// compared statistically. Snapshots from different sketch algorithms are not
// comparable at all.
func Snapshots(old, new *snapshot.Snapshot, t Thresholds) (*Report, error) {
	if old.Algorithm != new.Algorithm {
		return nil, &snapshot.IncompatibleSnapshotError{OldAlgorithm: old.Algorithm, NewAlgorithm: new.Algorithm}
	}
	t = t.withDefaults()
	rep := &Report{}

	oldNames := make(map[string]struct{}, len(old.Columns))
	for _, c := range old.Columns {
		oldNames[c.Name] = struct{}{}
	}

	for i := range old.Columns {
		oc := &old.Columns[i]
		nc := new.Column(oc.Name)
		if nc == nil {
			rep.add(Change{
				Kind: ColumnRemoved, Column: oc.Name, Breaking: true,
				Detail: fmt.Sprintf("column %q absent from new snapshot", oc.Name),
			})
			continue
		}
		if oc.DType != nc.DType {
			rep.add(Change{
				Kind: DTypeChanged, Column: oc.Name, Breaking: true,
				Detail: fmt.Sprintf("column %q observed dtype changed", oc.Name),
				From:   string(oc.DType), To: string(nc.DType),
			})
			continue
		}
		compareColumnStats(rep, t, oc, nc)
	}
	for i := range new.Columns {
		nc := &new.Columns[i]
		if _, ok := oldNames[nc.Name]; ok {
			continue
		}
		rep.add(Change{
			Kind: ColumnAdded, Column: nc.Name, Breaking: false,
			Detail: fmt.Sprintf("column %q only in new snapshot", nc.Name),
		})
	}
	return rep, nil
}

// compareColumnStats emits one stat_drift change per statistic whose delta
// crosses its threshold.
func compareColumnStats(rep *Report, t Thresholds, old, new *snapshot.ColumnStats) {
	if delta := math.Abs(new.NullRatio - old.NullRatio); delta > t.NullRatio {
		rep.add(Change{
			Kind: StatDrift, Column: old.Name, Breaking: true,
			Detail: fmt.Sprintf("null ratio drifted by %.4f (threshold %.4f)", delta, t.NullRatio),
			From:   fmt.Sprintf("%.4f", old.NullRatio), To: fmt.Sprintf("%.4f", new.NullRatio),
		})
	}

	if old.DistinctCount > 0 {
		rel := math.Abs(float64(new.DistinctCount-old.DistinctCount)) / float64(old.DistinctCount)
		if rel > t.DistinctCount {
			rep.add(Change{
				Kind: StatDrift, Column: old.Name, Breaking: true,
				Detail: fmt.Sprintf("distinct count drifted by %.0f%% (threshold %.0f%%)", rel*100, t.DistinctCount*100),
				From:   fmt.Sprint(old.DistinctCount), To: fmt.Sprint(new.DistinctCount),
			})
		}
	}

	if p, delta, drifted := quantileDrift(old.Quantiles, new.Quantiles, t.Quantile); drifted {
		rep.add(Change{
			Kind: StatDrift, Column: old.Name, Breaking: true,
			Detail: fmt.Sprintf("quantile p%.0f drifted by %.0f%% (threshold %.0f%%)", p*100, delta*100, t.Quantile*100),
		})
	}

	if churn := categoryChurn(old.TopValues, new.TopValues); churn > t.CategoryChurn {
		rep.add(Change{
			Kind: StatDrift, Column: old.Name, Breaking: true,
			Detail: fmt.Sprintf("top categories churned by %.0f%% of mass (threshold %.0f%%)", churn*100, t.CategoryChurn*100),
		})
	}
}

// quantileDrift returns the worst relative delta across shared quantile
// points, and whether it crosses the threshold. A zero baseline drifts on any
// nonzero new value.
func quantileDrift(old, new []snapshot.QuantilePoint, threshold float64) (p, delta float64, drifted bool) {
	newByP := make(map[float64]float64, len(new))
	for _, q := range new {
		newByP[q.P] = q.Value
	}
	worst := -1.0
	for _, q := range old {
		nv, ok := newByP[q.P]
		if !ok {
			continue
		}
		var rel float64
		switch {
		case q.Value != 0:
			rel = math.Abs(nv-q.Value) / math.Abs(q.Value)
		case nv != 0:
			rel = math.Inf(1)
		}
		if rel > worst {
			worst, p = rel, q.P
		}
	}
	if worst > threshold {
		return p, worst, true
	}
	return 0, 0, false
}

// categoryChurn is the larger of the frequency mass that left the top values
// and the mass that entered them.
func categoryChurn(old, new []snapshot.ValueFreq) float64 {
	if len(old) == 0 && len(new) == 0 {
		return 0
	}
	oldSet := make(map[string]struct{}, len(old))
	for _, v := range old {
		oldSet[v.Value] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(new))
	for _, v := range new {
		newSet[v.Value] = struct{}{}
	}
	var left, entered float64
	for _, v := range old {
		if _, ok := newSet[v.Value]; !ok {
			left += v.Ratio
		}
	}
	for _, v := range new {
		if _, ok := oldSet[v.Value]; !ok {
			entered += v.Ratio
		}
	}
	return math.Max(left, entered)
}
