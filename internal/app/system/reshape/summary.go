package reshape

import (
	"github.com/dalemusser/stratametrics/internal/domain/models"
)

// Summarize computes mean, max, min and the last value of obs. Last is the
// final observation in slice (column) order, not the largest period. ok is
// false when obs is empty; callers treat the metric as not displayable.
//
// Periods is set to len(obs); callers that know how many columns were
// considered overwrite it so dropped cells stay visible.
func Summarize(obs []models.TidyObservation) (models.MetricSummary, bool) {
	if len(obs) == 0 {
		return models.MetricSummary{}, false
	}

	s := models.MetricSummary{
		Metric:  obs[0].Metric,
		Max:     obs[0].Value,
		Min:     obs[0].Value,
		Count:   len(obs),
		Periods: len(obs),
	}

	var sum float64
	for _, o := range obs {
		sum += o.Value
		if o.Value > s.Max {
			s.Max = o.Value
		}
		if o.Value < s.Min {
			s.Min = o.Value
		}
	}
	last := obs[len(obs)-1]
	s.Mean = sum / float64(len(obs))
	s.Last = last.Value
	s.LastPeriod = last.Period
	return s, true
}
