package agent

import "sweeper-lite/mines"

// Heuristic needs no model. A cell with no revealed neighbours scores 0.5.
// Revealed neighbours pull the score up when their mean count is below 2 and
// down above it, more so the more of them there are.
type Heuristic struct{}

func (Heuristic) Score(v mines.FeatureVector) (float64, error) {
	known := v.Known()
	if known == 0 {
		return 0.5, nil
	}
	sum := 0
	for _, x := range v {
		if x != mines.FeatureUnknown {
			sum += x
		}
	}
	risk := min(float64(sum)/float64(known)/4, 1)
	confidence := float64(known) / mines.FeatureLen
	return 0.5 + confidence*(0.5-risk), nil
}
