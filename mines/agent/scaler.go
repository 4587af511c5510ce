package agent

import "github.com/pkg/errors"

// Scaler standardises inputs as (x - mean) / scale, using parameters fitted
// elsewhere. A zero scale leaves that input centred but unscaled.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *Scaler) validate(width int) error {
	if len(s.Mean) != width || len(s.Scale) != width {
		return errors.Errorf("scaler expects %d inputs, has mean=%d scale=%d", width, len(s.Mean), len(s.Scale))
	}
	return nil
}

func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v - s.Mean[i]
		if s.Scale[i] != 0 {
			out[i] /= s.Scale[i]
		}
	}
	return out
}
