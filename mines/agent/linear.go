package agent

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"sweeper-lite/mines"
)

// Linear is a logistic model: sigmoid(w.x + b) is the probability the cell
// is safe.
type Linear struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
	Scaler  *Scaler   `json:"scaler,omitempty"`
}

func LoadLinear(path string) (*Linear, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model")
	}
	var l Linear
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(err, "parse model JSON")
	}
	if err := l.validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

func (l *Linear) validate() error {
	if len(l.Weights) != mines.FeatureLen {
		return errors.Errorf("expected %d weights, got %d", mines.FeatureLen, len(l.Weights))
	}
	if l.Scaler != nil {
		return l.Scaler.validate(mines.FeatureLen)
	}
	return nil
}

func (l *Linear) Score(v mines.FeatureVector) (float64, error) {
	if len(l.Weights) != mines.FeatureLen {
		return 0, errors.Errorf("expected %d weights, got %d", mines.FeatureLen, len(l.Weights))
	}
	x := v.Floats()
	if l.Scaler != nil {
		x = l.Scaler.Transform(x)
	}
	sum := l.Bias
	for i, w := range l.Weights {
		sum += w * x[i]
	}
	return sigmoid(sum), nil
}
