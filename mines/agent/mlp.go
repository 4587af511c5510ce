package agent

import (
	"encoding/json"
	"math"
	"os"

	"github.com/pkg/errors"

	"sweeper-lite/mines"
)

// Dense is one fully connected layer; Weight is out x in.
type Dense struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// MLPFile is the on-disk model format. Hidden layers use ReLU and the single
// output unit a sigmoid. Label names what the output probability means:
// "safe" (default) or "mine".
//
// The older fixed fc1/fc2/fc3 layout is accepted too.
type MLPFile struct {
	Layers []Dense     `json:"layers"`
	Scaler *Scaler     `json:"scaler,omitempty"`
	Label  string      `json:"label,omitempty"`
	Fc1W   [][]float64 `json:"fc1_weight,omitempty"`
	Fc1B   []float64   `json:"fc1_bias,omitempty"`
	Fc2W   [][]float64 `json:"fc2_weight,omitempty"`
	Fc2B   []float64   `json:"fc2_bias,omitempty"`
	Fc3W   [][]float64 `json:"fc3_weight,omitempty"`
	Fc3B   []float64   `json:"fc3_bias,omitempty"`
}

// MLP evaluates a fitted feed-forward network.
type MLP struct {
	layers []Dense
	scaler *Scaler
	mine   bool // output is P(mine); Score reports 1-p
}

func LoadMLP(path string) (*MLP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read model")
	}
	return NewMLP(data)
}

func NewMLP(data []byte) (*MLP, error) {
	var f MLPFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "parse model JSON")
	}
	layers := f.Layers
	if len(layers) == 0 && len(f.Fc1W) > 0 {
		layers = []Dense{{f.Fc1W, f.Fc1B}, {f.Fc2W, f.Fc2B}, {f.Fc3W, f.Fc3B}}
	}
	m := &MLP{layers: layers, scaler: f.Scaler}
	if err := m.validate(); err != nil {
		return nil, err
	}
	if f.Label != "" {
		if err := m.SetLabel(f.Label); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *MLP) validate() error {
	if len(m.layers) == 0 {
		return errors.New("model has no layers")
	}
	width := mines.FeatureLen
	for i, l := range m.layers {
		if len(l.Weight) == 0 || len(l.Weight) != len(l.Bias) {
			return errors.Errorf("layer %d: %d weight rows, %d biases", i, len(l.Weight), len(l.Bias))
		}
		for j, row := range l.Weight {
			if len(row) != width {
				return errors.Errorf("layer %d row %d: expected %d inputs, got %d", i, j, width, len(row))
			}
		}
		width = len(l.Weight)
	}
	if width != 1 {
		return errors.Errorf("output layer must have 1 unit, has %d", width)
	}
	if m.scaler != nil {
		return m.scaler.validate(mines.FeatureLen)
	}
	return nil
}

// SetLabel selects what the output unit was trained to predict.
func (m *MLP) SetLabel(label string) error {
	switch label {
	case "safe":
		m.mine = false
	case "mine":
		m.mine = true
	default:
		return errors.Errorf("label must be safe or mine, got %q", label)
	}
	return nil
}

func (m *MLP) Score(v mines.FeatureVector) (float64, error) {
	x := v.Floats()
	if m.scaler != nil {
		x = m.scaler.Transform(x)
	}
	last := len(m.layers) - 1
	for i, l := range m.layers {
		x = l.forward(x)
		if i < last {
			relu(x)
		}
	}
	p := sigmoid(x[0])
	if m.mine {
		return 1 - p, nil
	}
	return p, nil
}

func (l Dense) forward(in []float64) []float64 {
	out := make([]float64, len(l.Weight))
	for i, row := range l.Weight {
		sum := l.Bias[i]
		for j, w := range row {
			sum += w * in[j]
		}
		out[i] = sum
	}
	return out
}

func relu(x []float64) {
	for i, v := range x {
		if v < 0 {
			x[i] = 0
		}
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
