// Package agent plays mines.Game sessions by asking a MoveOracle how safe
// each hidden cell looks and revealing the best one.
package agent

import "sweeper-lite/mines"

// MoveOracle scores a candidate cell from its feature vector.
// Higher means more likely safe; scores are only compared, never thresholded.
type MoveOracle interface {
	Score(v mines.FeatureVector) (float64, error)
}

// OracleFunc adapts a plain function to MoveOracle.
type OracleFunc func(v mines.FeatureVector) (float64, error)

func (f OracleFunc) Score(v mines.FeatureVector) (float64, error) { return f(v) }
