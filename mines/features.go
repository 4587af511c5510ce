package mines

// FeatureLen is the fixed width of a feature vector: one slot per
// 8-neighbourhood position.
const FeatureLen = 8

// FeatureUnknown fills slots for hidden, flagged or off-grid neighbours.
const FeatureUnknown = -1

// FeatureVector describes what a player can see around one cell.
type FeatureVector [FeatureLen]int

// Extract scans the clipped neighbourhood of c row-major, skipping c. A
// revealed neighbour contributes its count, anything else FeatureUnknown.
// Off-grid slots are dropped and the vector padded at the end, so edge and
// corner cells still yield FeatureLen values.
//
// Training and inference must both call this on the state *before* c is
// revealed.
func Extract(b *Board, s *RevealState, c Coord) FeatureVector {
	b.mustContain(c)
	var v FeatureVector
	for i := range v {
		v[i] = FeatureUnknown
	}
	i := 0
	b.forEachNeighbor(c, func(nb Coord) {
		if s.IsRevealed(nb) {
			v[i] = b.CountAt(nb)
		}
		i++
	})
	return v
}

// Floats converts v for numeric models.
func (v FeatureVector) Floats() []float64 {
	out := make([]float64, FeatureLen)
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Known counts the slots holding a revealed count.
func (v FeatureVector) Known() int {
	n := 0
	for _, x := range v {
		if x != FeatureUnknown {
			n++
		}
	}
	return n
}
