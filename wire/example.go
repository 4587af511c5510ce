package wire

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"sweeper-lite/mines"
)

// AppendExample appends one length-delimited Example message, so a stream
// of examples can be read back with ConsumeExample.
func AppendExample(b []byte, features mines.FeatureVector, label int) []byte {
	var e encoder
	e.packed(1, len(features), func(i int) uint64 { return protowire.EncodeZigZag(int64(features[i])) })
	e.int(2, label)
	return protowire.AppendBytes(b, e.b)
}

// ConsumeExample reads one example written by AppendExample and reports
// how many bytes it used.
func ConsumeExample(b []byte) (mines.FeatureVector, int, int, error) {
	var (
		features mines.FeatureVector
		label    int
	)
	msg, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return features, 0, 0, protowire.ParseError(n)
	}
	err := eachField(msg, func(f field) error {
		switch f.num {
		case 1:
			vs, err := f.varints()
			if err != nil {
				return err
			}
			if len(vs) != mines.FeatureLen {
				return fmt.Errorf("expected %d features, got %d", mines.FeatureLen, len(vs))
			}
			for i, v := range vs {
				features[i] = int(protowire.DecodeZigZag(v))
			}
		case 2:
			label = f.int()
		}
		return nil
	})
	if err != nil {
		return features, 0, 0, err
	}
	return features, label, n, nil
}
