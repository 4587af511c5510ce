package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"sweeper-lite/wire"
)

// StreamSink writes examples as length-delimited protobuf messages.
type StreamSink struct {
	w      *bufio.Writer
	closer io.Closer
	buf    []byte
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{w: bufio.NewWriter(w)}
}

func OpenStream(path string) (*StreamSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	s := NewStreamSink(f)
	s.closer = f
	return s, nil
}

func (s *StreamSink) WriteExamples(examples []Example) error {
	s.buf = s.buf[:0]
	for _, ex := range examples {
		s.buf = wire.AppendExample(s.buf, ex.Features, ex.Label)
	}
	if _, err := s.w.Write(s.buf); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *StreamSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// ReadStream reads every example from r.
func ReadStream(r io.Reader) ([]Example, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var out []Example
	for len(data) > 0 {
		features, label, n, err := wire.ConsumeExample(data)
		if err != nil {
			return nil, fmt.Errorf("example %d: %w", len(out), err)
		}
		out = append(out, Example{Features: features, Label: label})
		data = data[n:]
	}
	return out, nil
}
