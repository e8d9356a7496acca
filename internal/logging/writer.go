package logging

import (
	"io"

	"go.uber.org/multierr"
)

// combinedWriter writes to every writer even when one of them fails, and
// reports all failures together.
type combinedWriter struct {
	writers []io.Writer
}

func newCombinedWriter(writers ...io.Writer) *combinedWriter {
	return &combinedWriter{writers: writers}
}

func (cw *combinedWriter) Write(p []byte) (n int, err error) {
	for _, w := range cw.writers {
		written, werr := w.Write(p)
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		n = max(n, written)
	}
	return n, err
}
