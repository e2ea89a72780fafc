package steamwatch

import (
	"io"

	"github.com/hazyhaar/steamlink/internal/sink"
)

// Sink is the output interface for steamlink events.
type Sink = sink.Sink

// SinkFunc is called for each event, in-process.
type SinkFunc = sink.Func

// NewStdoutSink creates a stdout JSON-lines sink.
func NewStdoutSink(w io.Writer) Sink {
	return sink.NewStdout(w)
}

// NewCallbackSink creates an in-process callback sink for embedding the
// watcher in another binary.
func NewCallbackSink(fn SinkFunc) Sink {
	return sink.NewCallback(fn)
}
