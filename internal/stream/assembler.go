// Package stream accumulates a chunked advisor reply into a single growing
// buffer. The tag parser is stateless and always re-parses the full buffer,
// which is what makes partially streamed tags safe, so consumers receive
// the entire buffer after every chunk rather than the delta.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ChunkSource yields the next chunk of advisor output in arrival order.
// It returns io.EOF when the stream has settled.
type ChunkSource func(ctx context.Context) (string, error)

// Assembler concatenates chunks. It is not safe for concurrent use; the
// conversation loop drives it from a single goroutine.
type Assembler struct {
	b strings.Builder
}

// Append adds one chunk and returns the full buffer so far.
func (a *Assembler) Append(chunk string) string {
	a.b.WriteString(chunk)
	return a.b.String()
}

// Current returns the buffer assembled so far.
func (a *Assembler) Current() string {
	return a.b.String()
}

// Run drains next until end-of-stream, invoking onBuffer with the complete
// buffer after every chunk. The final return value is the settled message
// content, which is what gets persisted.
//
// On a read failure Run returns whatever was assembled alongside the error;
// the caller substitutes its apology message but still persists the partial
// content. Context cancellation abandons the read loop the same way.
func Run(ctx context.Context, next ChunkSource, onBuffer func(full string)) (string, error) {
	var a Assembler
	for {
		select {
		case <-ctx.Done():
			return a.Current(), ctx.Err()
		default:
		}
		chunk, err := next(ctx)
		if errors.Is(err, io.EOF) {
			return a.Current(), nil
		}
		if err != nil {
			return a.Current(), fmt.Errorf("read chunk: %w", err)
		}
		full := a.Append(chunk)
		if onBuffer != nil {
			onBuffer(full)
		}
	}
}
