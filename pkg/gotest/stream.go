package gotest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// maxLineSize bounds a single go test -json line.
const maxLineSize = 1 << 20

// LineCounts tallies the non-blank lines Stream read.
type LineCounts struct {
	Lines     int
	Malformed int
}

// Stream decodes go test -json events line by line and calls fn for each one,
// in order, until EOF or until ctx is done. Lines that are not JSON events are
// counted as malformed and skipped.
//
// When ctx is done Stream closes r if it is an io.Closer, which unblocks the
// reading goroutine; other readers must be closed by the caller.
func Stream(ctx context.Context, r io.Reader, fn ProcessFunc) (LineCounts, error) {
	var counts LineCounts
	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go scanLines(ctx, r, lines, scanErr)

	for {
		select {
		case <-ctx.Done():
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return counts, ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return counts, errors.Wrap(err, "scanning test output")
				}
				return counts, nil
			}
			counts.Lines++
			var event TestEvent
			if err := json.Unmarshal(line, &event); err != nil {
				counts.Malformed++
				continue
			}
			fn(event)
		}
	}
}

// scanLines sends every non-blank line of r on lines, then reports the scan
// error on errc and closes lines.
func scanLines(ctx context.Context, r io.Reader, lines chan<- []byte, errc chan<- error) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		select {
		case lines <- bytes.Clone(line):
		case <-ctx.Done():
			errc <- nil
			return
		}
	}
	errc <- sc.Err()
}
