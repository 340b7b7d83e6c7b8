// Package detect sniffs test input to determine its format.
package detect

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Format represents a recognized input format.
type Format int

const (
	Unknown      Format = iota
	Empty               // nothing but whitespace
	GoTestJSON          // go test -json NDJSON stream
	ZephyrReport        // a report document already written by zephyr-bridge
)

func (f Format) String() string {
	switch f {
	case GoTestJSON:
		return "go test -json"
	case ZephyrReport:
		return "zephyr report"
	case Empty:
		return "empty"
	default:
		return "unknown"
	}
}

// peekSize is how much of a stream Peek inspects.
const peekSize = 4096

// Sniff examines the first bytes of input to determine format.
// Input must contain at least the first line.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return Empty
	}
	if data[0] != '{' {
		return Unknown
	}

	firstLine := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		firstLine = data[:i]
	}

	if isGoTestJSON(firstLine) {
		return GoTestJSON
	}
	if isZephyrReport(data) {
		return ZephyrReport
	}
	return Unknown
}

// Peek sniffs the start of r without consuming it. The returned reader yields
// the full stream, including the sniffed bytes.
func Peek(r io.Reader) (Format, io.Reader, error) {
	br := bufio.NewReaderSize(r, peekSize)
	head, err := br.Peek(peekSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Unknown, br, errors.Wrap(err, "reading input")
	}
	return Sniff(head), br, nil
}

func isGoTestJSON(line []byte) bool {
	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(line, &event); err != nil {
		return false
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	return validActions[event.Action]
}

// isZephyrReport matches a report by its leading fields. A report is a single
// pretty-printed document, so data may be a truncated prefix of it.
func isZephyrReport(data []byte) bool {
	var probe struct {
		Version    int             `json:"version"`
		Executions json.RawMessage `json:"executions"`
	}
	if err := json.Unmarshal(data, &probe); err == nil {
		return probe.Version > 0 && probe.Executions != nil
	}
	return bytes.Contains(data, []byte(`"executions"`)) && bytes.Contains(data, []byte(`"version"`))
}
