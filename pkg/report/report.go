// Package report accumulates per-test Zephyr records and packages them as the
// custom-format report uploaded to Zephyr Scale.
package report

import (
	"fmt"
	"sync"
	"time"

	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

// FormatVersion is the Zephyr Scale custom-format version written to reports.
const FormatVersion = 1

// DefaultDir is where reports and archives are written unless configured otherwise.
const DefaultDir = "test-results/zephyr"

// TestCase identifies the Zephyr test case a record belongs to.
type TestCase struct {
	Key     string  `json:"key"`
	Comment *string `json:"comment,omitempty"`
}

// Record is the result of one test execution mapped to a Zephyr test case.
type Record struct {
	Result   status.Result `json:"result"`
	TestCase TestCase      `json:"testCase"`
}

// NewRecord builds a record. A nil comment is omitted from the report.
func NewRecord(key string, result status.Result, comment *string) Record {
	return Record{Result: result, TestCase: TestCase{Key: key, Comment: comment}}
}

// Document is the JSON report uploaded to Zephyr Scale.
type Document struct {
	Version    int      `json:"version"`
	Executions []Record `json:"executions"`
}

// FileName returns the report file name for a run finalized at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("zephyr-report-%d.json", t.UnixMilli())
}

// Accumulator is an append-only, ordered list of records for one run.
// It is safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	records []Record
}

// Append adds r to the end of the list.
func (a *Accumulator) Append(r Record) {
	a.mu.Lock()
	a.records = append(a.records, r)
	a.mu.Unlock()
}

// Records returns a copy of the accumulated records in append order.
func (a *Accumulator) Records() []Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}

// Len returns the number of accumulated records.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Counts tallies records by result.
func Counts(records []Record) map[status.Result]int {
	counts := make(map[status.Result]int)
	for _, r := range records {
		counts[r.Result]++
	}
	return counts
}
