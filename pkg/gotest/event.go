// Package gotest drives a reporter from a go test -json event stream.
//
// go test -json emits one TestEvent per line. The Driver tracks every running test,
// buffers its output and, when the test ends, reports it through OnTestEnd with the
// leaf of the test name as its title. Annotations are log lines of the form
// "@<type>" or "@<type>: <description>", e.g. t.Log("@zephyr-comment: flaky on CI").
package gotest

import "time"

// Actions emitted by go test -json.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// ProcessFunc handles one decoded event.
type ProcessFunc func(TestEvent)
