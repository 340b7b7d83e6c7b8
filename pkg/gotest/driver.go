package gotest

import (
	"context"
	"io"
	"slices"
	"strings"

	"github.com/dkoosis/zephyr-bridge/pkg/reporter"
	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

// Hooks receives one call per finished test.
type Hooks interface {
	OnTestEnd(reporter.TestCase, reporter.TestResult)
}

// Stats counts what a Driver saw.
type Stats struct {
	Tests     int
	Outcomes  map[status.Outcome]int
	Lines     int
	Malformed int
}

func (s *Stats) add(o status.Outcome) {
	if s.Outcomes == nil {
		s.Outcomes = make(map[status.Outcome]int)
	}
	s.Tests++
	s.Outcomes[o]++
}

// Merge adds other's counts to s.
func (s *Stats) Merge(other Stats) {
	s.Tests += other.Tests
	s.Lines += other.Lines
	s.Malformed += other.Malformed
	for o, n := range other.Outcomes {
		if s.Outcomes == nil {
			s.Outcomes = make(map[status.Outcome]int)
		}
		s.Outcomes[o] += n
	}
}

type testState struct {
	name   string
	output []string
}

type pkgState struct {
	running     map[string]*testState
	order       []string
	timeoutLine string
}

// Driver converts the events of one go test -json stream into OnTestEnd calls.
// A Driver is not safe for concurrent use; use one per stream.
type Driver struct {
	hooks       Hooks
	commentType string
	packages    map[string]*pkgState
	stats       Stats
}

// NewDriver returns a Driver reporting to h. commentType names the annotation
// that carries the execution comment; empty means
// reporter.DefaultCommentAnnotation.
func NewDriver(h Hooks, commentType string) *Driver {
	if commentType == "" {
		commentType = reporter.DefaultCommentAnnotation
	}
	return &Driver{hooks: h, commentType: commentType, packages: make(map[string]*pkgState)}
}

// Stats returns the counts gathered so far.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Feed consumes r until EOF or cancellation, then ends any test still running
// as interrupted.
func (d *Driver) Feed(ctx context.Context, r io.Reader) (Stats, error) {
	counts, err := Stream(ctx, r, d.Handle)
	d.stats.Lines += counts.Lines
	d.stats.Malformed += counts.Malformed
	if err != nil {
		return d.stats, err
	}
	d.Flush()
	return d.stats, nil
}

// Handle processes one event.
func (d *Driver) Handle(e TestEvent) {
	pkg := d.pkg(e.Package)
	if e.Test == "" {
		d.handlePackage(e, pkg)
		return
	}

	switch e.Action {
	case ActionRun:
		pkg.test(e.Test)
	case ActionOutput:
		line := strings.TrimRight(e.Output, "\n")
		if strings.Contains(line, timeoutMarker) {
			pkg.timeoutLine = strings.TrimSpace(line)
		}
		ts := pkg.test(e.Test)
		ts.output = append(ts.output, line)
	case ActionPass, ActionBench:
		d.finish(pkg, e.Test, status.Passed)
	case ActionFail:
		d.finish(pkg, e.Test, status.Failed)
	case ActionSkip:
		d.finish(pkg, e.Test, status.Skipped)
	}
}

func (d *Driver) handlePackage(e TestEvent, pkg *pkgState) {
	switch e.Action {
	case ActionOutput:
		if line := strings.TrimSpace(e.Output); strings.Contains(line, timeoutMarker) {
			pkg.timeoutLine = line
		}
	case ActionPass, ActionFail, ActionSkip:
		outcome := status.Interrupted
		if pkg.timeoutLine != "" {
			outcome = status.TimedOut
		}
		d.endRunning(pkg, outcome)
		delete(d.packages, e.Package)
	}
}

// Flush ends every test still running, as timed out when its package hit the
// test deadline and as interrupted otherwise.
func (d *Driver) Flush() {
	for name, pkg := range d.packages {
		outcome := status.Interrupted
		if pkg.timeoutLine != "" {
			outcome = status.TimedOut
		}
		d.endRunning(pkg, outcome)
		delete(d.packages, name)
	}
}

func (d *Driver) endRunning(pkg *pkgState, outcome status.Outcome) {
	// Subtests end before their parents.
	for i := len(pkg.order) - 1; i >= 0; i-- {
		if _, ok := pkg.running[pkg.order[i]]; ok {
			d.finish(pkg, pkg.order[i], outcome)
		}
	}
}

func (d *Driver) finish(pkg *pkgState, name string, outcome status.Outcome) {
	ts := pkg.test(name)
	delete(pkg.running, name)

	parsed := parseOutput(ts.output, d.commentType)
	tc := reporter.TestCase{Title: leaf(name), Annotations: parsed.annotations}
	res := reporter.TestResult{Status: outcome}
	switch outcome {
	case status.Failed:
		res.Error = parsed.failure("")
	case status.TimedOut:
		if !slices.Contains(parsed.messages, pkg.timeoutLine) {
			parsed.messages = append(parsed.messages, pkg.timeoutLine)
		}
		res.Error = parsed.failure("")
	}

	d.stats.add(outcome)
	d.hooks.OnTestEnd(tc, res)
}

func (d *Driver) pkg(name string) *pkgState {
	if p, ok := d.packages[name]; ok {
		return p
	}
	p := &pkgState{running: make(map[string]*testState)}
	d.packages[name] = p
	return p
}

func (p *pkgState) test(name string) *testState {
	if ts, ok := p.running[name]; ok {
		return ts
	}
	ts := &testState{name: name}
	p.running[name] = ts
	p.order = append(p.order, name)
	return ts
}

// leaf returns the last segment of a test name: "TestLogin/valid_[12]" → "valid_[12]".
func leaf(name string) string {
	return name[strings.LastIndex(name, "/")+1:]
}
