// Package status maps test execution outcomes onto the Zephyr Scale result vocabulary.
package status

// Outcome is the raw status a test runner reports for one test.
type Outcome string

// Execution outcomes.
const (
	Passed      Outcome = "passed"
	Failed      Outcome = "failed"
	TimedOut    Outcome = "timedOut"
	Skipped     Outcome = "skipped"
	Interrupted Outcome = "interrupted"
)

// Result is a test execution status accepted by Zephyr Scale.
type Result string

// Zephyr Scale results.
const (
	ResultPassed      Result = "Passed"
	ResultFailed      Result = "Failed"
	ResultBlocked     Result = "Blocked"
	ResultNotExecuted Result = "Not Executed"
)

// Default is returned for outcomes missing from the table.
const Default = ResultNotExecuted

var table = map[Outcome]Result{
	Passed:      ResultPassed,
	Failed:      ResultFailed,
	TimedOut:    ResultFailed,
	Skipped:     ResultNotExecuted,
	Interrupted: ResultBlocked,
}

// Map returns the Zephyr result for an outcome. Unknown outcomes map to Default.
func Map(o Outcome) Result {
	if r, ok := table[o]; ok {
		return r
	}
	return Default
}

// Outcomes lists every outcome the runner adapters can produce.
func Outcomes() []Outcome {
	return []Outcome{Passed, Failed, TimedOut, Skipped, Interrupted}
}

// Results lists the closed Zephyr result vocabulary.
func Results() []Result {
	return []Result{ResultPassed, ResultFailed, ResultBlocked, ResultNotExecuted}
}
