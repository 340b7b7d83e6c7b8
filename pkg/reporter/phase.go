package reporter

// Phase is a state of the per-run pipeline:
//
//	Idle → Collecting → Finalizing → Written → Archived → Published
//	                  ↘ NoOp (no records)
//
// Failed is entered from any finalize step.
type Phase int

// Pipeline phases.
const (
	Idle Phase = iota
	Collecting
	Finalizing
	Written
	Archived
	Published
	NoOp
	Failed
)

var phaseNames = [...]string{
	Idle:       "idle",
	Collecting: "collecting",
	Finalizing: "finalizing",
	Written:    "written",
	Archived:   "archived",
	Published:  "published",
	NoOp:       "noop",
	Failed:     "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether p ends the pipeline.
func (p Phase) Terminal() bool {
	return p == Published || p == NoOp || p == Failed
}

// finalizing reports whether OnEnd has started.
func (p Phase) finalizing() bool {
	return p >= Finalizing
}
