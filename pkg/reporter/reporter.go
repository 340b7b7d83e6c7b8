// Package reporter turns test lifecycle events into a Zephyr Scale test cycle.
//
// A Reporter receives OnBegin, one OnTestEnd per finished test and a final OnEnd.
// Tests whose title carries a case key become records; at OnEnd the records are
// written as a JSON report, zipped and handed to a Publisher. A run without any
// record prints a notice and touches nothing on disk.
package reporter

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dkoosis/zephyr-bridge/internal/console"
	"github.com/dkoosis/zephyr-bridge/internal/metrics"
	"github.com/dkoosis/zephyr-bridge/pkg/casekey"
	"github.com/dkoosis/zephyr-bridge/pkg/comment"
	"github.com/dkoosis/zephyr-bridge/pkg/report"
	"github.com/dkoosis/zephyr-bridge/pkg/status"
	"github.com/dkoosis/zephyr-bridge/pkg/zephyr"
)

// DefaultCommentAnnotation is the annotation type whose description becomes the custom comment.
const DefaultCommentAnnotation = "zephyr-comment"

// NoCaseKeyNotice is printed when a run produced no record.
const NoCaseKeyNotice = "There's no Zephyr test case id in this run"

// ErrAlreadyFinalized is returned by a second OnEnd.
var ErrAlreadyFinalized = errors.New("reporter: run already finalized")

// Annotation is a typed note attached to a test by the runner.
type Annotation struct {
	Type        string
	Description *string
}

// TestCase is the runner's view of a test.
type TestCase struct {
	Title       string
	Annotations []Annotation
}

// TestResult is the outcome of one test execution.
type TestResult struct {
	Status status.Outcome
	Error  *comment.Failure
}

// Publisher uploads an archived report and registers the run remotely.
type Publisher interface {
	CreateRun(ctx context.Context, archivePath string) (*zephyr.Run, error)
}

// Options configures a Reporter.
type Options struct {
	ProjectKey        string
	KeyPattern        string
	CommentAnnotation string
	OutputDir         string
	// PublishTimeout bounds the upload; zero means no extra deadline.
	PublishTimeout time.Duration

	Logger  zerolog.Logger
	Console *console.Console
	Metrics *metrics.Metrics
	// Now is used for the report file name; defaults to time.Now.
	Now func() time.Time
}

// Summary describes how a run ended.
type Summary struct {
	RunID       string
	Phase       Phase
	Records     []report.Record
	Titles      []string
	Excluded    int
	ReportPath  string
	ArchivePath string
	Run         *zephyr.Run
}

// Reporter collects records during a run and publishes them once at the end.
// OnTestEnd is safe for concurrent use.
type Reporter struct {
	opts      Options
	extractor *casekey.Extractor
	publisher Publisher
	log       zerolog.Logger
	runID     string

	acc report.Accumulator

	mu       sync.Mutex
	phase    Phase
	titles   []string
	excluded int
}

// New validates opts and returns a Reporter. Invalid options fail here, before any test runs.
func New(opts Options, pub Publisher) (*Reporter, error) {
	if pub == nil {
		return nil, errors.New("reporter: publisher is required")
	}
	ex, err := casekey.NewExtractor(opts.ProjectKey, opts.KeyPattern)
	if err != nil {
		return nil, errors.Wrap(err, "reporter")
	}
	if opts.CommentAnnotation == "" {
		opts.CommentAnnotation = DefaultCommentAnnotation
	}
	if opts.OutputDir == "" {
		opts.OutputDir = report.DefaultDir
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	runID := uuid.NewString()
	return &Reporter{
		opts:      opts,
		extractor: ex,
		publisher: pub,
		log:       opts.Logger.With().Str("run_id", runID).Logger(),
		runID:     runID,
		phase:     Idle,
	}, nil
}

// RunID identifies this run in logs.
func (r *Reporter) RunID() string {
	return r.runID
}

// Phase returns the current pipeline phase.
func (r *Reporter) Phase() Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// OnBegin marks the start of the run.
func (r *Reporter) OnBegin(context.Context) {
	r.mu.Lock()
	if r.phase == Idle {
		r.phase = Collecting
	}
	r.mu.Unlock()
	r.log.Info().Str("project_key", r.opts.ProjectKey).Msg("collecting test results")
}

// OnTestEnd records the result of one test if its title carries a case key.
// Every field of the record comes from this call's arguments.
func (r *Reporter) OnTestEnd(tc TestCase, res TestResult) {
	key, ok := r.extractor.Key(tc.Title)
	var rec report.Record
	if ok {
		rec = report.NewRecord(key, status.Map(res.Status), comment.Compose(r.customComment(tc), res.Error))
	}

	r.mu.Lock()
	if r.phase.finalizing() {
		r.mu.Unlock()
		r.log.Warn().Str("title", tc.Title).Msg("test ended after run was finalized; dropped")
		return
	}
	r.phase = Collecting
	if ok {
		r.acc.Append(rec)
		r.titles = append(r.titles, tc.Title)
	} else {
		r.excluded++
	}
	r.mu.Unlock()

	if !ok {
		r.opts.Metrics.TestExcluded()
		r.log.Debug().Str("title", tc.Title).Msg("no case key in title")
		return
	}
	r.opts.Metrics.RecordAdded(rec.Result)
	r.log.Debug().Str("key", key).Str("outcome", string(res.Status)).Str("result", string(rec.Result)).Msg("record added")
}

func (r *Reporter) customComment(tc TestCase) *string {
	for _, a := range tc.Annotations {
		if a.Type != r.opts.CommentAnnotation {
			continue
		}
		if a.Description == nil {
			empty := ""
			return &empty
		}
		return a.Description
	}
	return nil
}

// OnEnd writes, archives and publishes the accumulated records, waiting for the
// upload to finish. Any failure is returned and leaves the reporter in Failed.
func (r *Reporter) OnEnd(ctx context.Context) (*Summary, error) {
	r.mu.Lock()
	if r.phase.finalizing() {
		r.mu.Unlock()
		return nil, ErrAlreadyFinalized
	}
	records := r.acc.Records()
	if len(records) == 0 {
		r.phase = NoOp
	} else {
		r.phase = Finalizing
	}
	sum := &Summary{
		RunID:    r.runID,
		Records:  records,
		Titles:   append([]string(nil), r.titles...),
		Excluded: r.excluded,
	}
	r.mu.Unlock()

	if len(records) == 0 {
		sum.Phase = NoOp
		r.opts.Console.Notice(NoCaseKeyNotice)
		r.log.Info().Int("excluded", sum.Excluded).Msg("no records; nothing to publish")
		return sum, nil
	}

	err := r.finalize(ctx, sum)
	sum.Phase = r.Phase()
	return sum, err
}

func (r *Reporter) finalize(ctx context.Context, sum *Summary) error {
	name := report.FileName(r.opts.Now())
	dir := r.opts.OutputDir

	path, err := report.Write(name, dir, sum.Records)
	if err != nil {
		return r.fail(err, "writing report")
	}
	sum.ReportPath = path
	r.advance(Written)
	r.log.Info().Str("path", path).Int("records", len(sum.Records)).Msg("report written")

	archivePath, err := report.Archive(name, dir)
	if err != nil {
		return r.fail(err, "archiving report")
	}
	sum.ArchivePath = archivePath
	r.advance(Archived)

	if r.opts.PublishTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.PublishTimeout)
		defer cancel()
	}

	start := time.Now()
	var run *zephyr.Run
	err = r.opts.Console.Spin("Uploading report to Zephyr Scale", func() error {
		var perr error
		run, perr = r.publisher.CreateRun(ctx, archivePath)
		return perr
	})
	r.opts.Metrics.PublishFinished(time.Since(start), err)
	if err != nil {
		return r.fail(err, "publishing report")
	}
	sum.Run = run
	r.advance(Published)
	return nil
}

func (r *Reporter) advance(p Phase) {
	r.mu.Lock()
	r.phase = p
	r.mu.Unlock()
}

func (r *Reporter) fail(err error, step string) error {
	r.advance(Failed)
	r.log.Error().Err(err).Str("step", step).Msg("finalizing run failed")
	return errors.Wrap(err, step)
}
