package reporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/zephyr-bridge/internal/console"
	"github.com/dkoosis/zephyr-bridge/internal/metrics"
	"github.com/dkoosis/zephyr-bridge/pkg/comment"
	"github.com/dkoosis/zephyr-bridge/pkg/report"
	"github.com/dkoosis/zephyr-bridge/pkg/status"
	"github.com/dkoosis/zephyr-bridge/pkg/zephyr"
)

func ptr(s string) *string { return &s }

// fakePublisher records the archives it was asked to upload.
type fakePublisher struct {
	mu    sync.Mutex
	calls []string
	err   error
	wait  time.Duration
}

func (p *fakePublisher) CreateRun(ctx context.Context, archivePath string) (*zephyr.Run, error) {
	p.mu.Lock()
	p.calls = append(p.calls, archivePath)
	p.mu.Unlock()
	if p.wait > 0 {
		select {
		case <-time.After(p.wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &zephyr.Run{ID: 1, Key: "PROJ-R1", URL: "https://example.test/PROJ-R1"}, nil
}

func (p *fakePublisher) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func newReporter(t *testing.T, pub Publisher, mutate func(*Options)) (*Reporter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts := Options{
		ProjectKey: "PROJ",
		OutputDir:  filepath.Join(t.TempDir(), "test-results", "zephyr"),
		Logger:     zerolog.Nop(),
		Console:    console.NewWithTheme(&out, console.MonoTheme()),
		Now:        func() time.Time { return time.UnixMilli(1700000000000) },
	}
	if mutate != nil {
		mutate(&opts)
	}
	r, err := New(opts, pub)
	require.NoError(t, err)
	return r, &out
}

func TestReporter_TwoTestExample(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := newReporter(t, pub, nil)

	r.OnBegin(context.Background())
	r.OnTestEnd(TestCase{Title: "A [1]"}, TestResult{Status: status.Passed})
	r.OnTestEnd(TestCase{Title: "B [2]"}, TestResult{
		Status: status.Failed,
		Error:  &comment.Failure{Message: ptr("boom"), Stack: ptr("at x")},
	})

	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Records, 2)

	assert.Equal(t, "PROJ-1", sum.Records[0].TestCase.Key)
	assert.Equal(t, status.Map(status.Passed), sum.Records[0].Result)
	assert.Nil(t, sum.Records[0].TestCase.Comment)

	assert.Equal(t, "PROJ-2", sum.Records[1].TestCase.Key)
	assert.Equal(t, status.Map(status.Failed), sum.Records[1].Result)
	require.NotNil(t, sum.Records[1].TestCase.Comment)
	assert.Contains(t, *sum.Records[1].TestCase.Comment, "boom")
	assert.Contains(t, *sum.Records[1].TestCase.Comment, "at x")
	assert.Equal(t, *comment.Compose(nil, &comment.Failure{Message: ptr("boom"), Stack: ptr("at x")}), *sum.Records[1].TestCase.Comment)

	assert.Equal(t, Published, sum.Phase)
	assert.Equal(t, Published, r.Phase())
	assert.Equal(t, "PROJ-R1", sum.Run.Key)
	assert.Equal(t, []string{sum.ArchivePath}, pub.Calls())
	assert.Equal(t, "zephyr-report-1700000000000.json", filepath.Base(sum.ReportPath))
	assert.Equal(t, "zephyr-report-1700000000000.zip", filepath.Base(sum.ArchivePath))

	doc, err := report.Read(sum.ReportPath)
	require.NoError(t, err)
	assert.Equal(t, sum.Records, doc.Executions)
}

func TestReporter_NoRecordsIsNoOp(t *testing.T) {
	pub := &fakePublisher{}
	r, out := newReporter(t, pub, nil)

	r.OnBegin(context.Background())
	r.OnTestEnd(TestCase{Title: "no key here"}, TestResult{Status: status.Passed})
	r.OnTestEnd(TestCase{Title: "empty []"}, TestResult{Status: status.Failed})

	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NoOp, sum.Phase)
	assert.Empty(t, sum.Records)
	assert.Equal(t, 2, sum.Excluded)
	assert.Empty(t, pub.Calls())

	_, statErr := os.Stat(r.opts.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "no filesystem writes expected")
	assert.Equal(t, "[zephyr-bridge]: "+NoCaseKeyNotice+"\n", out.String())
}

func TestReporter_CustomCommentAnnotation(t *testing.T) {
	r, _ := newReporter(t, &fakePublisher{}, nil)
	r.OnTestEnd(TestCase{
		Title: "checkout [7]",
		Annotations: []Annotation{
			{Type: "issue", Description: ptr("JIRA-1")},
			{Type: DefaultCommentAnnotation, Description: ptr("first")},
			{Type: DefaultCommentAnnotation, Description: ptr("second")},
		},
	}, TestResult{Status: status.Failed, Error: &comment.Failure{Message: ptr("boom")}})
	r.OnTestEnd(TestCase{
		Title:       "login [8]",
		Annotations: []Annotation{{Type: DefaultCommentAnnotation}},
	}, TestResult{Status: status.Passed})

	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)

	c := *sum.Records[0].TestCase.Comment
	assert.Contains(t, c, "first")
	assert.NotContains(t, c, "second")
	assert.NotContains(t, c, "JIRA-1")
	assert.Less(t, strings.Index(c, "Custom Comment"), strings.Index(c, "Error Message"))

	require.NotNil(t, sum.Records[1].TestCase.Comment)
	assert.Contains(t, *sum.Records[1].TestCase.Comment, "Custom Comment")
}

func TestReporter_CustomAnnotationType(t *testing.T) {
	r, _ := newReporter(t, &fakePublisher{}, func(o *Options) { o.CommentAnnotation = "note" })
	r.OnTestEnd(TestCase{
		Title:       "a [1]",
		Annotations: []Annotation{{Type: DefaultCommentAnnotation, Description: ptr("ignored")}, {Type: "note", Description: ptr("used")}},
	}, TestResult{Status: status.Passed})

	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sum.Records[0].TestCase.Comment)
	assert.Contains(t, *sum.Records[0].TestCase.Comment, "used")
	assert.NotContains(t, *sum.Records[0].TestCase.Comment, "ignored")
}

func TestReporter_PublishFailurePropagates(t *testing.T) {
	pub := &fakePublisher{err: &zephyr.APIError{StatusCode: 401}}
	m := metrics.New()
	r, _ := newReporter(t, pub, func(o *Options) { o.Metrics = m })
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Passed})

	sum, err := r.OnEnd(context.Background())
	require.Error(t, err)
	var apiErr *zephyr.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Contains(t, err.Error(), "publishing report")
	assert.Equal(t, Failed, sum.Phase)
	assert.Equal(t, Failed, r.Phase())
	assert.FileExists(t, sum.ArchivePath)
}

func TestReporter_WriteFailurePropagates(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	pub := &fakePublisher{}
	r, _ := newReporter(t, pub, func(o *Options) { o.OutputDir = filepath.Join(blocker, "zephyr") })
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Passed})

	sum, err := r.OnEnd(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing report")
	assert.Equal(t, Failed, sum.Phase)
	assert.Empty(t, pub.Calls(), "publisher must not run after a failed write")
}

func TestReporter_PublishTimeout(t *testing.T) {
	pub := &fakePublisher{wait: time.Second}
	r, _ := newReporter(t, pub, func(o *Options) { o.PublishTimeout = 20 * time.Millisecond })
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Passed})

	_, err := r.OnEnd(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestReporter_OnEndRunsOnce(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := newReporter(t, pub, nil)
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Passed})

	_, err := r.OnEnd(context.Background())
	require.NoError(t, err)
	_, err = r.OnEnd(context.Background())
	assert.True(t, errors.Is(err, ErrAlreadyFinalized))
	assert.Len(t, pub.Calls(), 1)
}

func TestReporter_TestEndAfterFinalizeIsDropped(t *testing.T) {
	r, _ := newReporter(t, &fakePublisher{}, nil)
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Passed})
	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)

	r.OnTestEnd(TestCase{Title: "late [2]"}, TestResult{Status: status.Passed})
	assert.Equal(t, 1, r.acc.Len())
	assert.Len(t, sum.Records, 1)
}

func TestReporter_ConcurrentTestEnds(t *testing.T) {
	r, _ := newReporter(t, &fakePublisher{}, nil)
	r.OnBegin(context.Background())

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := fmt.Sprintf("%d%03d", w, i)
				outcome := status.Passed
				var failure *comment.Failure
				if i%2 == 1 {
					outcome = status.Failed
					failure = &comment.Failure{Message: ptr("fail " + id)}
				}
				r.OnTestEnd(TestCase{Title: "t [" + id + "]"}, TestResult{Status: outcome, Error: failure})
			}
		}(w)
	}
	wg.Wait()

	sum, err := r.OnEnd(context.Background())
	require.NoError(t, err)
	require.Len(t, sum.Records, workers*perWorker)
	require.Len(t, sum.Titles, workers*perWorker)
	for i, rec := range sum.Records {
		id := strings.TrimPrefix(rec.TestCase.Key, "PROJ-")
		assert.Equal(t, "t ["+id+"]", sum.Titles[i])
		if rec.Result == status.ResultFailed {
			require.NotNil(t, rec.TestCase.Comment)
			assert.Contains(t, *rec.TestCase.Comment, "fail "+id)
		} else {
			assert.Nil(t, rec.TestCase.Comment)
		}
	}
}

func TestReporter_MetricsCountRecordsAndExclusions(t *testing.T) {
	m := metrics.New()
	r, _ := newReporter(t, &fakePublisher{}, func(o *Options) { o.Metrics = m })
	r.OnTestEnd(TestCase{Title: "a [1]"}, TestResult{Status: status.Skipped})
	r.OnTestEnd(TestCase{Title: "b"}, TestResult{Status: status.Passed})
	_, err := r.OnEnd(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "m.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `zephyr_bridge_records_total{result="Not Executed"} 1`)
	assert.Contains(t, string(data), "zephyr_bridge_tests_excluded_total 1")
}

func TestNew_ValidatesOptions(t *testing.T) {
	_, err := New(Options{ProjectKey: "PROJ"}, nil)
	assert.Error(t, err)

	_, err = New(Options{}, &fakePublisher{})
	assert.Error(t, err)

	_, err = New(Options{ProjectKey: "PROJ", KeyPattern: `\[\d+\]`}, &fakePublisher{})
	assert.Error(t, err)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "published", Published.String())
	assert.Equal(t, "unknown", Phase(99).String())
	assert.True(t, NoOp.Terminal())
	assert.False(t, Archived.Terminal())
}
