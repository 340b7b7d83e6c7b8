package report

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/zephyr-bridge/pkg/status"
)

func ptr(s string) *string { return &s }

func sampleRecords() []Record {
	return []Record{
		NewRecord("PROJ-1", status.ResultPassed, nil),
		NewRecord("PROJ-2", status.ResultFailed, ptr(`<b>❌ Error Message: </b> <br> boom & "quotes"`)),
		NewRecord("PROJ-2", status.ResultBlocked, ptr("")),
	}
}

func TestFileName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "zephyr-report-1700000000123.json", FileName(ts))
	assert.Equal(t, "zephyr-report-1700000000123.zip", ArchiveName(FileName(ts)))
}

func TestAccumulator_PreservesOrderAndDuplicates(t *testing.T) {
	var acc Accumulator
	for _, r := range sampleRecords() {
		acc.Append(r)
	}
	assert.Equal(t, 3, acc.Len())
	assert.Equal(t, sampleRecords(), acc.Records())
}

func TestAccumulator_RecordsReturnsCopy(t *testing.T) {
	var acc Accumulator
	acc.Append(NewRecord("PROJ-1", status.ResultPassed, nil))
	got := acc.Records()
	got[0].TestCase.Key = "mutated"
	assert.Equal(t, "PROJ-1", acc.Records()[0].TestCase.Key)
}

func TestAccumulator_ConcurrentAppendLosesNothing(t *testing.T) {
	const workers, perWorker = 16, 200
	var acc Accumulator
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("W%d-%d", w, i)
				acc.Append(NewRecord(key, status.ResultPassed, ptr(key)))
			}
		}(w)
	}
	wg.Wait()

	records := acc.Records()
	require.Len(t, records, workers*perWorker)
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		require.NotNil(t, r.TestCase.Comment)
		assert.Equal(t, r.TestCase.Key, *r.TestCase.Comment, "record fields come from different events")
		seen[r.TestCase.Key] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestCounts(t *testing.T) {
	c := Counts(sampleRecords())
	assert.Equal(t, 1, c[status.ResultPassed])
	assert.Equal(t, 1, c[status.ResultFailed])
	assert.Equal(t, 1, c[status.ResultBlocked])
	assert.Zero(t, c[status.ResultNotExecuted])
}

func TestWrite_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "test-results", "zephyr")
	path, err := Write("report.json", dir, sampleRecords())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.json"), path)

	doc, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, FormatVersion, doc.Version)
	assert.Equal(t, sampleRecords(), doc.Executions)
}

func TestWrite_OmitsAbsentComment(t *testing.T) {
	dir := t.TempDir()
	path, err := Write("r.json", dir, []Record{NewRecord("PROJ-1", status.ResultPassed, nil)})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"executions":[{"result":"Passed","testCase":{"key":"PROJ-1"}}]}`, string(data))
}

func TestWrite_KeepsHTMLUnescaped(t *testing.T) {
	dir := t.TempDir()
	path, err := Write("r.json", dir, []Record{NewRecord("PROJ-1", status.ResultFailed, ptr("<br>"))})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"comment":"<br>"`)
}

func TestWrite_ExistingDirectoryIsFine(t *testing.T) {
	dir := t.TempDir()
	_, err := Write("a.json", dir, nil)
	require.NoError(t, err)
	_, err = Write("b.json", dir, nil)
	require.NoError(t, err)

	doc, err := Read(filepath.Join(dir, "b.json"))
	require.NoError(t, err)
	assert.NotNil(t, doc.Executions)
	assert.Empty(t, doc.Executions)
}

func TestWrite_DirectoryCreationFailure(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Write("r.json", filepath.Join(blocker, "sub"), sampleRecords())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating report directory")
}

func TestArchive_RoundTripIsByteIdentical(t *testing.T) {
	dir := t.TempDir()
	path, err := Write("zephyr-report-1.json", dir, sampleRecords())
	require.NoError(t, err)
	want, err := os.ReadFile(path)
	require.NoError(t, err)

	archivePath, err := Archive("zephyr-report-1.json", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "zephyr-report-1.zip"), archivePath)

	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "zephyr-report-1.json", zr.File[0].Name)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestArchive_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := Archive("nope.json", dir)
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "nope.zip"))
	assert.True(t, os.IsNotExist(statErr), "no archive should be left behind")
}
