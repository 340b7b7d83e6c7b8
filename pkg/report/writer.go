package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Write serializes records as a Zephyr custom-format document to dir/fileName,
// creating dir if needed, and returns the written path.
func Write(fileName, dir string, records []Record) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrapf(err, "creating report directory %s", dir)
	}

	if records == nil {
		records = []Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Comments are HTML; keep them readable in the file.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(Document{Version: FormatVersion, Executions: records}); err != nil {
		return "", errors.Wrap(err, "encoding report")
	}

	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrapf(err, "writing report %s", path)
	}
	return path, nil
}

// Read parses a report written by Write.
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading report %s", path)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "parsing report %s", path)
	}
	return &doc, nil
}
