package gotest

import (
	"regexp"
	"strings"

	"github.com/dkoosis/zephyr-bridge/pkg/comment"
	"github.com/dkoosis/zephyr-bridge/pkg/reporter"
)

var (
	// framingRe matches the lines go test prints around a test's own output.
	framingRe = regexp.MustCompile(`^(=== (RUN|PAUSE|CONT|NAME)\b|--- (PASS|FAIL|SKIP|BENCH): |PASS$|FAIL$)`)
	// logLineRe matches t.Log/t.Error output: "file_test.go:12: message".
	logLineRe     = regexp.MustCompile(`^([\w.\-]+\.go:\d+): (.*)$`)
	annotationRe  = regexp.MustCompile(`(?s)^@([A-Za-z][\w-]*)(?::[ \t]?(.*))?$`)
	failHeaderRe  = regexp.MustCompile(`^--- FAIL: `)
	timeoutMarker = "panic: test timed out"
)

// continuationIndent is what the testing package adds, on top of the first
// line's indent, before every further line of a multi-line log call.
const continuationIndent = "    "

// parsedOutput is a test's output split into annotations and failure diagnostics.
type parsedOutput struct {
	annotations []reporter.Annotation
	messages    []string
	stack       []string
	failHeader  string
}

// logEntry is one t.Log/t.Error call, possibly spanning several lines.
type logEntry struct {
	loc    string
	lines  []string
	prefix string
}

func (e *logEntry) continues(line string) (string, bool) {
	if !strings.HasPrefix(line, e.prefix) {
		return "", false
	}
	rest := line[len(e.prefix):]
	if framingRe.MatchString(strings.TrimSpace(rest)) {
		return "", false
	}
	return rest, true
}

// parseOutput splits the output lines of one test. Annotations of type
// commentType become the test's comment and are left out of the diagnostics;
// other annotations are kept in both.
func parseOutput(lines []string, commentType string) parsedOutput {
	var (
		p       parsedOutput
		entry   *logEntry
		inPanic bool
	)
	flush := func() {
		if entry != nil {
			p.addLog(entry.loc, strings.TrimRight(strings.Join(entry.lines, "\n"), "\n"), commentType)
			entry = nil
		}
	}

	for _, line := range lines {
		if entry != nil {
			if rest, ok := entry.continues(line); ok {
				entry.lines = append(entry.lines, rest)
				continue
			}
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		flush()

		if framingRe.MatchString(trimmed) {
			if failHeaderRe.MatchString(trimmed) && p.failHeader == "" {
				p.failHeader = trimmed
			}
			continue
		}
		if inPanic {
			p.stack = append(p.stack, trimmed)
			continue
		}
		if strings.HasPrefix(trimmed, "panic: ") {
			p.messages = append(p.messages, trimmed)
			inPanic = true
			continue
		}

		if m := logLineRe.FindStringSubmatch(trimmed); m != nil {
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			entry = &logEntry{loc: m[1], lines: []string{m[2]}, prefix: indent + continuationIndent}
			continue
		}
		p.addLog("", trimmed, commentType)
	}
	flush()
	return p
}

func (p *parsedOutput) addLog(loc, msg, commentType string) {
	if a, ok := parseAnnotation(msg); ok {
		p.annotations = append(p.annotations, a)
		if a.Type == commentType {
			return
		}
	}
	p.messages = append(p.messages, msg)
	if loc != "" {
		p.stack = append(p.stack, loc)
	}
}

func parseAnnotation(msg string) (reporter.Annotation, bool) {
	m := annotationRe.FindStringSubmatch(msg)
	if m == nil {
		return reporter.Annotation{}, false
	}
	a := reporter.Annotation{Type: m[1]}
	if strings.Contains(msg, ":") {
		desc := m[2]
		a.Description = &desc
	}
	return a, true
}

// failure builds the diagnostics of a failed test. fallback is used as the
// message when the test printed nothing but framing.
func (p parsedOutput) failure(fallback string) *comment.Failure {
	f := &comment.Failure{}
	switch {
	case len(p.messages) > 0:
		msg := strings.Join(p.messages, "\n")
		f.Message = &msg
	case fallback != "":
		f.Message = &fallback
	case p.failHeader != "":
		header := p.failHeader
		f.Message = &header
	}
	if len(p.stack) > 0 {
		stack := strings.Join(p.stack, "\n")
		f.Stack = &stack
	}
	return f
}
