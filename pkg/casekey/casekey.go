// Package casekey extracts Zephyr test case keys from test titles.
//
// A title such as "Login_flow_[1234]" carries the numeric part of a case key in
// brackets. The pattern is applied once: only the first match and only its first
// capture group are considered. An empty capture is treated as no match.
package casekey

import (
	"regexp"

	"github.com/pkg/errors"
)

// DefaultPattern matches the first bracketed segment of a title.
const DefaultPattern = `\[(.*?)\]`

// DefaultSeparator joins the project key and the captured id.
const DefaultSeparator = "-"

// ErrNoCaptureGroup is returned for patterns that cannot yield an id.
var ErrNoCaptureGroup = errors.New("pattern has no capture group")

// Matcher is a compiled pattern plus an accessor for its first capture group.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles pattern. The pattern must declare at least one capture group.
func NewMatcher(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling key pattern %q", pattern)
	}
	if re.NumSubexp() < 1 {
		return nil, errors.Wrapf(ErrNoCaptureGroup, "key pattern %q", pattern)
	}
	return &Matcher{re: re}, nil
}

// MustMatcher is like NewMatcher but panics on an invalid pattern.
func MustMatcher(pattern string) *Matcher {
	m, err := NewMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// FirstGroup returns the first capture group of the first match in s.
// It reports false when nothing matches or the group is empty.
func (m *Matcher) FirstGroup(s string) (string, bool) {
	sub := m.re.FindStringSubmatch(s)
	if len(sub) < 2 || sub[1] == "" {
		return "", false
	}
	return sub[1], true
}

// String returns the source pattern.
func (m *Matcher) String() string {
	return m.re.String()
}

// Extractor turns test titles into "<projectKey><sep><id>" case keys.
type Extractor struct {
	ProjectKey string
	Separator  string
	matcher    *Matcher
}

// NewExtractor builds an Extractor for projectKey using pattern.
// An empty pattern selects DefaultPattern.
func NewExtractor(projectKey, pattern string) (*Extractor, error) {
	if projectKey == "" {
		return nil, errors.New("project key is required")
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	m, err := NewMatcher(pattern)
	if err != nil {
		return nil, err
	}
	return &Extractor{ProjectKey: projectKey, Separator: DefaultSeparator, matcher: m}, nil
}

// Key returns the case key for title, or false when title carries no id.
func (e *Extractor) Key(title string) (string, bool) {
	id, ok := e.matcher.FirstGroup(title)
	if !ok {
		return "", false
	}
	return e.ProjectKey + e.Separator + id, true
}
