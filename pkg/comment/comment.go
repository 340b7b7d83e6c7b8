// Package comment builds the rich-text execution comment sent to Zephyr Scale.
package comment

import (
	"html"
	"strings"
)

// Failure carries the diagnostics of a failed test. Either field may be nil.
type Failure struct {
	Message *string
	Stack   *string
}

const (
	customColor = "rgb(0, 102, 204)"
	errorColor  = "rgb(226, 80, 65)"
)

var lineBreaks = strings.NewReplacer("\r\n", "<br>", "\n", "<br>")

// Compose renders the custom annotation text and failure diagnostics as one
// comment. The custom block always precedes the failure block. It returns nil
// when there is nothing to say, never a pointer to an empty string.
//
// The custom text is written by the test author and is passed through as
// markup; only the failure diagnostics are escaped.
func Compose(custom *string, failure *Failure) *string {
	var b strings.Builder
	if custom != nil {
		writeCustom(&b, *custom)
	}
	if failure != nil {
		writeFailure(&b, failure)
	}
	if b.Len() == 0 {
		return nil
	}
	s := b.String()
	return &s
}

func writeCustom(b *strings.Builder, text string) {
	b.WriteString("<b>📝 Custom Comment:</b> <br> ")
	writeSpan(b, customColor, lineBreaks.Replace(text))
	b.WriteString(" <br> <br>")
}

func writeFailure(b *strings.Builder, f *Failure) {
	b.WriteString("<b>❌ Error Message: </b> <br> ")
	writeSpan(b, errorColor, Format(deref(f.Message)))
	b.WriteString(" <br> <br> <b>🧱 Stack Trace:</b> <br> ")
	writeSpan(b, errorColor, Format(deref(f.Stack)))
}

// writeSpan writes markup in a colored span.
func writeSpan(b *strings.Builder, color, markup string) {
	b.WriteString(`<span style="color: `)
	b.WriteString(color)
	b.WriteString(`;">`)
	b.WriteString(markup)
	b.WriteString("</span>")
}

// Format escapes text for Zephyr's HTML comment field and turns newlines into <br>.
func Format(text string) string {
	return lineBreaks.Replace(html.EscapeString(text))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
