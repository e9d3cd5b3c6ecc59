// Package template renders {{field}} placeholders against an event's
// key/value data.
package template

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// Render substitutes every {{field}} tag in tpl with the corresponding
// value from data. Missing fields render as the empty string; non-string
// values are formatted with their default representation. A start tag
// without a matching end tag is rejected rather than passed through as
// literal text.
func Render(tpl string, data map[string]any) (string, error) {
	if i := strings.LastIndex(tpl, startTag); i >= 0 && !strings.Contains(tpl[i+len(startTag):], endTag) {
		return "", fmt.Errorf("failed to render template: unclosed %q tag", startTag)
	}

	out, err := fasttemplate.ExecuteFuncStringWithErr(tpl, startTag, endTag,
		func(w io.Writer, tag string) (int, error) {
			value, ok := data[strings.TrimSpace(tag)]
			if !ok || value == nil {
				return 0, nil
			}
			return fmt.Fprintf(w, "%v", value)
		})
	if err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return out, nil
}
