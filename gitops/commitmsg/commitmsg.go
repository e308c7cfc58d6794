package commitmsg

import (
	"fmt"
	"io"
	"strings"

	"github.com/valyala/fasttemplate"
)

// Variable names available to message templates.
const (
	VarBranch     = "BRANCH"
	VarRepository = "REPOSITORY"
	VarSHA        = "SHA"
	VarRunID      = "RUN_ID"
	VarAdditions  = "ADDITIONS"
	VarDeletions  = "DELETIONS"
)

const (
	startTag = "{{"
	endTag   = "}}"
)

// Render substitutes {{VAR}} placeholders in tmpl with
// values from vars. Spaces around the name are
// ignored. Unknown placeholders are preserved as-is.
func Render(tmpl string, vars map[string]any) string {
	if !strings.Contains(tmpl, startTag) {
		return tmpl
	}

	tpl := fasttemplate.New(tmpl, startTag, endTag)

	return tpl.ExecuteFuncString(
		func(w io.Writer, tag string) (int, error) {
			v, ok := vars[strings.TrimSpace(tag)]
			if !ok {
				return io.WriteString(w, startTag+tag+endTag)
			}

			return fmt.Fprint(w, v)
		},
	)
}

// Split returns the first line of msg as headline and
// the remaining lines, trimmed, as body.
func Split(msg string) (string, string) {
	msg = strings.TrimSpace(msg)

	headline, body, _ := strings.Cut(msg, "\n")

	return strings.TrimSpace(headline), strings.TrimSpace(body)
}
