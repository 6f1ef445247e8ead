package report

import (
	"fmt"
	"io"

	"github.com/google/pg-page-verification/pkg/pgverify"
)

// RenderVerdict writes the final verdict line to w. When styled is true the
// line is rendered through lipgloss, which degrades to plain text if w does
// not support colour.
func RenderVerdict(w io.Writer, v pgverify.Verdict, styled bool) error {
	line := v.String()
	if styled {
		line = verdictStyle(w, v.Clean()).Render(line)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
