package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/domain-cutover/internal/model"
)

// WriteText 以纯文本输出一个步骤的结果
func WriteText(w io.Writer, title string, o model.Outcome) {
	fmt.Fprintf(w, "== %s\n", title)
	writeItems(w, o)
}

// WriteBundleText 按固定顺序输出 run-all 结果
func WriteBundleText(w io.Writer, b model.Bundle) {
	fmt.Fprintf(w, "%s\n", allStagesHeading)
	for _, s := range model.Stages {
		if o, ok := b[s]; ok {
			WriteText(w, s.Title(), o)
		}
	}
}

func writeItems(w io.Writer, o model.Outcome) {
	switch {
	case o.Kind == model.OutcomeError:
		fmt.Fprintf(w, "error: %s\n", o.Message)
		return
	case o.Malformed:
		fmt.Fprintf(w, "error: %s\n", invalidFormatMessage)
		return
	}
	for _, item := range o.Items {
		tag := "ERR"
		if item.Succeeded() {
			tag = "OK"
		}
		line := fmt.Sprintf("[%s] %s: %s", tag, item.Domain, item.Message)
		if len(item.Nameservers) > 0 {
			line += " (NS: " + strings.Join(item.Nameservers, ", ") + ")"
		}
		fmt.Fprintln(w, line)
	}
}
