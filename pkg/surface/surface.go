// Package surface defines output rendering for built dashboard models.
// Implementations handle different output targets: terminal, Markdown report, JSON.
package surface

import (
	"fmt"
	"io"

	"github.com/trialscope/trialscope/pkg/dashboard"
)

// Renderer produces formatted output from a dashboard model.
type Renderer interface {
	// Render writes the formatted model to the writer.
	Render(w io.Writer, model *dashboard.Model) error
}

// Report is a condensed status report suitable for posting to a chat or
// review system.
type Report struct {
	Title      string `json:"title"`
	Summary    string `json:"summary"`    // Markdown body
	Conclusion string `json:"conclusion"` // success, neutral, failure
}

// Format names accepted by ForFormat.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// ForFormat returns the renderer for an output format name.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case FormatText, "":
		return &TerminalRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or markdown)", format)
	}
}
