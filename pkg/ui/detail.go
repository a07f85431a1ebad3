package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/taskmirror/pkg/analysis"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// RenderMarkdown renders markdown for the terminal, wrapped at width.
func RenderMarkdown(markdown string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// TaskMarkdown builds the markdown document shown by show --detail.
func TaskMarkdown(t model.Task, ann analysis.Annotation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", t.Subject)
	fmt.Fprintf(&b, "- **ID:** %s\n", t.ID)
	fmt.Fprintf(&b, "- **Status:** %s %s\n", t.State().Symbol(), t.Status.Normalize())
	if t.ActiveForm != "" {
		fmt.Fprintf(&b, "- **Active form:** %s\n", t.ActiveForm)
	}
	if len(t.BlockedBy) > 0 {
		fmt.Fprintf(&b, "- **Blocked by:** %s\n", strings.Join(t.BlockedBy, ", "))
	}
	if len(t.Blocks) > 0 {
		fmt.Fprintf(&b, "- **Blocks:** %s\n", strings.Join(t.Blocks, ", "))
	}
	if ann.Kind != analysis.AnnotationNone {
		fmt.Fprintf(&b, "- **Dependencies:** %s\n", ann)
	}

	desc := strings.TrimSpace(t.Description)
	if desc == "" {
		desc = "_No description._"
	}
	b.WriteString("\n")
	b.WriteString(desc)
	b.WriteString("\n")
	return b.String()
}

// RenderTaskDetail renders one task for the terminal.
func RenderTaskDetail(t model.Task, ann analysis.Annotation, width int) (string, error) {
	return RenderMarkdown(TaskMarkdown(t, ann), width)
}
