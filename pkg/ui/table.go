package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/taskmirror/internal/store"
	"github.com/vanderheijden86/taskmirror/pkg/mirror"
	"github.com/vanderheijden86/taskmirror/pkg/model"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

// TableOptions controls RenderItems.
type TableOptions struct {
	Width   int
	ShowIDs bool
}

// RenderItems renders mirrored items as an indented checklist, one per line.
func RenderItems(items []store.Item, opts TableOptions) string {
	if len(items) == 0 {
		return MutedStyle.Render("(mirror is empty)")
	}
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}

	idWidth := 0
	if opts.ShowIDs {
		for _, it := range items {
			if w := runewidth.StringWidth(it.ID); w > idWidth {
				idWidth = w
			}
		}
	}

	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(renderRow(it, width, idWidth))
	}
	return b.String()
}

func renderRow(it store.Item, width, idWidth int) string {
	indent := strings.Repeat(" ", SpaceSM*it.Indent)
	symbol := it.State.Symbol()

	// indent + symbol + space, plus the id column and its gap.
	used := runewidth.StringWidth(indent) + runewidth.StringWidth(symbol) + SpaceXS
	if idWidth > 0 {
		used += idWidth + SpaceSM
	}

	content := truncate(it.Content, width-used)
	pad := width - used - runewidth.StringWidth(content)
	if it.ParentID == "" {
		content = HeaderItemStyle.Render(content)
	}

	row := indent + StateBadge(it.State) + " " + content
	if idWidth > 0 {
		if pad < 0 {
			pad = 0
		}
		row += strings.Repeat(" ", pad+SpaceSM) + MutedStyle.Render(it.ID)
	}
	return row
}

// truncateRunesHelper truncates a string to max visual width (cells), adding suffix if needed.
func truncateRunesHelper(s string, maxWidth int, suffix string) string {
	if maxWidth <= 0 {
		return ""
	}

	width := runewidth.StringWidth(s)
	if width <= maxWidth {
		return s
	}

	suffixWidth := runewidth.StringWidth(suffix)
	if suffixWidth > maxWidth {
		return runewidth.Truncate(suffix, maxWidth, "")
	}

	targetWidth := maxWidth - suffixWidth
	return runewidth.Truncate(s, targetWidth, "") + suffix
}

// truncate truncates s to maxWidth cells with an ellipsis.
func truncate(s string, maxWidth int) string {
	return truncateRunesHelper(s, maxWidth, "…")
}

// Summary is a one-line count of child items by state. Guidance
// placeholders are not counted.
func Summary(items []store.Item) string {
	var done, active, open int
	for _, it := range items {
		if it.ParentID == "" || mirror.IsGuidanceID(it.ID) {
			continue
		}
		switch it.State {
		case model.StateChecked:
			done++
		case model.StateInProgress:
			active++
		default:
			open++
		}
	}
	return fmt.Sprintf("%d tasks: %d done, %d in progress, %d open", done+active+open, done, active, open)
}
