package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/taskmirror/internal/datasource"
)

// ErrNoChoices is returned when the picker has nothing to offer.
var ErrNoChoices = errors.New("no sources to choose from")

// Labeler renders a source as a picker option label.
type Labeler func(id string, taskCount int, modified, now time.Time) string

// SourceOptions turns discovered sources into picker options, keeping the
// discovery order (newest first).
func SourceOptions(sources []datasource.SourceInfo, label Labeler, now time.Time) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(sources))
	for _, src := range sources {
		opts = append(opts, huh.NewOption(label(src.ID, src.TaskCount, src.ModTime, now), src.ID))
	}
	return opts
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !IsTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// PickSource asks the user to choose a source and returns its id. The first
// option is preselected.
func PickSource(options []huh.Option[string]) (string, error) {
	if len(options) == 0 {
		return "", ErrNoChoices
	}
	choice := options[0].Value

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a Claude tasklist to mirror").
				Description("Newest first").
				Options(options...).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("source picker: %w", err)
	}
	return choice, nil
}
