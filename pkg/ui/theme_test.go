package ui

import (
	"testing"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

func TestThemeFg(t *testing.T) {
	saved := TermProfile
	t.Cleanup(func() { TermProfile = saved })

	TermProfile = colorprofile.ANSI
	if got := ThemeFg("#BD93F9"); got != lipgloss.ANSIColor(7) {
		t.Errorf("ThemeFg on 16-color terminal = %v, want ANSI white", got)
	}
	if !ColorEnabled() {
		t.Error("ANSI profile should report color enabled")
	}

	TermProfile = colorprofile.TrueColor
	if got := ThemeFg("#BD93F9"); got != lipgloss.Color("#BD93F9") {
		t.Errorf("ThemeFg on truecolor terminal = %v, want hex color", got)
	}

	TermProfile = colorprofile.Ascii
	if ColorEnabled() {
		t.Error("Ascii profile should report color disabled")
	}
}
