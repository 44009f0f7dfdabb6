// Package tui is the interactive front end: a user form next to the registered-users
// table, with confirmation and error modals.
package tui

import (
	"sgu-cli/internal/state"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

type Options struct {
	// BaseURL is shown in the header.
	BaseURL string
	// NoColor forces the ASCII color profile (NO_COLOR is honored as well).
	NoColor bool
	Log     logrus.FieldLogger
}

// Run blocks until the user quits.
func Run(s *state.Session, opts Options) error {
	applyThemePreference()
	applyColorProfilePreference(opts.NoColor)

	m := newAppModel(s, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
