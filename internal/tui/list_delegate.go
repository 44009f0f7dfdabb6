package tui

import (
	"fmt"
	"io"
	"strings"

	"sgu-cli/internal/model"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

type userItem struct {
	user model.User
}

func (i userItem) FilterValue() string { return i.user.FullName }
func (i userItem) Title() string       { return i.user.FullName }

// userDelegate renders one user per line in name / email / phone columns.
type userDelegate struct {
	normal   lipgloss.Style
	selected lipgloss.Style
}

func newUserDelegate() userDelegate {
	return userDelegate{
		normal: lipgloss.NewStyle(),
		selected: lipgloss.NewStyle().
			Foreground(colorSelectedFg).
			Background(colorSelectedBg).
			Bold(true),
	}
}

func (d userDelegate) Height() int  { return 1 }
func (d userDelegate) Spacing() int { return 0 }
func (d userDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d userDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	contentW := m.Width()
	it, ok := item.(userItem)
	if !ok || contentW < 4 {
		return
	}

	style := d.normal
	if index == m.Index() {
		style = d.selected
	}
	fmt.Fprint(w, style.Render(userRow(it.user, contentW)))
}

// userRow lays out name, email and phone in fixed proportions of width.
func userRow(u model.User, width int) string {
	nameW := width * 2 / 5
	emailW := width * 2 / 5
	phoneW := width - nameW - emailW
	return fitCell(u.FullName, nameW) + fitCell(u.Email, emailW) + fitCell(u.PhoneNumber, phoneW)
}

func columnHeads() model.User {
	return model.User{FullName: "Name", Email: "Email", PhoneNumber: "Phone"}
}

func fitCell(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	w := xansi.StringWidth(s)
	switch {
	case w >= width && width > 1:
		s = xansi.Cut(s, 0, width-2) + "…"
	case w >= width:
		s = xansi.Cut(s, 0, width)
	}
	if pad := width - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}
