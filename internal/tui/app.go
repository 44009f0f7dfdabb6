package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var fieldLabels = [3]string{"Full name", "Email", "Phone"}

func (m appModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}
	if m.modal != modalNone {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.viewModal())
	}

	header := styleHeader().Render("Users") + "  " + styleMuted().Render(m.baseURL)

	bodyH := m.height - 4
	if bodyH < 6 {
		bodyH = 6
	}
	form := normalizePane(m.viewForm(), m.formWidth(), bodyH)
	sep := normalizePane(strings.Repeat("│\n", bodyH), 1, bodyH)
	users := normalizePane(m.viewList(), m.listWidth(), bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, form, " ", styleMuted().Render(sep), " ", users)

	return strings.Join([]string{header, "", body, m.viewFooter()}, "\n")
}

func (m appModel) viewForm() string {
	title := "New user"
	action := "Save"
	_, editing := m.editing()
	if editing {
		title = "Edit user"
		action = "Update"
	}
	titleStyle := lipgloss.NewStyle().Bold(true)
	if m.pane == paneForm {
		titleStyle = titleStyle.Foreground(colorAccent)
	}

	bodyW := m.formWidth()
	lines := []string{titleStyle.Render(title), ""}
	for i := range m.inputs {
		label := fieldLabels[i]
		if m.pane == paneForm && m.focus == formFocus(i) {
			label = lipgloss.NewStyle().Bold(true).Render(label)
		} else {
			label = styleMuted().Render(label)
		}
		lines = append(lines, label, renderInputLine(bodyW, m.inputs[i].View()), "")
	}

	buttons := renderButton(action, m.pane == paneForm && m.focus == focusSave)
	if editing {
		buttons += " " + renderButton("Cancel", m.pane == paneForm && m.focus == focusCancel)
	}
	lines = append(lines, buttons)
	return strings.Join(lines, "\n")
}

func (m appModel) viewList() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	if m.pane == paneList {
		titleStyle = titleStyle.Foreground(colorAccent)
	}
	ls := m.session.List()
	title := titleStyle.Render(fmt.Sprintf("Registered users (%d)", ls.Len()))

	lines := []string{title}
	if m.refreshing > 0 {
		lines = append(lines, m.spin.View()+" Loading users…")
	} else {
		lines = append(lines, "")
	}
	// A failed fetch replaces the table; the previous snapshot is kept for the next load.
	if e := ls.LastError(); e != "" {
		lines = append(lines, styleError().Render(e), styleMuted().Render("r: retry"))
		return strings.Join(lines, "\n")
	}

	if len(m.users.Items()) == 0 {
		if ls.Loaded() {
			lines = append(lines, styleMuted().Render("No users registered."))
		}
		return strings.Join(lines, "\n")
	}
	cols := userRow(columnHeads(), m.listWidth())
	lines = append(lines, styleMuted().Render(cols), m.users.View())
	return strings.Join(lines, "\n")
}

func (m appModel) viewFooter() string {
	var help string
	switch {
	case m.pane == paneList:
		help = helpLine(m.keys.Edit, m.keys.Delete, m.keys.New, m.keys.Refresh, m.keys.NextPane, m.keys.Quit)
	default:
		help = helpLine(m.keys.FocusNext, m.keys.Save, m.keys.Cancel, m.keys.ForceQuit)
	}

	status := ""
	switch {
	case m.busy:
		status = m.spin.View() + " Saving…"
	case m.notice != "":
		status = styleOK().Render("✓ " + m.notice)
	}
	return status + "\n" + styleMuted().Render(help)
}

func (m appModel) viewModal() string {
	switch m.modal {
	case modalConfirmDelete:
		return renderConfirmModal(m.width, m.modalTitle, m.modalBody, "Delete", "Cancel", m.confirmFocus)
	case modalError:
		return renderErrorModal(m.width, m.modalTitle, m.modalBody)
	}
	return ""
}
